package gamegen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// Варианты ответа для true_false
const (
	AnswerTrue  = "True"
	AnswerFalse = "False"
)

// Sampler синтезирует вопросы игры из банка вопросов.
// Не потокобезопасен: каждый вызов Synthesize использует общий rng,
// сервис создает Sampler один раз и сериализует вызовы через создание игры.
type Sampler struct {
	config *Config
	rng    *rand.Rand
}

// NewSampler создает генератор со случайным seed
func NewSampler(config *Config) *Sampler {
	return NewSeededSampler(config, time.Now().UnixNano())
}

// NewSeededSampler создает генератор с фиксированным seed (для тестов)
func NewSeededSampler(config *Config, seed int64) *Sampler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Sampler{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Synthesize выбирает amount случайных вопросов банка и синтезирует по ним
// вопросы игры. Для каждого выбранного вопроса тип выбирается равномерно
// случайно из questionTypes. Дистракторы берутся из остальных выбранных
// вопросов (исключая текущий) в перемешанном порядке.
//
// Возвращает ErrValidation, когда:
//   - amount <= 0 или amount превышает размер банка
//   - questionTypes пуст или содержит неизвестный тип
//   - amount меньше минимума какого-либо запрошенного типа
//     (политика против нехватки дистракторов)
//
// Порядок результата задает последовательность "следующий вопрос".
func (s *Sampler) Synthesize(bank []entity.Quiz, amount int, questionTypes []string) ([]entity.GameQuiz, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", apperrors.ErrValidation, amount)
	}
	if amount > len(bank) {
		return nil, fmt.Errorf("%w: requested sample %d exceeds bank size %d",
			apperrors.ErrValidation, amount, len(bank))
	}
	if len(questionTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one question type is required", apperrors.ErrValidation)
	}
	for _, qt := range questionTypes {
		if !entity.IsValidQuizType(qt) {
			return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, qt)
		}
		if min := s.config.MinAmountForType(qt); amount < min {
			return nil, fmt.Errorf("%w: type %s requires at least %d quizzes, got %d",
				apperrors.ErrValidation, qt, min, amount)
		}
	}

	// Случайная перестановка банка, первые amount - выборка
	perm := s.rng.Perm(len(bank))
	sampled := make([]entity.Quiz, 0, amount)
	for _, idx := range perm[:amount] {
		sampled = append(sampled, bank[idx])
	}

	result := make([]entity.GameQuiz, 0, amount)
	for i := range sampled {
		qt := questionTypes[s.rng.Intn(len(questionTypes))]

		var gameQuiz entity.GameQuiz
		switch qt {
		case entity.QuizTypeMultipleChoice:
			gameQuiz = s.makeMultipleChoice(sampled, i)
		case entity.QuizTypeTrueFalse:
			gameQuiz = s.makeTrueFalse(sampled, i)
		case entity.QuizTypeConstructedResponse:
			gameQuiz = s.makeConstructedResponse(sampled[i])
		case entity.QuizTypeDnd:
			gameQuiz = s.makeDnd(sampled, i)
		}

		result = append(result, gameQuiz)
	}

	return result, nil
}

// makeMultipleChoice синтезирует вопрос с вариантами:
// верный ответ + Distractors чужих ответов в перемешанном порядке
func (s *Sampler) makeMultipleChoice(sampled []entity.Quiz, current int) entity.GameQuiz {
	quiz := sampled[current]
	distractors := s.drawDistractors(sampled, current, s.config.Distractors)

	answers := make([]string, 0, len(distractors)+1)
	for _, d := range distractors {
		answers = append(answers, d.Answer)
	}
	answers = append(answers, quiz.Answer)
	s.rng.Shuffle(len(answers), func(a, b int) {
		answers[a], answers[b] = answers[b], answers[a]
	})

	return entity.GameQuiz{
		Questions:      entity.StringArray{firstLine(quiz.Question)},
		Answers:        answers,
		CorrectAnswers: entity.StringArray{quiz.Answer},
		Type:           entity.QuizTypeMultipleChoice,
	}
}

// makeTrueFalse синтезирует утверждение "вопрос + показанный ответ".
// Монета решает, показывается верный ответ (True) или чужой (False).
func (s *Sampler) makeTrueFalse(sampled []entity.Quiz, current int) entity.GameQuiz {
	quiz := sampled[current]

	shownAnswer := quiz.Answer
	correct := AnswerTrue
	if s.rng.Intn(2) == 0 {
		distractors := s.drawDistractors(sampled, current, 1)
		shownAnswer = distractors[0].Answer
		correct = AnswerFalse
	}

	return entity.GameQuiz{
		Questions:      entity.StringArray{firstLine(quiz.Question) + "\n" + shownAnswer},
		Answers:        entity.StringArray{AnswerTrue, AnswerFalse},
		CorrectAnswers: entity.StringArray{correct},
		Type:           entity.QuizTypeTrueFalse,
	}
}

// makeConstructedResponse синтезирует вопрос со свободным ответом
func (s *Sampler) makeConstructedResponse(quiz entity.Quiz) entity.GameQuiz {
	return entity.GameQuiz{
		Questions:      entity.StringArray{firstLine(quiz.Question)},
		Answers:        entity.StringArray{},
		CorrectAnswers: entity.StringArray{quiz.Answer},
		Type:           entity.QuizTypeConstructedResponse,
	}
}

// makeDnd синтезирует вопрос-сопоставление: текущий вопрос + (DndGroup-1)
// дистракторов. Questions хранит полные тексты вопросов в фиксированном
// порядке, CorrectAnswers - их ответы в том же порядке, Answers - те же
// ответы в перемешанном порядке для показа.
func (s *Sampler) makeDnd(sampled []entity.Quiz, current int) entity.GameQuiz {
	group := []entity.Quiz{sampled[current]}
	group = append(group, s.drawDistractors(sampled, current, s.config.DndGroup-1)...)

	questions := make(entity.StringArray, 0, len(group))
	correct := make(entity.StringArray, 0, len(group))
	for _, q := range group {
		questions = append(questions, q.Question)
		correct = append(correct, q.Answer)
	}

	shuffled := make(entity.StringArray, len(correct))
	copy(shuffled, correct)
	s.rng.Shuffle(len(shuffled), func(a, b int) {
		shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
	})

	return entity.GameQuiz{
		Questions:      questions,
		Answers:        shuffled,
		CorrectAnswers: correct,
		Type:           entity.QuizTypeDnd,
	}
}

// drawDistractors возвращает count случайных вопросов выборки, исключая
// текущий. Валидация размера выборки выполнена в Synthesize.
func (s *Sampler) drawDistractors(sampled []entity.Quiz, exclude int, count int) []entity.Quiz {
	pool := make([]entity.Quiz, 0, len(sampled)-1)
	for i := range sampled {
		if i != exclude {
			pool = append(pool, sampled[i])
		}
	}
	s.rng.Shuffle(len(pool), func(a, b int) {
		pool[a], pool[b] = pool[b], pool[a]
	})
	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}

// firstLine возвращает первую строку текста вопроса
func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
