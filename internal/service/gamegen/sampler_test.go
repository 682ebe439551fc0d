package gamegen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

func makeBank(size int) []entity.Quiz {
	bank := make([]entity.Quiz, 0, size)
	for i := 1; i <= size; i++ {
		bank = append(bank, entity.Quiz{
			ID:       uint(i),
			Question: fmt.Sprintf("Вопрос %d", i),
			Answer:   fmt.Sprintf("Ответ %d", i),
		})
	}
	return bank
}

func TestSampler_Synthesize_ReturnsExactlyAmount(t *testing.T) {
	// Arrange
	sampler := NewSeededSampler(nil, 42)
	bank := makeBank(10)

	// Act
	quizzes, err := sampler.Synthesize(bank, 5, []string{entity.QuizTypeMultipleChoice})

	// Assert
	require.NoError(t, err)
	assert.Len(t, quizzes, 5, "Synthesize должен вернуть ровно amount вопросов")
}

func TestSampler_Synthesize_AmountExceedsBankSize(t *testing.T) {
	// Arrange
	sampler := NewSeededSampler(nil, 42)
	bank := makeBank(3)

	// Act
	_, err := sampler.Synthesize(bank, 4, []string{entity.QuizTypeConstructedResponse})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Превышение размера банка - ошибка валидации")
}

func TestSampler_Synthesize_RejectsInvalidInput(t *testing.T) {
	sampler := NewSeededSampler(nil, 1)
	bank := makeBank(10)

	_, err := sampler.Synthesize(bank, 0, []string{entity.QuizTypeTrueFalse})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "amount=0 отклоняется")

	_, err = sampler.Synthesize(bank, 5, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Пустой список типов отклоняется")

	_, err = sampler.Synthesize(bank, 5, []string{"essay"})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Неизвестный тип отклоняется")
}

func TestSampler_Synthesize_DistractorStarvation(t *testing.T) {
	// Arrange: дистракторы берутся из выборки, поэтому малый amount
	// не позволяет собрать multiple_choice / dnd
	sampler := NewSeededSampler(nil, 7)
	bank := makeBank(10)

	// Act & Assert
	_, err := sampler.Synthesize(bank, 3, []string{entity.QuizTypeMultipleChoice})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "multiple_choice требует минимум 4 вопроса")

	_, err = sampler.Synthesize(bank, 2, []string{entity.QuizTypeDnd})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "dnd требует минимум 3 вопроса")

	_, err = sampler.Synthesize(bank, 1, []string{entity.QuizTypeTrueFalse})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "true_false требует минимум 2 вопроса")

	_, err = sampler.Synthesize(bank, 1, []string{entity.QuizTypeConstructedResponse})
	assert.NoError(t, err, "constructed_response не требует дистракторов")
}

func TestSampler_Synthesize_MultipleChoiceShape(t *testing.T) {
	// Arrange: сценарий из практики - банк из 5, amount=5, только multiple_choice
	sampler := NewSeededSampler(nil, 42)
	bank := makeBank(5)

	// Act
	quizzes, err := sampler.Synthesize(bank, 5, []string{entity.QuizTypeMultipleChoice})

	// Assert
	require.NoError(t, err)
	require.Len(t, quizzes, 5)
	for _, gq := range quizzes {
		assert.Equal(t, entity.QuizTypeMultipleChoice, gq.Type)
		assert.Len(t, gq.Questions, 1, "Один prompt на вопрос")
		assert.Len(t, gq.Answers, 4, "3 дистрактора + верный ответ")
		assert.Len(t, gq.CorrectAnswers, 1)
		assert.Contains(t, gq.Answers, gq.CorrectAnswers[0], "Верный ответ присутствует среди вариантов")
	}
}

func TestSampler_Synthesize_TrueFalseShape(t *testing.T) {
	// Arrange
	sampler := NewSeededSampler(nil, 99)
	bank := makeBank(6)

	// Act
	quizzes, err := sampler.Synthesize(bank, 6, []string{entity.QuizTypeTrueFalse})

	// Assert
	require.NoError(t, err)
	for _, gq := range quizzes {
		assert.Equal(t, entity.QuizTypeTrueFalse, gq.Type)
		assert.Len(t, gq.Questions, 1)
		assert.Equal(t, entity.StringArray{AnswerTrue, AnswerFalse}, gq.Answers)
		require.Len(t, gq.CorrectAnswers, 1)
		assert.Contains(t, []string{AnswerTrue, AnswerFalse}, gq.CorrectAnswers[0])
		assert.Contains(t, gq.Questions[0], "\n", "Prompt содержит вопрос и показанный ответ")
	}
}

func TestSampler_Synthesize_ConstructedResponseShape(t *testing.T) {
	// Arrange: вопрос с многострочным текстом
	sampler := NewSeededSampler(nil, 5)
	bank := []entity.Quiz{
		{ID: 1, Question: "Столица Франции?\nподсказка: на Сене", Answer: "Париж"},
	}

	// Act
	quizzes, err := sampler.Synthesize(bank, 1, []string{entity.QuizTypeConstructedResponse})

	// Assert
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	gq := quizzes[0]
	assert.Equal(t, entity.StringArray{"Столица Франции?"}, gq.Questions, "Prompt - первая строка вопроса")
	assert.Empty(t, gq.Answers, "Варианты не показываются")
	assert.Equal(t, entity.StringArray{"Париж"}, gq.CorrectAnswers)
}

func TestSampler_Synthesize_DndShape(t *testing.T) {
	// Arrange
	sampler := NewSeededSampler(nil, 13)
	bank := makeBank(5)

	// Act
	quizzes, err := sampler.Synthesize(bank, 5, []string{entity.QuizTypeDnd})

	// Assert
	require.NoError(t, err)
	for _, gq := range quizzes {
		assert.Equal(t, entity.QuizTypeDnd, gq.Type)
		assert.Len(t, gq.Questions, DndGroupSize, "Группа из 3 пар")
		assert.Len(t, gq.Answers, DndGroupSize)
		assert.Len(t, gq.CorrectAnswers, DndGroupSize)
		assert.ElementsMatch(t, gq.Answers, gq.CorrectAnswers,
			"Показанные варианты - перестановка эталонных ответов")
	}
}

func TestSampler_Synthesize_QuestionsAlignWithCorrectAnswers(t *testing.T) {
	// Arrange: все типы сразу, инвариант len(Questions) == len(CorrectAnswers)
	sampler := NewSeededSampler(nil, 2024)
	bank := makeBank(12)

	// Act
	quizzes, err := sampler.Synthesize(bank, 10, entity.AllQuizTypes())

	// Assert
	require.NoError(t, err)
	require.Len(t, quizzes, 10)
	for _, gq := range quizzes {
		assert.Equal(t, len(gq.Questions), len(gq.CorrectAnswers),
			"Questions и CorrectAnswers выровнены позиционно (тип %s)", gq.Type)
		assert.True(t, entity.IsValidQuizType(gq.Type))
	}
}

func TestSampler_Synthesize_DeterministicWithSeed(t *testing.T) {
	// Arrange
	bank := makeBank(8)

	// Act: два генератора с одним seed
	first, err1 := NewSeededSampler(nil, 777).Synthesize(bank, 6, entity.AllQuizTypes())
	second, err2 := NewSeededSampler(nil, 777).Synthesize(bank, 6, entity.AllQuizTypes())

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second, "Одинаковый seed дает одинаковый результат")
}
