package entity

import (
	"time"
)

// Типы синтезированных вопросов
const (
	QuizTypeMultipleChoice      = "multiple_choice"
	QuizTypeTrueFalse           = "true_false"
	QuizTypeConstructedResponse = "constructed_response"
	QuizTypeDnd                 = "dnd" // Сопоставление (matching)
)

// AllQuizTypes возвращает все поддерживаемые типы вопросов
func AllQuizTypes() []string {
	return []string{
		QuizTypeMultipleChoice,
		QuizTypeTrueFalse,
		QuizTypeConstructedResponse,
		QuizTypeDnd,
	}
}

// IsValidQuizType проверяет, поддерживается ли тип вопроса
func IsValidQuizType(t string) bool {
	switch t {
	case QuizTypeMultipleChoice, QuizTypeTrueFalse, QuizTypeConstructedResponse, QuizTypeDnd:
		return true
	}
	return false
}

// GameQuiz представляет один синтезированный вопрос игры.
// Создается один раз при создании игры и далее неизменен.
// Инвариант: len(CorrectAnswers) == len(Questions); порядок id задает
// последовательность навигации "следующий вопрос".
type GameQuiz struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	GameID         uint        `gorm:"not null;index" json:"game_id"`
	Questions      StringArray `gorm:"type:jsonb;not null" json:"questions"`
	Answers        StringArray `gorm:"type:jsonb;not null" json:"answers"`
	CorrectAnswers StringArray `gorm:"type:jsonb;not null" json:"-"` // Скрыто от клиента
	Type           string      `gorm:"size:30;not null" json:"type"`
	CreatedAt      time.Time   `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (GameQuiz) TableName() string {
	return "game_quizzes"
}

// Grade проверяет ответ участника. Ответ верен, когда он непуст,
// не длиннее эталона и каждый элемент совпадает позиционно с
// CorrectAnswers (точное строковое равенство). Пустой ответ всегда неверен.
func (gq *GameQuiz) Grade(userAnswer []string) bool {
	if len(userAnswer) == 0 || len(userAnswer) > len(gq.CorrectAnswers) {
		return false
	}
	for i, a := range userAnswer {
		if a != gq.CorrectAnswers[i] {
			return false
		}
	}
	return true
}
