package entity

import (
	"time"
)

// Видимость банка вопросов
const (
	BankVisibilityPublic  = "public"
	BankVisibilityPrivate = "private"
)

// QuizBank представляет банк вопросов - исходную коллекцию пар
// вопрос/ответ, из которой игра выбирает случайную подвыборку.
type QuizBank struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Visibility string    `gorm:"size:20;not null;default:'private';index" json:"visibility"`
	AccountID  uint      `gorm:"not null;index" json:"account_id"` // Автор банка
	Quizzes    []Quiz    `gorm:"foreignKey:QuizBankID;constraint:OnDelete:CASCADE" json:"quizzes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (QuizBank) TableName() string {
	return "quiz_banks"
}

// IsPublic проверяет, доступен ли банк для чтения всем
func (b *QuizBank) IsPublic() bool {
	return b.Visibility == BankVisibilityPublic
}

// IsAuthoredBy проверяет, является ли аккаунт автором банка
func (b *QuizBank) IsAuthoredBy(accountID uint) bool {
	return b.AccountID == accountID
}

// Quiz представляет один элемент банка: текст вопроса, правильный ответ
// и необязательное объяснение. Из Quiz синтезируются GameQuiz разных типов.
type Quiz struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	QuizBankID  uint      `gorm:"not null;index" json:"quiz_bank_id"`
	Question    string    `gorm:"type:text;not null" json:"question"`
	Answer      string    `gorm:"type:text;not null" json:"answer"`
	Explanation string    `gorm:"type:text" json:"explanation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}
