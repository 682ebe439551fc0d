package repository

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

// BankFilters определяет фильтры для поиска банков вопросов
type BankFilters struct {
	Search     string // Поиск по названию
	Visibility string // public / private
	AccountID  *uint  // Только банки конкретного автора
}

// QuizBankRepository определяет методы для работы с банками вопросов
type QuizBankRepository interface {
	Create(bank *entity.QuizBank) error
	GetByID(id uint) (*entity.QuizBank, error)
	// GetWithQuizzes возвращает банк вместе с его вопросами
	GetWithQuizzes(id uint) (*entity.QuizBank, error)
	Update(bank *entity.QuizBank) error
	List(filters BankFilters, limit, offset int) ([]entity.QuizBank, int64, error)
	Delete(id uint) error
	CountQuizzes(bankID uint) (int64, error)
}
