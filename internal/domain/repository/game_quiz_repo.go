package repository

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"gorm.io/gorm"
)

// GameQuizRepository определяет методы для работы с вопросами игры
type GameQuizRepository interface {
	// CreateBatch сохраняет все вопросы игры одной вставкой в рамках tx
	CreateBatch(tx *gorm.DB, quizzes []entity.GameQuiz) error
	GetByID(id uint) (*entity.GameQuiz, error)
	// GetByGameID возвращает вопросы игры в порядке возрастания id
	GetByGameID(gameID uint) ([]entity.GameQuiz, error)
	// NextAfter возвращает первый вопрос игры с id > afterID.
	// afterID=0 означает первый вопрос. Возвращает ErrNotFound, когда
	// вопросы исчерпаны.
	NextAfter(gameID uint, afterID uint) (*entity.GameQuiz, error)
	CountByGameID(gameID uint) (int64, error)
}
