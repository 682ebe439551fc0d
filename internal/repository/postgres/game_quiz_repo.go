package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// GameQuizRepo реализует repository.GameQuizRepository
type GameQuizRepo struct {
	db *gorm.DB
}

// NewGameQuizRepo создает новый репозиторий вопросов игры
func NewGameQuizRepo(db *gorm.DB) *GameQuizRepo {
	return &GameQuizRepo{db: db}
}

// CreateBatch сохраняет все вопросы игры одной вставкой в рамках tx
func (r *GameQuizRepo) CreateBatch(tx *gorm.DB, quizzes []entity.GameQuiz) error {
	if tx == nil {
		tx = r.db
	}
	if len(quizzes) == 0 {
		return nil
	}
	return tx.Create(&quizzes).Error
}

// GetByID возвращает вопрос по ID
func (r *GameQuizRepo) GetByID(id uint) (*entity.GameQuiz, error) {
	var quiz entity.GameQuiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByGameID возвращает вопросы игры в порядке возрастания id
func (r *GameQuizRepo) GetByGameID(gameID uint) ([]entity.GameQuiz, error) {
	var quizzes []entity.GameQuiz
	err := r.db.Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&quizzes).Error
	// Пустой слайс - валидный результат
	return quizzes, err
}

// NextAfter возвращает первый вопрос игры с id > afterID.
// Когда вопросы исчерпаны, возвращает ErrNotFound.
func (r *GameQuizRepo) NextAfter(gameID uint, afterID uint) (*entity.GameQuiz, error) {
	var quiz entity.GameQuiz
	err := r.db.Where("game_id = ? AND id > ?", gameID, afterID).
		Order("id ASC").
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// CountByGameID возвращает число вопросов игры
func (r *GameQuizRepo) CountByGameID(gameID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.GameQuiz{}).
		Where("game_id = ?", gameID).
		Count(&count).Error
	return count, err
}
