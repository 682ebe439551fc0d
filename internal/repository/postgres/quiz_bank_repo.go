package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// QuizBankRepo реализует repository.QuizBankRepository
type QuizBankRepo struct {
	db *gorm.DB
}

// NewQuizBankRepo создает новый репозиторий банков вопросов
func NewQuizBankRepo(db *gorm.DB) *QuizBankRepo {
	return &QuizBankRepo{db: db}
}

// Create создает банк вопросов (вместе с вложенными вопросами)
func (r *QuizBankRepo) Create(bank *entity.QuizBank) error {
	return r.db.Create(bank).Error
}

// GetByID возвращает банк по ID без вопросов
func (r *QuizBankRepo) GetByID(id uint) (*entity.QuizBank, error) {
	var bank entity.QuizBank
	err := r.db.First(&bank, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &bank, nil
}

// GetWithQuizzes возвращает банк вместе с его вопросами
func (r *QuizBankRepo) GetWithQuizzes(id uint) (*entity.QuizBank, error) {
	var bank entity.QuizBank
	err := r.db.Preload("Quizzes").First(&bank, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &bank, nil
}

// Update обновляет информацию о банке
func (r *QuizBankRepo) Update(bank *entity.QuizBank) error {
	return r.db.Save(bank).Error
}

// List возвращает список банков с фильтрами и total count
func (r *QuizBankRepo) List(filters repository.BankFilters, limit, offset int) ([]entity.QuizBank, int64, error) {
	var banks []entity.QuizBank
	var total int64

	query := r.db.Model(&entity.QuizBank{})

	if filters.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Search+"%")
	}

	if filters.Visibility != "" {
		query = query.Where("visibility = ?", filters.Visibility)
	}

	if filters.AccountID != nil {
		query = query.Where("account_id = ?", *filters.AccountID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("id DESC").Find(&banks).Error
	if err != nil {
		return nil, 0, err
	}

	return banks, total, nil
}

// Delete удаляет банк (вопросы удаляются каскадно)
func (r *QuizBankRepo) Delete(id uint) error {
	return r.db.Delete(&entity.QuizBank{}, id).Error
}

// CountQuizzes возвращает число вопросов в банке
func (r *QuizBankRepo) CountQuizzes(bankID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Quiz{}).
		Where("quiz_bank_id = ?", bankID).
		Count(&count).Error
	return count, err
}
