package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// AccountRepo реализует repository.AccountRepository
type AccountRepo struct {
	db *gorm.DB
}

// NewAccountRepo создает новый репозиторий аккаунтов
func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// GetByID возвращает аккаунт по ID
func (r *AccountRepo) GetByID(id uint) (*entity.Account, error) {
	var account entity.Account
	err := r.db.First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDs возвращает аккаунты по списку id
func (r *AccountRepo) GetByIDs(ids []uint) ([]entity.Account, error) {
	var accounts []entity.Account
	if len(ids) == 0 {
		return accounts, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&accounts).Error
	return accounts, err
}

// GetByEmail возвращает аккаунт по email
func (r *AccountRepo) GetByEmail(email string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}
