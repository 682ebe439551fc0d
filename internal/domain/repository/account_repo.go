package repository

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

// AccountRepository определяет методы для работы с аккаунтами
type AccountRepository interface {
	GetByID(id uint) (*entity.Account, error)
	GetByIDs(ids []uint) ([]entity.Account, error)
	GetByEmail(email string) (*entity.Account, error)
}
