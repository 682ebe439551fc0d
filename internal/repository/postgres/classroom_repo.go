package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// ClassroomRepo реализует repository.ClassroomRepository
type ClassroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo создает новый репозиторий классов
func NewClassroomRepo(db *gorm.DB) *ClassroomRepo {
	return &ClassroomRepo{db: db}
}

// GetByID возвращает класс по ID
func (r *ClassroomRepo) GetByID(id uint) (*entity.Classroom, error) {
	var classroom entity.Classroom
	err := r.db.First(&classroom, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &classroom, nil
}

// IsMember проверяет членство аккаунта в классе
func (r *ClassroomRepo) IsMember(classroomID, accountID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.ClassroomMember{}).
		Where("classroom_id = ? AND account_id = ?", classroomID, accountID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MemberIDs возвращает id всех участников класса
func (r *ClassroomRepo) MemberIDs(classroomID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entity.ClassroomMember{}).
		Where("classroom_id = ?", classroomID).
		Pluck("account_id", &ids).Error
	return ids, err
}
