package repository

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

// ClassroomRepository определяет методы для работы с классами
type ClassroomRepository interface {
	GetByID(id uint) (*entity.Classroom, error)
	// IsMember проверяет членство аккаунта в классе
	IsMember(classroomID, accountID uint) (bool, error)
	// MemberIDs возвращает id всех участников класса
	MemberIDs(classroomID uint) ([]uint, error)
}
