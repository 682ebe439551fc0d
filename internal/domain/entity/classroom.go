package entity

import (
	"time"
)

// Classroom представляет учебный класс. Владелец (AccountID) управляет
// классом; участники перечислены в classroom_members.
type Classroom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	AccountID uint      `gorm:"not null;index" json:"account_id"` // Владелец класса
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Classroom) TableName() string {
	return "classrooms"
}

// IsOwnedBy проверяет, владеет ли аккаунт классом
func (c *Classroom) IsOwnedBy(accountID uint) bool {
	return c.AccountID == accountID
}

// ClassroomMember представляет участие аккаунта в классе.
// Пара (classroom_id, account_id) уникальна.
type ClassroomMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"not null;uniqueIndex:idx_classroom_account" json:"classroom_id"`
	AccountID   uint      `gorm:"not null;uniqueIndex:idx_classroom_account" json:"account_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ClassroomMember) TableName() string {
	return "classroom_members"
}
