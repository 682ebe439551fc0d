package entity

import (
	"time"
)

// Роли аккаунтов
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account представляет аккаунт платформы.
// Аутентификация и выпуск токенов выполняются внешним сервисом;
// здесь аккаунт нужен как источник идентичности и владения
// (банки вопросов, классы, игры).
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Role      string    `gorm:"size:20;not null;default:'user'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Account) TableName() string {
	return "accounts"
}

// IsAdmin проверяет, является ли аккаунт администратором
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
