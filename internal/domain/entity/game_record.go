package entity

import (
	"time"
)

// GameRecord представляет участие аккаунта в игре. CreatedAt - момент
// старта персональной сессии, от него отсчитывается лимит game.DurationMin.
// Пара (game_id, account_id) уникальна; после IsFinished=true повторный
// join запрещен.
type GameRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GameID     uint      `gorm:"not null;uniqueIndex:idx_record_game_account" json:"game_id"`
	AccountID  uint      `gorm:"not null;uniqueIndex:idx_record_game_account" json:"account_id"`
	IsFinished bool      `gorm:"not null;default:false" json:"is_finished"`
	Account    *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (GameRecord) TableName() string {
	return "game_records"
}

// WithinDeadline проверяет, укладывается ли момент now в персональное
// окно отправки ответов. Без заданного лимита окно не ограничено.
func (r *GameRecord) WithinDeadline(game *Game, now time.Time) bool {
	deadline, ok := game.SubmissionDeadline(r.CreatedAt)
	if !ok {
		return true
	}
	return !now.After(deadline)
}
