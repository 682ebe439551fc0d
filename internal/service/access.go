package service

import (
	"errors"
	"fmt"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// AccessLevel различает чтение и управление игрой
type AccessLevel int

const (
	// AccessRead - просмотр игры, участие, чтение записей
	AccessRead AccessLevel = iota
	// AccessManage - старт, завершение, удаление, просмотр чужих ответов
	AccessManage
)

// AccessPolicy - единая точка проверки прав доступа к игре.
// Правила:
//   - админ и создатель игры имеют полный доступ
//   - автор банка вопросов имеет полный доступ
//   - владелец и участники класса имеют доступ к играм класса
//   - публичный банк открывает доступ на чтение всем
type AccessPolicy struct {
	bankRepo      repository.QuizBankRepository
	classroomRepo repository.ClassroomRepository
}

// NewAccessPolicy создает политику доступа
func NewAccessPolicy(
	bankRepo repository.QuizBankRepository,
	classroomRepo repository.ClassroomRepository,
) *AccessPolicy {
	return &AccessPolicy{
		bankRepo:      bankRepo,
		classroomRepo: classroomRepo,
	}
}

// CheckGame проверяет доступ аккаунта к игре на уровне level.
// Возвращает ErrUnauthorized при отказе, ошибку БД при сбое проверки.
// Отсутствие связанных сущностей (банк, класс) не превращается в
// ErrNotFound: игра существует, значит отказ - вопрос прав.
func (p *AccessPolicy) CheckGame(game *entity.Game, account *entity.Account, level AccessLevel) error {
	allowed, err := p.gameAllowed(game, account, level)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: account #%d has no access to game #%d",
			apperrors.ErrUnauthorized, account.ID, game.ID)
	}
	return nil
}

func (p *AccessPolicy) gameAllowed(game *entity.Game, account *entity.Account, level AccessLevel) (bool, error) {
	if account.IsAdmin() || game.CreatedBy == account.ID {
		return true, nil
	}

	bank, err := p.bankRepo.GetByID(game.QuizBankID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}

	if bank != nil && bank.IsAuthoredBy(account.ID) {
		return true, nil
	}

	if game.ClassroomID != nil {
		ok, err := p.classroomAllowed(*game.ClassroomID, account.ID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	// Публичный банк открывает только чтение
	if level == AccessRead && bank != nil && bank.IsPublic() {
		return true, nil
	}

	return false, nil
}

func (p *AccessPolicy) classroomAllowed(classroomID, accountID uint) (bool, error) {
	classroom, err := p.classroomRepo.GetByID(classroomID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if classroom.IsOwnedBy(accountID) {
		return true, nil
	}
	return p.classroomRepo.IsMember(classroomID, accountID)
}

// CheckBank проверяет доступ аккаунта к банку вопросов.
// Управление доступно только автору и админу, чтение - также для публичных.
func (p *AccessPolicy) CheckBank(bank *entity.QuizBank, account *entity.Account, level AccessLevel) error {
	if account.IsAdmin() || bank.IsAuthoredBy(account.ID) {
		return nil
	}
	if level == AccessRead && bank.IsPublic() {
		return nil
	}
	return fmt.Errorf("%w: account #%d has no access to quiz bank #%d",
		apperrors.ErrUnauthorized, account.ID, bank.ID)
}
