package service

import (
	"fmt"
	"log"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

// QuizItem - один вопрос при создании или пополнении банка
type QuizItem struct {
	Question    string
	Answer      string
	Explanation string
}

// QuizBankService управляет банками вопросов
type QuizBankService struct {
	bankRepo repository.QuizBankRepository
	access   *AccessPolicy
}

// NewQuizBankService создает новый сервис банков вопросов
func NewQuizBankService(bankRepo repository.QuizBankRepository, access *AccessPolicy) *QuizBankService {
	return &QuizBankService{
		bankRepo: bankRepo,
		access:   access,
	}
}

// CreateBank создает банк вопросов вместе с начальным набором вопросов
func (s *QuizBankService) CreateBank(name, visibility string, items []QuizItem, author *entity.Account) (*entity.QuizBank, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: bank name is required", apperrors.ErrValidation)
	}
	if visibility != entity.BankVisibilityPublic && visibility != entity.BankVisibilityPrivate {
		return nil, fmt.Errorf("%w: unknown visibility %q", apperrors.ErrValidation, visibility)
	}

	quizzes, err := buildQuizzes(items)
	if err != nil {
		return nil, err
	}

	bank := &entity.QuizBank{
		Name:       name,
		Visibility: visibility,
		AccountID:  author.ID,
		Quizzes:    quizzes,
	}
	if err := s.bankRepo.Create(bank); err != nil {
		return nil, fmt.Errorf("failed to create quiz bank: %w", err)
	}

	log.Printf("[QuizBankService] Банк %d создан аккаунтом %d, вопросов: %d", bank.ID, author.ID, len(quizzes))
	return bank, nil
}

// GetBank возвращает банк с вопросами после проверки прав
func (s *QuizBankService) GetBank(bankID uint, account *entity.Account) (*entity.QuizBank, error) {
	bank, err := s.bankRepo.GetWithQuizzes(bankID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckBank(bank, account, AccessRead); err != nil {
		return nil, err
	}
	return bank, nil
}

// ListBanks возвращает банки, видимые аккаунту: собственные и публичные.
// Админ видит все.
func (s *QuizBankService) ListBanks(filters repository.BankFilters, page, pageSize int, account *entity.Account) ([]entity.QuizBank, int64, error) {
	if !account.IsAdmin() && filters.AccountID == nil {
		// Ограничение видимости выполняет пост-фильтр ниже, а выборку
		// сужаем либо по автору, либо по публичности
		if filters.Visibility == "" {
			filters.Visibility = entity.BankVisibilityPublic
		}
	}

	offset := (page - 1) * pageSize
	banks, total, err := s.bankRepo.List(filters, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return banks, total, nil
}

// ListOwnBanks возвращает банки, созданные аккаунтом
func (s *QuizBankService) ListOwnBanks(page, pageSize int, account *entity.Account) ([]entity.QuizBank, int64, error) {
	filters := repository.BankFilters{AccountID: &account.ID}
	offset := (page - 1) * pageSize
	return s.bankRepo.List(filters, pageSize, offset)
}

// AddQuizzes пополняет банк новыми вопросами
func (s *QuizBankService) AddQuizzes(bankID uint, items []QuizItem, account *entity.Account) (*entity.QuizBank, error) {
	bank, err := s.bankRepo.GetWithQuizzes(bankID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckBank(bank, account, AccessManage); err != nil {
		return nil, err
	}

	quizzes, err := buildQuizzes(items)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, fmt.Errorf("%w: no quizzes provided", apperrors.ErrValidation)
	}

	bank.Quizzes = append(bank.Quizzes, quizzes...)
	if err := s.bankRepo.Update(bank); err != nil {
		return nil, fmt.Errorf("failed to add quizzes: %w", err)
	}

	log.Printf("[QuizBankService] В банк %d добавлено %d вопросов", bankID, len(quizzes))
	return bank, nil
}

// UpdateBank меняет имя и видимость банка
func (s *QuizBankService) UpdateBank(bankID uint, name, visibility string, account *entity.Account) (*entity.QuizBank, error) {
	bank, err := s.bankRepo.GetByID(bankID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckBank(bank, account, AccessManage); err != nil {
		return nil, err
	}

	if name != "" {
		bank.Name = name
	}
	if visibility != "" {
		if visibility != entity.BankVisibilityPublic && visibility != entity.BankVisibilityPrivate {
			return nil, fmt.Errorf("%w: unknown visibility %q", apperrors.ErrValidation, visibility)
		}
		bank.Visibility = visibility
	}

	if err := s.bankRepo.Update(bank); err != nil {
		return nil, fmt.Errorf("failed to update quiz bank: %w", err)
	}
	return bank, nil
}

// DeleteBank удаляет банк вместе с вопросами
func (s *QuizBankService) DeleteBank(bankID uint, account *entity.Account) error {
	bank, err := s.bankRepo.GetByID(bankID)
	if err != nil {
		return err
	}
	if err := s.access.CheckBank(bank, account, AccessManage); err != nil {
		return err
	}
	return s.bankRepo.Delete(bankID)
}

func buildQuizzes(items []QuizItem) ([]entity.Quiz, error) {
	quizzes := make([]entity.Quiz, 0, len(items))
	for i, item := range items {
		if item.Question == "" || item.Answer == "" {
			return nil, fmt.Errorf("%w: quiz #%d requires question and answer", apperrors.ErrValidation, i+1)
		}
		quizzes = append(quizzes, entity.Quiz{
			Question:    item.Question,
			Answer:      item.Answer,
			Explanation: item.Explanation,
		})
	}
	return quizzes, nil
}
