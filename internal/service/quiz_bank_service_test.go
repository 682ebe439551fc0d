package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
)

func newTestQuizBankService() (*QuizBankService, *MockQuizBankRepository, *MockClassroomRepository) {
	bankRepo := new(MockQuizBankRepository)
	classRepo := new(MockClassroomRepository)
	svc := NewQuizBankService(bankRepo, NewAccessPolicy(bankRepo, classRepo))
	return svc, bankRepo, classRepo
}

func TestQuizBankService_CreateBank_Success(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	author := creatorAccount()
	items := []QuizItem{
		{Question: "What is the capital of France?", Answer: "Paris"},
		{Question: "What is 2+2?", Answer: "4", Explanation: "Basic arithmetic"},
	}
	bankRepo.On("Create", mock.AnythingOfType("*entity.QuizBank")).Return(nil)

	// Act
	bank, err := svc.CreateBank("Geography", entity.BankVisibilityPrivate, items, author)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "Geography", bank.Name, "Имя банка должно сохраниться")
	assert.Equal(t, author.ID, bank.AccountID, "Автор банка должен быть вызывающим")
	assert.Len(t, bank.Quizzes, 2, "Все вопросы должны попасть в банк")
	bankRepo.AssertExpectations(t)
}

func TestQuizBankService_CreateBank_InvalidVisibility(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()

	// Act
	_, err := svc.CreateBank("Geography", "hidden", nil, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Неизвестная видимость должна давать ошибку валидации")
	bankRepo.AssertNotCalled(t, "Create")
}

func TestQuizBankService_CreateBank_IncompleteQuiz(t *testing.T) {
	// Arrange
	svc, _, _ := newTestQuizBankService()
	items := []QuizItem{{Question: "Question without answer"}}

	// Act
	_, err := svc.CreateBank("Geography", entity.BankVisibilityPrivate, items, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Вопрос без ответа должен давать ошибку валидации")
}

func TestQuizBankService_AddQuizzes_AppendsToBank(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	author := creatorAccount()
	bank := &entity.QuizBank{
		ID:         5,
		Name:       "Geography",
		Visibility: entity.BankVisibilityPrivate,
		AccountID:  author.ID,
		Quizzes:    []entity.Quiz{{ID: 1, Question: "Old question", Answer: "Old answer"}},
	}
	bankRepo.On("GetWithQuizzes", uint(5)).Return(bank, nil)
	bankRepo.On("Update", bank).Return(nil)

	// Act
	updated, err := svc.AddQuizzes(5, []QuizItem{{Question: "New question", Answer: "New answer"}}, author)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, updated.Quizzes, 2, "Новый вопрос должен добавиться к существующим")
	bankRepo.AssertExpectations(t)
}

func TestQuizBankService_AddQuizzes_StrangerDenied(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	bank := &entity.QuizBank{
		ID:         5,
		Visibility: entity.BankVisibilityPublic,
		AccountID:  1,
	}
	bankRepo.On("GetWithQuizzes", uint(5)).Return(bank, nil)

	// Act
	_, err := svc.AddQuizzes(5, []QuizItem{{Question: "Q", Answer: "A"}}, strangerAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized,
		"Публичный банк дает чужим только чтение, пополнение запрещено")
	bankRepo.AssertNotCalled(t, "Update")
}

func TestQuizBankService_GetBank_PublicReadableByStranger(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	bank := &entity.QuizBank{
		ID:         5,
		Visibility: entity.BankVisibilityPublic,
		AccountID:  1,
	}
	bankRepo.On("GetWithQuizzes", uint(5)).Return(bank, nil)

	// Act
	got, err := svc.GetBank(5, strangerAccount())

	// Assert
	assert.NoError(t, err, "Публичный банк должен читаться любым аккаунтом")
	assert.Equal(t, bank, got)
}

func TestQuizBankService_GetBank_PrivateDeniedToStranger(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	bank := &entity.QuizBank{
		ID:         5,
		Visibility: entity.BankVisibilityPrivate,
		AccountID:  1,
	}
	bankRepo.On("GetWithQuizzes", uint(5)).Return(bank, nil)

	// Act
	_, err := svc.GetBank(5, strangerAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "Чужой приватный банк недоступен")
}

func TestQuizBankService_ListBanks_NonAdminDefaultsToPublic(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	bankRepo.On("List", mock.MatchedBy(func(f repository.BankFilters) bool {
		return f.Visibility == entity.BankVisibilityPublic
	}), 20, 0).Return([]entity.QuizBank{}, int64(0), nil)

	// Act
	_, _, err := svc.ListBanks(repository.BankFilters{}, 1, 20, strangerAccount())

	// Assert
	assert.NoError(t, err)
	bankRepo.AssertExpectations(t)
}

func TestQuizBankService_UpdateBank_ChangesVisibility(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	author := creatorAccount()
	bank := &entity.QuizBank{
		ID:         5,
		Name:       "Geography",
		Visibility: entity.BankVisibilityPrivate,
		AccountID:  author.ID,
	}
	bankRepo.On("GetByID", uint(5)).Return(bank, nil)
	bankRepo.On("Update", bank).Return(nil)

	// Act
	updated, err := svc.UpdateBank(5, "", entity.BankVisibilityPublic, author)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, entity.BankVisibilityPublic, updated.Visibility)
	assert.Equal(t, "Geography", updated.Name, "Пустое имя не должно затирать прежнее")
}

func TestQuizBankService_DeleteBank_AdminAllowed(t *testing.T) {
	// Arrange
	svc, bankRepo, _ := newTestQuizBankService()
	admin := &entity.Account{ID: 42, Username: "admin", Role: "admin"}
	bank := &entity.QuizBank{ID: 5, Visibility: entity.BankVisibilityPrivate, AccountID: 1}
	bankRepo.On("GetByID", uint(5)).Return(bank, nil)
	bankRepo.On("Delete", uint(5)).Return(nil)

	// Act
	err := svc.DeleteBank(5, admin)

	// Assert
	assert.NoError(t, err, "Админ может удалить любой банк")
	bankRepo.AssertExpectations(t)
}
