package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
	"github.com/yourusername/classquiz-api/internal/service/gamegen"
)

// ============================================================================
// Моки репозиториев для GameService
// ============================================================================

// MockGameRepository реализует repository.GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Create(tx *gorm.DB, game *entity.Game) error {
	args := m.Called(tx, game)
	return args.Error(0)
}

func (m *MockGameRepository) GetByID(id uint) (*entity.Game, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepository) GetWithQuizzes(id uint) (*entity.Game, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepository) Update(game *entity.Game) error {
	args := m.Called(game)
	return args.Error(0)
}

func (m *MockGameRepository) UpdateStatus(gameID uint, status string) error {
	args := m.Called(gameID, status)
	return args.Error(0)
}

func (m *MockGameRepository) AtomicTransition(gameID uint, from, to string) error {
	args := m.Called(gameID, from, to)
	return args.Error(0)
}

func (m *MockGameRepository) EndNow(gameID uint) error {
	args := m.Called(gameID)
	return args.Error(0)
}

func (m *MockGameRepository) List(filters repository.GameFilters, limit, offset int) ([]entity.Game, int64, error) {
	args := m.Called(filters, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Game), args.Get(1).(int64), args.Error(2)
}

func (m *MockGameRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockGameQuizRepository реализует repository.GameQuizRepository
type MockGameQuizRepository struct {
	mock.Mock
}

func (m *MockGameQuizRepository) CreateBatch(tx *gorm.DB, quizzes []entity.GameQuiz) error {
	args := m.Called(tx, quizzes)
	return args.Error(0)
}

func (m *MockGameQuizRepository) GetByID(id uint) (*entity.GameQuiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameQuiz), args.Error(1)
}

func (m *MockGameQuizRepository) GetByGameID(gameID uint) ([]entity.GameQuiz, error) {
	args := m.Called(gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GameQuiz), args.Error(1)
}

func (m *MockGameQuizRepository) NextAfter(gameID uint, afterID uint) (*entity.GameQuiz, error) {
	args := m.Called(gameID, afterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameQuiz), args.Error(1)
}

func (m *MockGameQuizRepository) CountByGameID(gameID uint) (int64, error) {
	args := m.Called(gameID)
	return args.Get(0).(int64), args.Error(1)
}

// MockGameRecordRepository реализует repository.GameRecordRepository
type MockGameRecordRepository struct {
	mock.Mock
}

func (m *MockGameRecordRepository) Create(record *entity.GameRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockGameRecordRepository) GetByID(id uint) (*entity.GameRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameRecord), args.Error(1)
}

func (m *MockGameRecordRepository) GetByGameAndAccount(gameID, accountID uint) (*entity.GameRecord, error) {
	args := m.Called(gameID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameRecord), args.Error(1)
}

func (m *MockGameRecordRepository) MarkFinished(recordID uint) error {
	args := m.Called(recordID)
	return args.Error(0)
}

func (m *MockGameRecordRepository) ListByGame(gameID uint, filters repository.RecordFilters, limit, offset int) ([]entity.GameRecord, int64, error) {
	args := m.Called(gameID, filters, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.GameRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockGameRecordRepository) ListByAccount(accountID uint, limit, offset int) ([]entity.GameRecord, int64, error) {
	args := m.Called(accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.GameRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockGameRecordRepository) CountByGame(gameID uint) (int64, error) {
	args := m.Called(gameID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAnswerHistoryRepository реализует repository.AnswerHistoryRepository
type MockAnswerHistoryRepository struct {
	mock.Mock
}

func (m *MockAnswerHistoryRepository) Upsert(history *entity.AnswerHistory) error {
	args := m.Called(history)
	return args.Error(0)
}

func (m *MockAnswerHistoryRepository) GetByRecord(recordID uint) ([]entity.AnswerHistory, error) {
	args := m.Called(recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AnswerHistory), args.Error(1)
}

func (m *MockAnswerHistoryRepository) GetByRecordAndQuiz(recordID, quizID uint) (*entity.AnswerHistory, error) {
	args := m.Called(recordID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AnswerHistory), args.Error(1)
}

func (m *MockAnswerHistoryRepository) CountCorrect(recordID uint) (int64, error) {
	args := m.Called(recordID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnswerHistoryRepository) CountByRecord(recordID uint) (int64, error) {
	args := m.Called(recordID)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuizBankRepository реализует repository.QuizBankRepository
type MockQuizBankRepository struct {
	mock.Mock
}

func (m *MockQuizBankRepository) Create(bank *entity.QuizBank) error {
	args := m.Called(bank)
	return args.Error(0)
}

func (m *MockQuizBankRepository) GetByID(id uint) (*entity.QuizBank, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QuizBank), args.Error(1)
}

func (m *MockQuizBankRepository) GetWithQuizzes(id uint) (*entity.QuizBank, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QuizBank), args.Error(1)
}

func (m *MockQuizBankRepository) Update(bank *entity.QuizBank) error {
	args := m.Called(bank)
	return args.Error(0)
}

func (m *MockQuizBankRepository) List(filters repository.BankFilters, limit, offset int) ([]entity.QuizBank, int64, error) {
	args := m.Called(filters, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.QuizBank), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizBankRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockQuizBankRepository) CountQuizzes(bankID uint) (int64, error) {
	args := m.Called(bankID)
	return args.Get(0).(int64), args.Error(1)
}

// MockClassroomRepository реализует repository.ClassroomRepository
type MockClassroomRepository struct {
	mock.Mock
}

func (m *MockClassroomRepository) GetByID(id uint) (*entity.Classroom, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Classroom), args.Error(1)
}

func (m *MockClassroomRepository) IsMember(classroomID, accountID uint) (bool, error) {
	args := m.Called(classroomID, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClassroomRepository) MemberIDs(classroomID uint) ([]uint, error) {
	args := m.Called(classroomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

// ============================================================================
// Хелперы
// ============================================================================

func intPtr(v int) *int { return &v }

type gameServiceMocks struct {
	gameRepo    *MockGameRepository
	quizRepo    *MockGameQuizRepository
	recordRepo  *MockGameRecordRepository
	historyRepo *MockAnswerHistoryRepository
	bankRepo    *MockQuizBankRepository
	classRepo   *MockClassroomRepository
}

func newTestGameService() (*GameService, *gameServiceMocks) {
	mocks := &gameServiceMocks{
		gameRepo:    new(MockGameRepository),
		quizRepo:    new(MockGameQuizRepository),
		recordRepo:  new(MockGameRecordRepository),
		historyRepo: new(MockAnswerHistoryRepository),
		bankRepo:    new(MockQuizBankRepository),
		classRepo:   new(MockClassroomRepository),
	}

	svc := &GameService{
		gameRepo:    mocks.gameRepo,
		quizRepo:    mocks.quizRepo,
		recordRepo:  mocks.recordRepo,
		historyRepo: mocks.historyRepo,
		bankRepo:    mocks.bankRepo,
		access:      NewAccessPolicy(mocks.bankRepo, mocks.classRepo),
		sampler:     gamegen.NewSeededSampler(nil, 1),
		notifier:    &NoopNotifier{},
		broadcaster: nil,
		// Шаги выполняются без реальной транзакции, атомарность
		// проверяется на уровне репозиториев
		transact: func(fn func(tx *gorm.DB) error) error {
			return fn(nil)
		},
	}
	return svc, mocks
}

// creatorAccount - создатель игры имеет полный доступ без обращений к банку
func creatorAccount() *entity.Account {
	return &entity.Account{ID: 1, Username: "teacher", Role: entity.RoleUser}
}

func strangerAccount() *entity.Account {
	return &entity.Account{ID: 99, Username: "stranger", Role: entity.RoleUser}
}

// ongoingGame возвращает игру, чей статус устойчив к ленивому пересчету
func ongoingGame() *entity.Game {
	now := time.Now()
	return &entity.Game{
		ID:         10,
		Name:       "Контрольная по истории",
		QuizBankID: 5,
		Status:     entity.GameStatusOnGoing,
		StartTime:  now.Add(-time.Hour),
		EndTime:    now.Add(time.Hour),
		CreatedBy:  1,
	}
}

func createdGame() *entity.Game {
	now := time.Now()
	return &entity.Game{
		ID:         10,
		Name:       "Контрольная по истории",
		QuizBankID: 5,
		Status:     entity.GameStatusCreated,
		StartTime:  now.Add(time.Hour),
		EndTime:    now.Add(2 * time.Hour),
		CreatedBy:  1,
	}
}

// ============================================================================
// Тесты: состояния игры
// ============================================================================

func TestGameService_StartGame_FromCreated(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	game := createdGame()
	mocks.gameRepo.On("GetByID", uint(10)).Return(game, nil)
	mocks.gameRepo.On("AtomicTransition", uint(10), entity.GameStatusCreated, entity.GameStatusOnGoing).Return(nil)

	// Act
	started, err := svc.StartGame(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.GameStatusOnGoing, started.Status, "Старт переводит игру в ongoing")
	mocks.gameRepo.AssertExpectations(t)
}

func TestGameService_StartGame_NotCreated(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)

	// Act
	_, err := svc.StartGame(10, creatorAccount())

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Повторный старт - конфликт состояния")
	mocks.gameRepo.AssertNotCalled(t, "AtomicTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestGameService_EndGame_FromOnGoing(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.gameRepo.On("EndNow", uint(10)).Return(nil)

	// Act
	ended, err := svc.EndGame(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.GameStatusEnded, ended.Status)
	mocks.gameRepo.AssertExpectations(t)
}

func TestGameService_EndGame_NotOnGoing(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(createdGame(), nil)

	// Act
	_, err := svc.EndGame(10, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Завершить можно только идущую игру")
}

func TestGameService_GetGame_LazyStatusRecompute(t *testing.T) {
	// Arrange: окно игры уже прошло, но в БД статус created
	now := time.Now()
	game := &entity.Game{
		ID:         10,
		QuizBankID: 5,
		Status:     entity.GameStatusCreated,
		StartTime:  now.Add(-2 * time.Hour),
		EndTime:    now.Add(-time.Hour),
		CreatedBy:  1,
	}
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(game, nil)
	mocks.gameRepo.On("UpdateStatus", uint(10), entity.GameStatusEnded).Return(nil)

	// Act
	got, err := svc.GetGame(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.GameStatusEnded, got.Status, "Чтение пересчитывает и персистит статус")
	mocks.gameRepo.AssertExpectations(t)
}

func TestGameService_GetGame_UnauthorizedForPrivateBank(t *testing.T) {
	// Arrange: чужая игра на приватном банке без класса
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.bankRepo.On("GetByID", uint(5)).Return(&entity.QuizBank{
		ID: 5, Visibility: entity.BankVisibilityPrivate, AccountID: 1,
	}, nil)

	// Act
	_, err := svc.GetGame(10, strangerAccount())

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "Отказ в правах, а не not found")
}

func TestGameService_GetGame_PublicBankAllowsRead(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.bankRepo.On("GetByID", uint(5)).Return(&entity.QuizBank{
		ID: 5, Visibility: entity.BankVisibilityPublic, AccountID: 1,
	}, nil)

	// Act
	got, err := svc.GetGame(10, strangerAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(10), got.ID)
}

func TestGameService_StartGame_PublicBankDoesNotAllowManage(t *testing.T) {
	// Arrange: публичный банк дает чтение, но не управление
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(createdGame(), nil)
	mocks.bankRepo.On("GetByID", uint(5)).Return(&entity.QuizBank{
		ID: 5, Visibility: entity.BankVisibilityPublic, AccountID: 1,
	}, nil)

	// Act
	_, err := svc.StartGame(10, strangerAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// ============================================================================
// Тесты: участие
// ============================================================================

func TestGameService_JoinGame_CreatesRecord(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(nil, apperrors.ErrNotFound)
	mocks.recordRepo.On("Create", mock.MatchedBy(func(r *entity.GameRecord) bool {
		return r.GameID == 10 && r.AccountID == 1 && !r.IsFinished
	})).Return(nil)

	// Act
	record, err := svc.JoinGame(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(10), record.GameID)
	mocks.recordRepo.AssertExpectations(t)
}

func TestGameService_JoinGame_NotOnGoing(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(createdGame(), nil)

	// Act
	_, err := svc.JoinGame(10, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Join до старта игры запрещен")
	mocks.recordRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestGameService_JoinGame_NoRejoinAfterFinish(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1, IsFinished: true,
	}, nil)

	// Act
	_, err := svc.JoinGame(10, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Повторный join после завершения запрещен")
	mocks.recordRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestGameService_JoinGame_ReusesActiveRecord(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	firstJoin := time.Now().Add(-3 * time.Minute)
	existing := &entity.GameRecord{ID: 3, GameID: 10, AccountID: 1, CreatedAt: firstJoin}
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(existing, nil)

	// Act
	record, err := svc.JoinGame(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, existing, record, "Активная запись переиспользуется")
	assert.Equal(t, firstJoin, record.CreatedAt,
		"Повторный join не сдвигает персональные часы: окно отсчитывается от первого входа")
	mocks.recordRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestGameService_NextQuiz_SequentialNavigation(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	quiz := &entity.GameQuiz{ID: 21, GameID: 10, Type: entity.QuizTypeMultipleChoice}
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1,
	}, nil)
	mocks.quizRepo.On("NextAfter", uint(10), uint(20)).Return(quiz, nil)

	// Act
	got, err := svc.NextQuiz(10, 20, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(21), got.ID)
}

func TestGameService_NextQuiz_ExhaustedMarksFinished(t *testing.T) {
	// Arrange: вопросов больше нет - запись завершается
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1,
	}, nil)
	mocks.quizRepo.On("NextAfter", uint(10), uint(99)).Return(nil, apperrors.ErrNotFound)
	mocks.recordRepo.On("MarkFinished", uint(3)).Return(nil)

	// Act
	got, err := svc.NextQuiz(10, 99, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got, "Исчерпание вопросов возвращает nil без ошибки")
	mocks.recordRepo.AssertCalled(t, "MarkFinished", uint(3))
}

// ============================================================================
// Тесты: проверка ответов
// ============================================================================

func TestGameService_AddAnswerHistory_GradesAndUpserts(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	quiz := &entity.GameQuiz{
		ID:             21,
		GameID:         10,
		CorrectAnswers: entity.StringArray{"A", "C"},
		Type:           entity.QuizTypeDnd,
	}
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1, CreatedAt: time.Now(),
	}, nil)
	mocks.quizRepo.On("GetByID", uint(21)).Return(quiz, nil)
	mocks.historyRepo.On("Upsert", mock.MatchedBy(func(h *entity.AnswerHistory) bool {
		return h.GameRecordID == 3 && h.GameQuizID == 21
	})).Return(nil)

	// Act: сначала неверный ответ, затем верный
	wrong, err := svc.AddAnswerHistory(10, 21, []string{"A", "B"}, creatorAccount())
	require.NoError(t, err)
	right, err := svc.AddAnswerHistory(10, 21, []string{"A", "C"}, creatorAccount())
	require.NoError(t, err)

	// Assert
	assert.False(t, wrong.IsCorrect, `["A","B"] против ["A","C"] неверен`)
	assert.True(t, right.IsCorrect, `["A","C"] против ["A","C"] верен`)
}

func TestGameService_AddAnswerHistory_TimeExpired(t *testing.T) {
	// Arrange: лимит 10 минут, сессия началась 11 минут назад
	svc, mocks := newTestGameService()
	game := ongoingGame()
	game.DurationMin = intPtr(10)
	mocks.gameRepo.On("GetByID", uint(10)).Return(game, nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1, CreatedAt: time.Now().Add(-11 * time.Minute),
	}, nil)

	// Act
	_, err := svc.AddAnswerHistory(10, 21, []string{"A"}, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrTimeExpired, "Ответ после дедлайна отклоняется")
	mocks.historyRepo.AssertNotCalled(t, "Upsert", mock.Anything)
}

func TestGameService_AddAnswerHistory_WithinDeadline(t *testing.T) {
	// Arrange: лимит 10 минут, сессия началась 9 минут назад
	svc, mocks := newTestGameService()
	game := ongoingGame()
	game.DurationMin = intPtr(10)
	quiz := &entity.GameQuiz{ID: 21, GameID: 10, CorrectAnswers: entity.StringArray{"A"}}
	mocks.gameRepo.On("GetByID", uint(10)).Return(game, nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1, CreatedAt: time.Now().Add(-9 * time.Minute),
	}, nil)
	mocks.quizRepo.On("GetByID", uint(21)).Return(quiz, nil)
	mocks.historyRepo.On("Upsert", mock.Anything).Return(nil)

	// Act
	history, err := svc.AddAnswerHistory(10, 21, []string{"A"}, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.True(t, history.IsCorrect)
}

func TestGameService_AddAnswerHistory_QuizFromAnotherGame(t *testing.T) {
	// Arrange: вопрос существует, но принадлежит другой игре
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1, CreatedAt: time.Now(),
	}, nil)
	mocks.quizRepo.On("GetByID", uint(77)).Return(&entity.GameQuiz{ID: 77, GameID: 42}, nil)

	// Act
	_, err := svc.AddAnswerHistory(10, 77, []string{"A"}, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "Чужой вопрос выглядит как отсутствующий")
}

func TestGameService_AddAnswerHistory_FinishedRecord(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1, IsFinished: true, CreatedAt: time.Now(),
	}, nil)

	// Act
	_, err := svc.AddAnswerHistory(10, 21, []string{"A"}, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict, "После завершения записи ответы не принимаются")
}

// ============================================================================
// Тесты: проекции
// ============================================================================

func TestGameService_GetOwnRecord_DerivesTotalMark(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(&entity.GameRecord{
		ID: 3, GameID: 10, AccountID: 1,
	}, nil)
	mocks.historyRepo.On("CountCorrect", uint(3)).Return(int64(7), nil)
	mocks.historyRepo.On("CountByRecord", uint(3)).Return(int64(10), nil)

	// Act
	summary, err := svc.GetOwnRecord(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(7), summary.TotalMark, "TotalMark - производный счетчик верных ответов")
	assert.Equal(t, int64(10), summary.Answered)
}

func TestGameService_GetAnswerHistory_OthersRequireManage(t *testing.T) {
	// Arrange: участник пытается читать чужие ответы
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.bankRepo.On("GetByID", uint(5)).Return(&entity.QuizBank{
		ID: 5, Visibility: entity.BankVisibilityPublic, AccountID: 1,
	}, nil)

	// Act
	_, err := svc.GetAnswerHistory(10, 1, strangerAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "Чужая история требует прав управления")
}

func TestGameService_ListGames_NonAdminSeesOwnOnly(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	account := creatorAccount()
	mocks.gameRepo.On("List", mock.MatchedBy(func(f repository.GameFilters) bool {
		return f.CreatedBy != nil && *f.CreatedBy == account.ID
	}), 20, 0).Return([]entity.Game{}, int64(0), nil)

	// Act
	_, _, err := svc.ListGames(repository.GameFilters{}, 1, 20, account)

	// Assert
	require.NoError(t, err)
	mocks.gameRepo.AssertExpectations(t)
}

// ============================================================================
// Тесты: создание игры
// ============================================================================

// sampleBank - банк с запасом вопросов для синтеза
func sampleBank(visibility string) *entity.QuizBank {
	return &entity.QuizBank{
		ID:         5,
		Name:       "История",
		Visibility: visibility,
		AccountID:  1,
		Quizzes: []entity.Quiz{
			{ID: 1, Question: "Год основания Рима?", Answer: "753 до н.э."},
			{ID: 2, Question: "Столица Византии?", Answer: "Константинополь"},
			{ID: 3, Question: "Год падения Берлинской стены?", Answer: "1989"},
			{ID: 4, Question: "Первый император Рима?", Answer: "Октавиан Август"},
		},
	}
}

func TestGameService_CreateGame_PersistsGameWithQuizzes(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	creator := creatorAccount()
	now := time.Now()
	mocks.bankRepo.On("GetWithQuizzes", uint(5)).Return(sampleBank(entity.BankVisibilityPrivate), nil)
	mocks.gameRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Game")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.Game).ID = 10
		}).Return(nil)
	mocks.quizRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(quizzes []entity.GameQuiz) bool {
		if len(quizzes) != 2 {
			return false
		}
		for _, quiz := range quizzes {
			if quiz.GameID != 10 {
				return false
			}
		}
		return true
	})).Return(nil)

	// Act
	game, err := svc.CreateGame(CreateGameParams{
		Name:            "Контрольная по истории",
		QuizBankID:      5,
		NumberOfQuizzes: 2,
		QuizTypes:       []string{entity.QuizTypeConstructedResponse},
		StartTime:       now.Add(time.Hour),
		EndTime:         now.Add(2 * time.Hour),
	}, creator)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(10), game.ID, "Игра должна получить id из репозитория")
	assert.Equal(t, entity.GameStatusCreated, game.Status, "Новая игра стартует в created")
	assert.Equal(t, creator.ID, game.CreatedBy)
	mocks.gameRepo.AssertExpectations(t)
	mocks.quizRepo.AssertExpectations(t)
}

func TestGameService_CreateGame_PrivateBankDeniedToStranger(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	now := time.Now()
	mocks.bankRepo.On("GetWithQuizzes", uint(5)).Return(sampleBank(entity.BankVisibilityPrivate), nil)

	// Act
	_, err := svc.CreateGame(CreateGameParams{
		Name:            "Чужая игра",
		QuizBankID:      5,
		NumberOfQuizzes: 2,
		QuizTypes:       []string{entity.QuizTypeConstructedResponse},
		StartTime:       now.Add(time.Hour),
		EndTime:         now.Add(2 * time.Hour),
	}, strangerAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "Чужой приватный банк не годится для создания игры")
	mocks.gameRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGameService_CreateGame_InvalidWindow(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	now := time.Now()

	// Act: окно игры закрывается раньше, чем открывается
	_, err := svc.CreateGame(CreateGameParams{
		Name:            "Контрольная",
		QuizBankID:      5,
		NumberOfQuizzes: 2,
		QuizTypes:       []string{entity.QuizTypeConstructedResponse},
		StartTime:       now.Add(2 * time.Hour),
		EndTime:         now.Add(time.Hour),
	}, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mocks.bankRepo.AssertNotCalled(t, "GetWithQuizzes", mock.Anything)
}

// ============================================================================
// Тесты: пакетная сдача теста
// ============================================================================

func gameQuizzesForSubmit() []entity.GameQuiz {
	return []entity.GameQuiz{
		{
			ID:             100,
			GameID:         10,
			Questions:      []string{"Столица Франции?"},
			CorrectAnswers: []string{"Париж"},
			Type:           entity.QuizTypeConstructedResponse,
		},
		{
			ID:             101,
			GameID:         10,
			Questions:      []string{"Сколько будет 2+2?"},
			CorrectAnswers: []string{"4"},
			Type:           entity.QuizTypeConstructedResponse,
		},
	}
}

func TestGameService_SubmitTest_GradesAndFinishesRecord(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	record := &entity.GameRecord{ID: 70, GameID: 10, AccountID: 1, CreatedAt: time.Now().Add(-5 * time.Minute)}
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(record, nil)
	mocks.quizRepo.On("GetByGameID", uint(10)).Return(gameQuizzesForSubmit(), nil)
	mocks.historyRepo.On("Upsert", mock.MatchedBy(func(h *entity.AnswerHistory) bool {
		return h.GameQuizID == 100 && h.IsCorrect
	})).Return(nil).Once()
	mocks.historyRepo.On("Upsert", mock.MatchedBy(func(h *entity.AnswerHistory) bool {
		return h.GameQuizID == 101 && !h.IsCorrect
	})).Return(nil).Once()
	mocks.recordRepo.On("MarkFinished", uint(70)).Return(nil)

	// Act
	result, err := svc.SubmitTest(10, []AnswerSubmission{
		{GameQuizID: 100, UserAnswer: []string{"Париж"}},
		{GameQuizID: 101, UserAnswer: []string{"5"}},
	}, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Correct, "Засчитан только совпавший ответ")
	mocks.historyRepo.AssertExpectations(t)
	mocks.recordRepo.AssertExpectations(t)
}

func TestGameService_SubmitTest_UnknownQuiz(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	record := &entity.GameRecord{ID: 70, GameID: 10, AccountID: 1, CreatedAt: time.Now().Add(-5 * time.Minute)}
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(record, nil)
	mocks.quizRepo.On("GetByGameID", uint(10)).Return(gameQuizzesForSubmit(), nil)

	// Act: ответ ссылается на вопрос другой игры
	_, err := svc.SubmitTest(10, []AnswerSubmission{
		{GameQuizID: 999, UserAnswer: []string{"Париж"}},
	}, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	mocks.historyRepo.AssertNotCalled(t, "Upsert", mock.Anything)
	mocks.recordRepo.AssertNotCalled(t, "MarkFinished", mock.Anything)
}

func TestGameService_SubmitTest_TimeExpired(t *testing.T) {
	// Arrange: персональный лимит 10 минут, сдача через 11
	svc, mocks := newTestGameService()
	game := ongoingGame()
	game.DurationMin = intPtr(10)
	record := &entity.GameRecord{ID: 70, GameID: 10, AccountID: 1, CreatedAt: time.Now().Add(-11 * time.Minute)}
	mocks.gameRepo.On("GetByID", uint(10)).Return(game, nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(record, nil)

	// Act
	_, err := svc.SubmitTest(10, []AnswerSubmission{
		{GameQuizID: 100, UserAnswer: []string{"Париж"}},
	}, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrTimeExpired, "Просроченная пакетная сдача отклоняется целиком")
	mocks.quizRepo.AssertNotCalled(t, "GetByGameID", mock.Anything)
}

func TestGameService_SubmitTest_FinishedRecordConflict(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	record := &entity.GameRecord{ID: 70, GameID: 10, AccountID: 1, IsFinished: true}
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.recordRepo.On("GetByGameAndAccount", uint(10), uint(1)).Return(record, nil)

	// Act
	_, err := svc.SubmitTest(10, []AnswerSubmission{
		{GameQuizID: 100, UserAnswer: []string{"Париж"}},
	}, creatorAccount())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Повторная сдача завершенной записи запрещена")
}

// ============================================================================
// Тесты: показ эталонных ответов
// ============================================================================

func TestGameService_GetQuizzes_RevealsAnswersAfterGameEnds(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	now := time.Now()
	game := &entity.Game{
		ID:         10,
		QuizBankID: 5,
		Status:     entity.GameStatusEnded,
		StartTime:  now.Add(-2 * time.Hour),
		EndTime:    now.Add(-time.Hour),
		CreatedBy:  1,
	}
	mocks.gameRepo.On("GetByID", uint(10)).Return(game, nil)
	mocks.quizRepo.On("GetByGameID", uint(10)).Return(gameQuizzesForSubmit(), nil)

	// Act
	quizzes, revealAnswers, err := svc.GetQuizzes(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.Len(t, quizzes, 2)
	assert.True(t, revealAnswers, "После окончания обычной игры эталонные ответы открыты для разбора")
}

func TestGameService_GetQuizzes_NeverRevealsForTest(t *testing.T) {
	// Arrange: завершенный тест - ответы остаются скрытыми
	svc, mocks := newTestGameService()
	now := time.Now()
	game := &entity.Game{
		ID:         10,
		QuizBankID: 5,
		Status:     entity.GameStatusEnded,
		StartTime:  now.Add(-2 * time.Hour),
		EndTime:    now.Add(-time.Hour),
		IsTest:     true,
		CreatedBy:  1,
	}
	mocks.gameRepo.On("GetByID", uint(10)).Return(game, nil)
	mocks.quizRepo.On("GetByGameID", uint(10)).Return(gameQuizzesForSubmit(), nil)

	// Act
	_, revealAnswers, err := svc.GetQuizzes(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.False(t, revealAnswers, "Для теста эталонные ответы не раскрываются и после окончания")
}

func TestGameService_GetQuizzes_HiddenWhileOngoing(t *testing.T) {
	// Arrange
	svc, mocks := newTestGameService()
	mocks.gameRepo.On("GetByID", uint(10)).Return(ongoingGame(), nil)
	mocks.quizRepo.On("GetByGameID", uint(10)).Return(gameQuizzesForSubmit(), nil)

	// Act
	_, revealAnswers, err := svc.GetQuizzes(10, creatorAccount())

	// Assert
	require.NoError(t, err)
	assert.False(t, revealAnswers, "Во время игры эталонные ответы скрыты")
}
