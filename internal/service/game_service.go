package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/classquiz-api/internal/pkg/errors"
	"github.com/yourusername/classquiz-api/internal/service/gamegen"
)

// События игры для websocket-рассылки
const (
	EventGameStarted  = "game:started"
	EventGameEnded    = "game:ended"
	EventPlayerJoined = "game:player_joined"
	EventPlayerLeft   = "game:player_left"
)

// GameEventBroadcaster рассылает события игры подключенным клиентам
type GameEventBroadcaster interface {
	BroadcastToGame(gameID uint, eventType string, data interface{}) error
}

// CreateGameParams описывает параметры создания игры
type CreateGameParams struct {
	Name            string
	ClassroomID     *uint
	QuizBankID      uint
	NumberOfQuizzes int
	QuizTypes       []string
	StartTime       time.Time
	EndTime         time.Time
	DurationMin     *int
	IsTest          bool
}

// AnswerSubmission - один ответ в пакетной отправке теста
type AnswerSubmission struct {
	GameQuizID uint
	UserAnswer []string
}

// SubmitResult - итог пакетной отправки теста
type SubmitResult struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// RecordSummary - запись участия с производным баллом.
// TotalMark не хранится, а считается по верным ответам.
type RecordSummary struct {
	Record    entity.GameRecord `json:"record"`
	TotalMark int64             `json:"total_mark"`
	Answered  int64             `json:"answered"`
}

// GameService управляет жизненным циклом игровых сессий
type GameService struct {
	gameRepo    repository.GameRepository
	quizRepo    repository.GameQuizRepository
	recordRepo  repository.GameRecordRepository
	historyRepo repository.AnswerHistoryRepository
	bankRepo    repository.QuizBankRepository
	access      *AccessPolicy
	sampler     *gamegen.Sampler
	notifier    Notifier
	broadcaster GameEventBroadcaster

	// transact выполняет fn в транзакции БД
	transact func(fn func(tx *gorm.DB) error) error
}

// NewGameService создает новый сервис игр
func NewGameService(
	gameRepo repository.GameRepository,
	quizRepo repository.GameQuizRepository,
	recordRepo repository.GameRecordRepository,
	historyRepo repository.AnswerHistoryRepository,
	bankRepo repository.QuizBankRepository,
	access *AccessPolicy,
	sampler *gamegen.Sampler,
	notifier Notifier,
	broadcaster GameEventBroadcaster,
	db *gorm.DB,
) *GameService {
	return &GameService{
		gameRepo:    gameRepo,
		quizRepo:    quizRepo,
		recordRepo:  recordRepo,
		historyRepo: historyRepo,
		bankRepo:    bankRepo,
		access:      access,
		sampler:     sampler,
		notifier:    notifier,
		broadcaster: broadcaster,
		transact: func(fn func(tx *gorm.DB) error) error {
			return db.Transaction(fn)
		},
	}
}

// CreateGame создает игру: выбирает вопросы из банка, синтезирует их по
// типам и атомарно сохраняет игру вместе с вопросами. Анонс участникам
// класса уходит асинхронно после коммита.
func (s *GameService) CreateGame(params CreateGameParams, creator *entity.Account) (*entity.Game, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("%w: game name is required", apperrors.ErrValidation)
	}
	if !params.EndTime.After(params.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", apperrors.ErrValidation)
	}
	if params.DurationMin != nil && *params.DurationMin <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", apperrors.ErrValidation)
	}

	// Банк должен существовать и быть доступным создателю
	bank, err := s.bankRepo.GetWithQuizzes(params.QuizBankID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("quiz bank #%d not found: %w", params.QuizBankID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load quiz bank: %w", err)
	}
	if err := s.access.CheckBank(bank, creator, AccessRead); err != nil {
		return nil, err
	}

	// Синтезируем вопросы до открытия транзакции
	quizzes, err := s.sampler.Synthesize(bank.Quizzes, params.NumberOfQuizzes, params.QuizTypes)
	if err != nil {
		return nil, err
	}

	game := &entity.Game{
		Name:            params.Name,
		ClassroomID:     params.ClassroomID,
		QuizBankID:      params.QuizBankID,
		NumberOfQuizzes: params.NumberOfQuizzes,
		Status:          entity.GameStatusCreated,
		StartTime:       params.StartTime,
		EndTime:         params.EndTime,
		DurationMin:     params.DurationMin,
		IsTest:          params.IsTest,
		CreatedBy:       creator.ID,
	}

	err = s.transact(func(tx *gorm.DB) error {
		if err := s.gameRepo.Create(tx, game); err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}
		for i := range quizzes {
			quizzes[i].GameID = game.ID
		}
		if err := s.quizRepo.CreateBatch(tx, quizzes); err != nil {
			return fmt.Errorf("failed to create game quizzes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GameService] Игра %d создана: банк=%d, вопросов=%d, типы=%v",
		game.ID, params.QuizBankID, len(quizzes), params.QuizTypes)

	// Анонс не должен блокировать и ронять создание игры
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.GameCreated(ctx, game); err != nil {
			log.Printf("[GameService] Ошибка рассылки анонса игры %d: %v", game.ID, err)
		}
	}()

	return game, nil
}

// GetGame возвращает игру с актуальным статусом после проверки прав.
// Статус пересчитывается лениво на каждом чтении.
func (s *GameService) GetGame(gameID uint, account *entity.Account) (*entity.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessRead); err != nil {
		return nil, err
	}
	return game, nil
}

// ListGames возвращает игры с фильтрами и пагинацией.
// Не-админ видит только собственные игры.
func (s *GameService) ListGames(filters repository.GameFilters, page, pageSize int, account *entity.Account) ([]entity.Game, int64, error) {
	if !account.IsAdmin() {
		filters.CreatedBy = &account.ID
	}
	offset := (page - 1) * pageSize
	games, total, err := s.gameRepo.List(filters, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range games {
		s.refreshStatus(&games[i])
	}
	return games, total, nil
}

// StartGame вручную запускает игру. Разрешено только из created.
func (s *GameService) StartGame(gameID uint, account *entity.Account) (*entity.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessManage); err != nil {
		return nil, err
	}
	if !game.IsCreated() {
		return nil, fmt.Errorf("%w: cannot start game in status %s", apperrors.ErrConflict, game.Status)
	}

	if err := s.gameRepo.AtomicTransition(gameID, entity.GameStatusCreated, entity.GameStatusOnGoing); err != nil {
		return nil, err
	}
	game.Status = entity.GameStatusOnGoing

	log.Printf("[GameService] Игра %d запущена вручную аккаунтом %d", gameID, account.ID)
	s.broadcast(gameID, EventGameStarted, game)

	return game, nil
}

// EndGame вручную завершает игру. Разрешено только из ongoing.
// EndTime фиксируется моментом завершения.
func (s *GameService) EndGame(gameID uint, account *entity.Account) (*entity.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessManage); err != nil {
		return nil, err
	}
	if !game.IsOnGoing() {
		return nil, fmt.Errorf("%w: cannot end game in status %s", apperrors.ErrConflict, game.Status)
	}

	if err := s.gameRepo.EndNow(gameID); err != nil {
		return nil, err
	}
	game.Status = entity.GameStatusEnded
	game.EndTime = time.Now()

	log.Printf("[GameService] Игра %d завершена вручную аккаунтом %d", gameID, account.ID)
	s.broadcast(gameID, EventGameEnded, game)

	return game, nil
}

// DeleteGame удаляет игру вместе с вопросами и записями участия
func (s *GameService) DeleteGame(gameID uint, account *entity.Account) error {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessManage); err != nil {
		return err
	}
	if game.IsOnGoing() {
		return fmt.Errorf("%w: cannot delete an ongoing game", apperrors.ErrConflict)
	}
	return s.gameRepo.Delete(gameID)
}

// JoinGame подключает аккаунт к идущей игре. Повторный вызов до
// завершения записи возвращает существующую запись, после - отказ.
// CreatedAt записи - старт персональной сессии для лимита времени.
func (s *GameService) JoinGame(gameID uint, account *entity.Account) (*entity.GameRecord, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessRead); err != nil {
		return nil, err
	}
	if !game.IsOnGoing() {
		return nil, fmt.Errorf("%w: game #%d is not ongoing", apperrors.ErrConflict, gameID)
	}

	record, err := s.recordRepo.GetByGameAndAccount(gameID, account.ID)
	if err == nil {
		if record.IsFinished {
			return nil, fmt.Errorf("%w: account #%d already finished game #%d",
				apperrors.ErrConflict, account.ID, gameID)
		}
		return record, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	record = &entity.GameRecord{
		GameID:    gameID,
		AccountID: account.ID,
	}
	if err := s.recordRepo.Create(record); err != nil {
		// Конкурентный join: запись уже создана параллельным запросом
		if errors.Is(err, apperrors.ErrConflict) {
			return s.recordRepo.GetByGameAndAccount(gameID, account.ID)
		}
		return nil, err
	}

	log.Printf("[GameService] Аккаунт %d присоединился к игре %d", account.ID, gameID)
	s.broadcast(gameID, EventPlayerJoined, map[string]interface{}{
		"game_id":    gameID,
		"account_id": account.ID,
		"username":   account.Username,
	})

	return record, nil
}

// NextQuiz возвращает следующий вопрос после currentQuizID в порядке
// создания (currentQuizID=0 - первый вопрос). Когда вопросы исчерпаны,
// запись участия помечается завершенной и возвращается nil.
func (s *GameService) NextQuiz(gameID uint, currentQuizID uint, account *entity.Account) (*entity.GameQuiz, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessRead); err != nil {
		return nil, err
	}

	record, err := s.recordRepo.GetByGameAndAccount(gameID, account.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: join the game before requesting quizzes", apperrors.ErrNotFound)
		}
		return nil, err
	}
	if record.IsFinished {
		return nil, fmt.Errorf("%w: game record is already finished", apperrors.ErrConflict)
	}

	quiz, err := s.quizRepo.NextAfter(gameID, currentQuizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Вопросы кончились: завершаем персональную сессию
			if err := s.recordRepo.MarkFinished(record.ID); err != nil && !errors.Is(err, apperrors.ErrConflict) {
				return nil, err
			}
			log.Printf("[GameService] Аккаунт %d прошел все вопросы игры %d", account.ID, gameID)
			return nil, nil
		}
		return nil, err
	}

	return quiz, nil
}

// GetQuizzes возвращает все вопросы игры в порядке создания.
// Второй результат разрешает показ эталонных ответов: после завершения
// обычной игры участники разбирают вопросы, для тестов ответы скрыты всегда.
func (s *GameService) GetQuizzes(gameID uint, account *entity.Account) ([]entity.GameQuiz, bool, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, false, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessRead); err != nil {
		return nil, false, err
	}

	quizzes, err := s.quizRepo.GetByGameID(gameID)
	if err != nil {
		return nil, false, err
	}
	revealAnswers := game.IsEnded() && !game.IsTest
	return quizzes, revealAnswers, nil
}

// AddAnswerHistory проверяет и сохраняет ответ на один вопрос.
// Повторная отправка до завершения записи перезаписывает прежний ответ.
func (s *GameService) AddAnswerHistory(gameID, quizID uint, userAnswer []string, account *entity.Account) (*entity.AnswerHistory, error) {
	game, record, err := s.gradableRecord(gameID, account)
	if err != nil {
		return nil, err
	}

	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil || quiz.GameID != game.ID {
		if err == nil || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("quiz #%d not found in game #%d: %w", quizID, gameID, apperrors.ErrNotFound)
		}
		return nil, err
	}

	history := &entity.AnswerHistory{
		GameRecordID: record.ID,
		GameQuizID:   quiz.ID,
		UserAnswer:   userAnswer,
		IsCorrect:    quiz.Grade(userAnswer),
	}
	if err := s.historyRepo.Upsert(history); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	return history, nil
}

// SubmitTest пакетно проверяет и сохраняет ответы, затем завершает
// запись участия. Сохранение ответов и завершение атомарны.
func (s *GameService) SubmitTest(gameID uint, answers []AnswerSubmission, account *entity.Account) (*SubmitResult, error) {
	game, record, err := s.gradableRecord(gameID, account)
	if err != nil {
		return nil, err
	}

	quizzes, err := s.quizRepo.GetByGameID(gameID)
	if err != nil {
		return nil, err
	}
	quizByID := make(map[uint]*entity.GameQuiz, len(quizzes))
	for i := range quizzes {
		quizByID[quizzes[i].ID] = &quizzes[i]
	}

	result := &SubmitResult{Total: len(answers)}
	histories := make([]entity.AnswerHistory, 0, len(answers))
	for _, answer := range answers {
		quiz, ok := quizByID[answer.GameQuizID]
		if !ok {
			return nil, fmt.Errorf("quiz #%d not found in game #%d: %w",
				answer.GameQuizID, game.ID, apperrors.ErrNotFound)
		}
		isCorrect := quiz.Grade(answer.UserAnswer)
		if isCorrect {
			result.Correct++
		}
		histories = append(histories, entity.AnswerHistory{
			GameRecordID: record.ID,
			GameQuizID:   quiz.ID,
			UserAnswer:   answer.UserAnswer,
			IsCorrect:    isCorrect,
		})
	}

	err = s.transact(func(tx *gorm.DB) error {
		for i := range histories {
			if err := s.historyRepo.Upsert(&histories[i]); err != nil {
				return fmt.Errorf("failed to save answer for quiz #%d: %w", histories[i].GameQuizID, err)
			}
		}
		return s.recordRepo.MarkFinished(record.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GameService] Аккаунт %d сдал тест игры %d: %d/%d",
		account.ID, gameID, result.Correct, result.Total)

	return result, nil
}

// gradableRecord выполняет общие проверки путей отправки ответов:
// игра существует, доступ есть, запись участия активна и не просрочена.
func (s *GameService) gradableRecord(gameID uint, account *entity.Account) (*entity.Game, *entity.GameRecord, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, nil, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessRead); err != nil {
		return nil, nil, err
	}

	record, err := s.recordRepo.GetByGameAndAccount(gameID, account.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: join the game before answering", apperrors.ErrNotFound)
		}
		return nil, nil, err
	}
	if record.IsFinished {
		return nil, nil, fmt.Errorf("%w: game record is already finished", apperrors.ErrConflict)
	}
	if !record.WithinDeadline(game, time.Now()) {
		return nil, nil, fmt.Errorf("%w: submission window closed for record #%d",
			apperrors.ErrTimeExpired, record.ID)
	}

	return game, record, nil
}

// GetGameRecords возвращает записи участия игры с производными баллами
func (s *GameService) GetGameRecords(gameID uint, filters repository.RecordFilters, page, pageSize int, account *entity.Account) ([]RecordSummary, int64, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, 0, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessManage); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	records, total, err := s.recordRepo.ListByGame(gameID, filters, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	summaries, err := s.summarize(records)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// GetOwnRecord возвращает запись участия вызывающего с производным баллом
func (s *GameService) GetOwnRecord(gameID uint, account *entity.Account) (*RecordSummary, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(game)
	if err := s.access.CheckGame(game, account, AccessRead); err != nil {
		return nil, err
	}

	record, err := s.recordRepo.GetByGameAndAccount(gameID, account.ID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.summarize([]entity.GameRecord{*record})
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

// GetAnswerHistory возвращает ответы участника targetAccountID.
// Свои ответы видит каждый участник, чужие - только управляющий игрой.
func (s *GameService) GetAnswerHistory(gameID, targetAccountID uint, account *entity.Account) ([]entity.AnswerHistory, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(game)

	level := AccessRead
	if targetAccountID != account.ID {
		level = AccessManage
	}
	if err := s.access.CheckGame(game, account, level); err != nil {
		return nil, err
	}

	record, err := s.recordRepo.GetByGameAndAccount(gameID, targetAccountID)
	if err != nil {
		return nil, err
	}
	return s.historyRepo.GetByRecord(record.ID)
}

// GetGameHistory возвращает историю участия аккаунта (новые первыми)
func (s *GameService) GetGameHistory(account *entity.Account, page, pageSize int) ([]RecordSummary, int64, error) {
	offset := (page - 1) * pageSize
	records, total, err := s.recordRepo.ListByAccount(account.ID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	summaries, err := s.summarize(records)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// LeaveGame снимает участника с игры до завершения записи
func (s *GameService) LeaveGame(gameID uint, account *entity.Account) error {
	record, err := s.recordRepo.GetByGameAndAccount(gameID, account.ID)
	if err != nil {
		return err
	}
	if record.IsFinished {
		return fmt.Errorf("%w: cannot leave a finished game record", apperrors.ErrConflict)
	}

	s.broadcast(gameID, EventPlayerLeft, map[string]interface{}{
		"game_id":    gameID,
		"account_id": account.ID,
	})
	return nil
}

func (s *GameService) summarize(records []entity.GameRecord) ([]RecordSummary, error) {
	summaries := make([]RecordSummary, 0, len(records))
	for _, record := range records {
		mark, err := s.historyRepo.CountCorrect(record.ID)
		if err != nil {
			return nil, err
		}
		answered, err := s.historyRepo.CountByRecord(record.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, RecordSummary{
			Record:    record,
			TotalMark: mark,
			Answered:  answered,
		})
	}
	return summaries, nil
}

// refreshStatus лениво пересчитывает статус игры от текущего времени
// и персистит изменение. Ошибка персиста не блокирует чтение: повторный
// пересчет на следующем запросе даст тот же результат.
func (s *GameService) refreshStatus(game *entity.Game) {
	derived := game.DeriveStatus(time.Now())
	if derived == game.Status {
		return
	}

	previous := game.Status
	if err := s.gameRepo.UpdateStatus(game.ID, derived); err != nil {
		log.Printf("[GameService] Ошибка персиста статуса игры %d (%s -> %s): %v",
			game.ID, previous, derived, err)
	}
	game.Status = derived

	switch derived {
	case entity.GameStatusOnGoing:
		s.broadcast(game.ID, EventGameStarted, game)
	case entity.GameStatusEnded:
		s.broadcast(game.ID, EventGameEnded, game)
	}
}

func (s *GameService) broadcast(gameID uint, eventType string, data interface{}) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.BroadcastToGame(gameID, eventType, data); err != nil {
		log.Printf("[GameService] Ошибка рассылки события %s игры %d: %v", eventType, gameID, err)
	}
}
