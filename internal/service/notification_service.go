package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/classquiz-api/internal/domain/entity"
	"github.com/yourusername/classquiz-api/internal/domain/repository"
)

// TTL ключа дедупликации: повторная отправка анонса блокируется на сутки
const notificationDedupTTL = 24 * time.Hour

// Notifier рассылает уведомления о событиях игр
type Notifier interface {
	GameCreated(ctx context.Context, game *entity.Game) error
}

// NoopNotifier используется, когда email-рассылка отключена
type NoopNotifier struct{}

func (n *NoopNotifier) GameCreated(ctx context.Context, game *entity.Game) error {
	log.Printf("[Notifier] noop game created notification, game=%d", game.ID)
	return nil
}

// EmailNotifier рассылает анонсы игр участникам класса через Resend.
// Ключ SetNX в кеше защищает от повторной рассылки при ретраях запроса.
type EmailNotifier struct {
	from          string
	client        *resend.Client
	accountRepo   repository.AccountRepository
	classroomRepo repository.ClassroomRepository
	cacheRepo     repository.CacheRepository
}

// NewEmailNotifier создает рассыльщика анонсов
func NewEmailNotifier(
	apiKey, from string,
	accountRepo repository.AccountRepository,
	classroomRepo repository.ClassroomRepository,
	cacheRepo repository.CacheRepository,
) (*EmailNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &EmailNotifier{
		from:          from,
		client:        resend.NewClient(apiKey),
		accountRepo:   accountRepo,
		classroomRepo: classroomRepo,
		cacheRepo:     cacheRepo,
	}, nil
}

// GameCreated отправляет анонс новой игры всем участникам ее класса.
// Игры без класса анонсов не получают. Ошибки отдельных адресатов
// логируются и не прерывают рассылку.
func (n *EmailNotifier) GameCreated(ctx context.Context, game *entity.Game) error {
	if game.ClassroomID == nil {
		return nil
	}

	dedupKey := fmt.Sprintf("notify:game_created:%d", game.ID)
	acquired, err := n.cacheRepo.SetNX(dedupKey, time.Now().Unix(), notificationDedupTTL)
	if err != nil {
		log.Printf("[Notifier] Ошибка Redis при дедупликации анонса игры %d: %v", game.ID, err)
		// При недоступном кеше рассылку не делаем, чтобы не заспамить
		return err
	}
	if !acquired {
		log.Printf("[Notifier] Анонс игры %d уже отправлялся, пропускаем", game.ID)
		return nil
	}

	memberIDs, err := n.classroomRepo.MemberIDs(*game.ClassroomID)
	if err != nil {
		return fmt.Errorf("failed to load classroom members: %w", err)
	}

	accounts, err := n.accountRepo.GetByIDs(memberIDs)
	if err != nil {
		return fmt.Errorf("failed to load member accounts: %w", err)
	}

	sent := 0
	for _, account := range accounts {
		if account.Email == "" {
			continue
		}
		if err := n.sendGameAnnouncement(ctx, account.Email, game); err != nil {
			log.Printf("[Notifier] Ошибка отправки анонса игры %d на %s: %v", game.ID, account.Email, err)
			continue
		}
		sent++
	}

	log.Printf("[Notifier] Анонс игры %d отправлен %d из %d участников", game.ID, sent, len(accounts))
	return nil
}

func (n *EmailNotifier) sendGameAnnouncement(ctx context.Context, toEmail string, game *entity.Game) error {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("New game: %s", game.Name),
		Text: fmt.Sprintf("A new game %q is scheduled from %s to %s.",
			game.Name, game.StartTime.Format(time.RFC1123), game.EndTime.Format(time.RFC1123)),
		Html: fmt.Sprintf("<p>A new game <strong>%s</strong> is scheduled.</p><p>Starts: %s<br>Ends: %s</p>",
			game.Name, game.StartTime.Format(time.RFC1123), game.EndTime.Format(time.RFC1123)),
	}

	options := &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("game-%d-%s", game.ID, toEmail),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := n.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
