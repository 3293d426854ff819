// Package sender отправляет покупателям письма об изменении подписки.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/lib/smtp"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// UserRepository нужен, чтобы найти адрес, если в событии его нет.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// Service отправка уведомлений
type Service struct {
	users     UserRepository
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, log *slog.Logger, transport smtp.TransportInterface) *Service {
	return &Service{
		users:     users,
		transport: transport,
		log:       log,
	}
}

// SendSubscriptionEvent обрабатывает сообщение из очереди и отправляет письмо.
func (s *Service) SendSubscriptionEvent(ctx context.Context, body []byte) error {
	const op = "sender.SendSubscriptionEvent"
	log := s.log.With(slog.String("op", op))

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := event.Email
	if to == "" && event.UserID != "" {
		user, err := s.users.GetUser(ctx, event.UserID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		to = user.Email
	}
	if to == "" {
		log.Warn("subscription event without recipient", slog.String("type", event.Type))
		return nil
	}

	subject, text, ok := render(event)
	if !ok {
		log.Warn("unknown subscription event type", slog.String("type", event.Type))
		return nil
	}
	return s.sendEmail([]string{to}, subject, text)
}

func render(event models.SubscriptionEvent) (subject, body string, ok bool) {
	switch event.Type {
	case models.EventSubscriptionActivated:
		until := ""
		if event.Subscription != nil {
			until = fmt.Sprintf("\nПодписка действует до %s.", event.Subscription.CurrentPeriodEnd.Format("02.01.2006"))
		}
		return "Премиум-доступ активирован",
			"Здравствуйте!\n\nСпасибо за покупку: премиум-функции конструктора резюме уже доступны." + until, true
	case models.EventSubscriptionCanceled:
		return "Подписка отменена",
			"Здравствуйте!\n\nВаша подписка отменена и не будет продлена. Премиум-доступ сохранится до конца оплаченного периода.", true
	case models.EventSubscriptionEnded:
		return "Подписка закончилась",
			"Здравствуйте!\n\nСрок вашей подписки истёк, премиум-функции больше недоступны.", true
	case models.EventSubscriptionFailed:
		return "Не удалось списать оплату",
			"Здравствуйте!\n\nПлатёж по подписке не прошёл. Проверьте платёжные данные, чтобы сохранить премиум-доступ.", true
	case models.EventSubscriptionEnding:
		until := "в ближайшие сутки"
		if event.Subscription != nil {
			until = event.Subscription.CurrentPeriodEnd.Format("02.01.2006")
		}
		return "Премиум-доступ скоро закончится",
			"Здравствуйте!\n\nПодписка отменена, премиум-функции будут отключены " + until + ". Оформите подписку снова, чтобы сохранить доступ.", true
	default:
		return "", "", false
	}
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", sl.Email(addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Int("recipients", len(to)))
	return nil
}
