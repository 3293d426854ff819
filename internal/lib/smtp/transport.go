package smtp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/resume-builder/internal/config"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// ErrPlainAuth сервер не поддерживает STARTTLS, а логин и пароль нельзя передавать открытым текстом.
var ErrPlainAuth = errors.New("smtp server does not support STARTTLS, refusing to send credentials")

// Transport SMTP транспорт для отправки писем.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Connect открывает сессию с SMTP сервером. STARTTLS включается, если сервер его
// поддерживает; авторизация выполняется только при заданном SMTP_USER и только поверх TLS.
// Без логина допускается сервер без TLS (локальный перехватчик почты).
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	log := t.log.With(slog.String("op", op), slog.String("host", t.cfg.SMTPHost))

	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		log.Error("failed to create SMTP client", sl.Err(err))
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := t.secure(client); err != nil {
		log.Error("failed to set up SMTP session", sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

func (t *Transport) secure(client *smtp.Client) error {
	tlsOn := false
	if ok, _ := client.Extension("STARTTLS"); ok {
		err := client.StartTLS(&tls.Config{
			ServerName: t.cfg.SMTPHost,
			MinVersion: tls.VersionTLS12,
		})
		if err != nil {
			return fmt.Errorf("start tls: %w", err)
		}
		tlsOn = true
	}

	if t.cfg.SMTPUser == "" {
		return nil
	}
	if !tlsOn {
		return ErrPlainAuth
	}
	if err := client.Auth(smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Sender возвращает адрес отправителя: SMTP_FROM, а если он не задан, логин SMTP.
func (t *Transport) Sender() string {
	if t.cfg.SMTPFrom != "" {
		return t.cfg.SMTPFrom
	}
	return t.cfg.SMTPUser
}
