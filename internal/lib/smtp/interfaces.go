// Package smtp предоставляет SMTP транспорт для писем о статусе подписки.
package smtp

import "io"

// Client сессия с SMTP сервером. Ей удовлетворяет *smtp.Client из стандартной библиотеки.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает сессии отправки.
type TransportInterface interface {
	Connect() (Client, error)
	Sender() string
}
