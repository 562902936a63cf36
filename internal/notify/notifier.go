package notify

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Окружения, от которых зависит выбор канала уведомлений.
const (
	EnvDev  = "dev"
	EnvQA   = "qa"
	EnvProd = "prod"
)

// Сообщения, которые отправляет сервис.
const (
	MessageApplicationStarted = "Application Started"
	MessageOrderCreated       = "Order created"
)

// Notifier доставляет короткое текстовое уведомление.
// Доставка best-effort: вызывающая сторона только логирует ошибку.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// LogNotifier пишет уведомления в лог с префиксом окружения.
type LogNotifier struct {
	prefix string
	logger *log.Entry
}

// NewLogNotifier создаёт уведомитель, пишущий "<prefix>: <message>".
func NewLogNotifier(prefix string, logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.New().WithField("component", "notifier")
	}
	return &LogNotifier{prefix: prefix, logger: logger}
}

// Notify пишет сообщение на уровне Info.
func (n *LogNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info(n.prefix + ": " + message)
	return nil
}

// Noop отбрасывает уведомления.
type Noop struct{}

// Notify ничего не делает.
func (Noop) Notify(context.Context, string) error { return nil }

// ForEnvironment выбирает канал уведомлений один раз при старте.
// dev пишет в лог с префиксом DEV. qa и prod используют remote, если он задан,
// иначе лог с именем окружения в качестве префикса.
func ForEnvironment(env string, remote Notifier, logger *log.Entry) Notifier {
	env = strings.TrimSpace(env)
	switch strings.ToLower(env) {
	case EnvQA, EnvProd:
		if remote != nil {
			return remote
		}
		return NewLogNotifier(env, logger)
	default:
		return NewLogNotifier("DEV", logger)
	}
}
