package notify

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryConfig задаёт повторы доставки уведомления.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = d.BackoffFactor
	}
	return c
}

// RetryingNotifier повторяет доставку через next с экспоненциальной задержкой.
// Отмена ctx прерывает ожидание между попытками.
type RetryingNotifier struct {
	next   Notifier
	config RetryConfig
	logger *log.Entry
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingNotifier оборачивает next повторами.
func NewRetryingNotifier(next Notifier, config RetryConfig, logger *log.Entry) *RetryingNotifier {
	if logger == nil {
		logger = log.New().WithField("component", "retrying-notifier")
	}
	return &RetryingNotifier{
		next:   next,
		config: config.withDefaults(),
		logger: logger,
		sleep:  sleepContext,
	}
}

// Notify возвращает последнюю ошибку, если все попытки исчерпаны.
func (r *RetryingNotifier) Notify(ctx context.Context, message string) error {
	var lastErr error
	delay := r.config.InitialDelay

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := r.next.Notify(ctx, message)
		if err == nil {
			if attempt > 1 {
				r.logger.WithField("attempt", attempt).Info("notification delivered after retry")
			}
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		r.logger.WithFields(log.Fields{
			"attempt": attempt,
			"delay":   delay,
			"error":   err,
		}).Warn("notification failed, retrying")

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * r.config.BackoffFactor)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
