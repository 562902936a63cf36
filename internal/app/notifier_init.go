package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/omslab/ordercore/internal/config"
	"github.com/omslab/ordercore/internal/messaging/kafka"
	"github.com/omslab/ordercore/internal/notify"
)

// initNotifier выбирает канал уведомлений по окружению.
// Kafka используется только в qa/prod и только при заданных брокерах;
// если producer не создался, сервис продолжает работу с уведомлениями в лог.
func initNotifier(cfg config.Config, logger *log.Entry) (notify.Notifier, func()) {
	var (
		remote  notify.Notifier
		closeFn = func() {}
	)

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if len(cfg.Kafka.Brokers) > 0 && (env == notify.EnvQA || env == notify.EnvProd) {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger.WithField("component", "kafka"))
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, falling back to log notifications")
		} else {
			notifier := kafka.NewNotifier(producer, cfg.Kafka.Topic, cfg.Environment)
			remote = notify.NewRetryingNotifier(notifier, notify.DefaultRetryConfig(), logger.WithField("component", "notifier"))
			closeFn = func() { closeKafka(notifier, logger) }
			logger.WithField("brokers", cfg.Kafka.Brokers).Info("kafka notifier initialized")
		}
	}

	return notify.ForEnvironment(cfg.Environment, remote, logger.WithField("component", "notifier")), closeFn
}

// closeKafka закрывает Kafka-нотификатор.
func closeKafka(notifier *kafka.Notifier, logger *log.Entry) {
	if notifier == nil {
		return
	}
	if err := notifier.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
