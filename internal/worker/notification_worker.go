package worker

import (
	"go.uber.org/zap"

	"github.com/helpdesk-io/ticket-service/internal/events"
	"github.com/helpdesk-io/ticket-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartEventExport forwards every ticket event to the Kafka sink. A nil sink
// means no brokers are configured and events stay in process.
func StartEventExport(sink *events.KafkaSink, dispatcher events.Dispatcher, logger *zap.Logger) {
	if sink == nil {
		logger.Info("KAFKA_BROKERS not provided; ticket events are not exported")
		return
	}
	sink.Register(dispatcher)
	logger.Info("exporting ticket events to kafka")
}
