package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/helpdesk-io/ticket-service/internal/config"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/events"
)

func TestNotificationServiceLogsLifecycleEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	svc := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "helpdesk@example.com"})
	svc.RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventTicketCreated, TicketID: 1, TicketCode: "TK202507001"}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventTicketUpdated,
		Payload: events.TicketUpdatedPayload{Fields: []string{"subject"}, OldStatus: domain.StatusNew, NewStatus: domain.StatusNew},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventTicketUpdated,
		Payload: events.TicketUpdatedPayload{Fields: []string{"status_id"}, OldStatus: domain.StatusNew, NewStatus: domain.StatusResolved},
	}))

	assert.Equal(t, 1, logs.FilterMessage("TicketCreated").Len())
	assert.Equal(t, 1, logs.FilterMessage("TicketStatusChanged").Len())
	assert.Equal(t, 2, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Equal(t, 0, logs.FilterMessage("sendWebhookNotificationStub").Len())
}
