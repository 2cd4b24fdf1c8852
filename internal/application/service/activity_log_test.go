package service

import (
	"context"
	"testing"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLog_Register(t *testing.T) {
	d := &mockDispatcher{}
	NewActivityLog(&mockLogger{}).Register(d)

	for _, tt := range []event.Type{event.TypeClaimCreated, event.TypeClaimEdited, event.TypeClaimTransitioned} {
		assert.Equal(t, []string{"activity-log:" + tt.String()}, d.subscribed[tt])
	}
	assert.Empty(t, d.subscribed[event.TypeClaimSentToSupplier])
}

func TestActivityLog_HandleEvent(t *testing.T) {
	logger := &mockLogger{}
	log := NewActivityLog(logger)

	evt := event.NewEvent(event.TypeClaimTransitioned, entity.EntityTypeClaim, 7, map[string]interface{}{
		event.KeyActorID:     int64(3),
		event.KeyActorRole:   "legal",
		event.KeyFromStatus:  "OPERATIONS_APPROVED",
		event.KeyToStatus:    "LEGAL_APPROVED",
		event.KeyClaimNumber: "CLM-2026-007",
	})
	require.NoError(t, log.HandleEvent(context.Background(), evt))

	require.Len(t, logger.infos, 1)
	got := logger.infos[0]
	assert.Equal(t, "Claim activity", got.msg)
	assert.Equal(t, "claim.transitioned", got.fields["event_type"])
	assert.Equal(t, int64(7), got.fields["entity_id"])
	assert.Equal(t, int64(3), got.fields["actor_id"])
	assert.Equal(t, "OPERATIONS_APPROVED", got.fields["from_status"])
	assert.Equal(t, "LEGAL_APPROVED", got.fields["to_status"])
}

func TestActivityLog_CreatedHasNoFromStatus(t *testing.T) {
	logger := &mockLogger{}
	evt := event.NewEvent(event.TypeClaimCreated, entity.EntityTypeClaim, 8, map[string]interface{}{
		event.KeyActorID:  int64(1),
		event.KeyToStatus: "NEW",
	})
	require.NoError(t, NewActivityLog(logger).HandleEvent(context.Background(), evt))

	require.Len(t, logger.infos, 1)
	assert.NotContains(t, logger.infos[0].fields, "from_status")
	assert.Equal(t, "NEW", logger.infos[0].fields["to_status"])
}
