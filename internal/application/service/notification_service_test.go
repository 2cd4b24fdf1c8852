package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory() *mockDirectory {
	return &mockDirectory{
		suppliers: map[int64]*entity.Contact{42: {ID: 42, Name: "Acme Steel", Email: "claims@acme.example"}},
		users: map[int64]*entity.Contact{
			2: {ID: 2, Name: "Olga Ops", Email: "olga@corp.example"},
		},
	}
}

func TestNotificationService_Register(t *testing.T) {
	d := &mockDispatcher{}
	svc := NewNotificationService(newMockNotificationRepo(), newTestDirectory(), &mockNotifier{}, &mockLogger{})
	svc.Register(d)

	for _, tt := range []event.Type{
		event.TypeClaimSentToSupplier,
		event.TypeRatingCreated,
		event.TypeRatingRequested,
		event.TypeRatingAccepted,
	} {
		assert.Len(t, d.subscribed[tt], 1, tt.String())
	}
	assert.Empty(t, d.subscribed[event.TypeClaimTransitioned])
}

func TestNotificationService_HandleEvent(t *testing.T) {
	tests := []struct {
		name          string
		evt           *event.Event
		wantKind      string
		wantRecipient string
		wantData      map[string]string
	}{
		{
			name: "claim sent to supplier",
			evt: event.NewEvent(event.TypeClaimSentToSupplier, entity.EntityTypeClaim, 9, map[string]interface{}{
				event.KeySupplierID:   int64(42),
				event.KeyClaimNumber:  "CLM-2026-009",
				event.KeyDamageAmount: "1500.00",
				event.KeyComment:      "see photos",
			}),
			wantKind:      entity.NotificationClaimSentToSupplier,
			wantRecipient: "claims@acme.example",
			wantData:      map[string]string{"claim_number": "CLM-2026-009", "damage_amount": "1500.00", "comment": "see photos"},
		},
		{
			name: "rating completed",
			evt: event.NewEvent(event.TypeRatingCreated, entity.EntityTypeRating, 5, map[string]interface{}{
				event.KeySupplierID:    int64(42),
				event.KeyProjectID:     int64(3),
				event.KeyOverallRating: 4.6,
			}),
			wantKind:      entity.NotificationRatingCompleted,
			wantRecipient: "claims@acme.example",
			wantData:      map[string]string{"overall_rating": "4.60", "acceptance_days": "5"},
		},
		{
			name: "rating requested",
			evt: event.NewEvent(event.TypeRatingRequested, entity.EntityTypeSupplier, 42, map[string]interface{}{
				event.KeySupplierID: int64(42),
				event.KeyEngineerID: int64(2),
				event.KeyProjectID:  int64(3),
			}),
			wantKind:      entity.NotificationRatingRequested,
			wantRecipient: "olga@corp.example",
			wantData:      map[string]string{"project_id": "3", "recipient_name": "Olga Ops"},
		},
		{
			name: "rating accepted",
			evt: event.NewEvent(event.TypeRatingAccepted, entity.EntityTypeRating, 5, map[string]interface{}{
				event.KeySupplierID: int64(42),
				event.KeyCreatedBy:  int64(2),
			}),
			wantKind:      entity.NotificationRatingAccepted,
			wantRecipient: "olga@corp.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockNotificationRepo()
			notifier := &mockNotifier{}
			svc := NewNotificationService(repo, newTestDirectory(), notifier, &mockLogger{})

			require.NoError(t, svc.HandleEvent(context.Background(), tt.evt))

			require.Len(t, notifier.sent, 1)
			msg := notifier.sent[0]
			assert.Equal(t, tt.wantKind, msg.kind)
			assert.Equal(t, tt.wantRecipient, msg.recipient)
			for k, v := range tt.wantData {
				assert.Equal(t, v, msg.data[k], k)
			}

			stored, _ := repo.GetByID(context.Background(), 1)
			require.NotNil(t, stored)
			assert.Equal(t, entity.NotificationStatusSent, stored.Status)
			assert.Equal(t, 1, stored.Attempts)
			assert.Equal(t, tt.evt.EntityID, stored.EntityID)
		})
	}
}

func TestNotificationService_DeliveryFailureIsRecorded(t *testing.T) {
	repo := newMockNotificationRepo()
	notifier := &mockNotifier{notifyFunc: func(ctx context.Context, kind, recipient string, data map[string]string) error {
		return errors.New("mailbox unavailable")
	}}
	logger := &mockLogger{}
	svc := NewNotificationService(repo, newTestDirectory(), notifier, logger)

	evt := event.NewEvent(event.TypeRatingCreated, entity.EntityTypeRating, 5, map[string]interface{}{event.KeySupplierID: int64(42)})
	err := svc.HandleEvent(context.Background(), evt)
	require.Error(t, err)

	stored, _ := repo.GetByID(context.Background(), 1)
	assert.Equal(t, entity.NotificationStatusFailed, stored.Status)
	assert.Equal(t, "mailbox unavailable", stored.ErrorMessage)
	assert.Contains(t, logger.errors, "Notification delivery failed")
}

func TestNotificationService_UnknownRecipient(t *testing.T) {
	repo := newMockNotificationRepo()
	notifier := &mockNotifier{}
	svc := NewNotificationService(repo, newTestDirectory(), notifier, &mockLogger{})

	evt := event.NewEvent(event.TypeClaimSentToSupplier, entity.EntityTypeClaim, 9, map[string]interface{}{event.KeySupplierID: int64(999)})
	err := svc.HandleEvent(context.Background(), evt)
	assert.ErrorIs(t, err, errNoContact)
	assert.Empty(t, notifier.sent)

	require.Len(t, repo.notifications, 1)
	n := repo.notifications[1]
	assert.Equal(t, entity.NotificationStatusFailed, n.Status)
	assert.Equal(t, 1, n.Attempts)
	assert.Contains(t, n.ErrorMessage, "resolve recipient")
	assert.Empty(t, n.Recipient)
	assert.Equal(t, entity.RecipientSupplier, n.RecipientType)
	assert.Equal(t, int64(999), n.RecipientID)
}

func TestNotificationService_RetryResolvesRecipient(t *testing.T) {
	repo := newMockNotificationRepo()
	directory := newTestDirectory()
	notifier := &mockNotifier{}
	svc := NewNotificationService(repo, directory, notifier, &mockLogger{})
	ctx := context.Background()

	evt := event.NewEvent(event.TypeClaimSentToSupplier, entity.EntityTypeClaim, 9, map[string]interface{}{
		event.KeySupplierID:  int64(77),
		event.KeyClaimNumber: "CLM-2026-0009",
	})
	require.Error(t, svc.HandleEvent(ctx, evt))
	n := repo.notifications[1]
	repo.retryable = []*entity.Notification{n}

	delivered, err := svc.RetryFailed(ctx, 5, 10)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Equal(t, 2, n.Attempts)
	assert.Empty(t, notifier.sent)

	directory.suppliers[77] = &entity.Contact{ID: 77, Name: "Late Supplier", Email: "late@supplier.example"}
	delivered, err = svc.RetryFailed(ctx, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, entity.NotificationStatusSent, n.Status)
	assert.Equal(t, "late@supplier.example", n.Recipient)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "late@supplier.example", notifier.sent[0].recipient)
	assert.Equal(t, "CLM-2026-0009", notifier.sent[0].data["claim_number"])
	assert.Equal(t, "Late Supplier", notifier.sent[0].data["recipient_name"])
}

func TestNotificationService_RetryFailed(t *testing.T) {
	repo := newMockNotificationRepo()
	ok := &entity.Notification{ID: 1, Kind: entity.NotificationRatingAccepted, Recipient: "a@x.example", Payload: `{"rating_id":"5"}`, Status: entity.NotificationStatusFailed, Attempts: 1}
	bad := &entity.Notification{ID: 2, Kind: entity.NotificationRatingAccepted, Recipient: "b@x.example", Payload: `not json`, Status: entity.NotificationStatusFailed, Attempts: 1}
	down := &entity.Notification{ID: 3, Kind: entity.NotificationRatingAccepted, Recipient: "down@x.example", Payload: `{}`, Status: entity.NotificationStatusFailed, Attempts: 2}
	for _, n := range []*entity.Notification{ok, bad, down} {
		repo.notifications[n.ID] = n
	}
	repo.retryable = []*entity.Notification{ok, bad, down}

	notifier := &mockNotifier{notifyFunc: func(ctx context.Context, kind, recipient string, data map[string]string) error {
		if recipient == "down@x.example" {
			return errors.New("still down")
		}
		return nil
	}}
	svc := NewNotificationService(repo, newTestDirectory(), notifier, &mockLogger{})

	delivered, err := svc.RetryFailed(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	assert.Equal(t, entity.NotificationStatusSent, ok.Status)
	assert.Equal(t, 2, ok.Attempts)
	assert.Equal(t, entity.NotificationStatusFailed, bad.Status)
	assert.Contains(t, bad.ErrorMessage, "unreadable payload")
	assert.Equal(t, entity.NotificationStatusFailed, down.Status)
	assert.Equal(t, 3, down.Attempts)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "5", notifier.sent[0].data["rating_id"])
}
