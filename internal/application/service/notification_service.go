package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/dispatcher"
	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

// NotificationService turns domain events into delivered notifications.
// Every attempt is recorded so failed deliveries can be retried later.
type NotificationService interface {
	// Register subscribes the service's handlers on the dispatcher
	Register(d dispatcher.Dispatcher)

	// HandleEvent resolves the recipient for an event and delivers the notification
	HandleEvent(ctx context.Context, evt *event.Event) error

	// RetryFailed re-sends failed notifications that have attempts left.
	// It returns how many were delivered.
	RetryFailed(ctx context.Context, maxAttempts, limit int) (int, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	directory        port.DirectoryRepository
	notifier         port.Notifier
	logger           Logger
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	directory port.DirectoryRepository,
	notifier port.Notifier,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		directory:        directory,
		notifier:         notifier,
		logger:           logger,
		now:              time.Now,
	}
}

// notifiedEvents lists the events that produce a notification
var notifiedEvents = []event.Type{
	event.TypeClaimSentToSupplier,
	event.TypeRatingCreated,
	event.TypeRatingRequested,
	event.TypeRatingAccepted,
}

// Register subscribes the service's handlers on the dispatcher
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	for _, t := range notifiedEvents {
		d.SubscribeNamed(t, "notification:"+t.String(), s.HandleEvent)
	}
}

// HandleEvent resolves the recipient for an event and delivers the notification.
// A recipient that cannot be resolved still leaves a FAILED row behind so the
// retry worker can look it up again.
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	n, data, err := s.compose(evt)
	if err != nil {
		s.logger.Error("Failed to prepare notification",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"entity_id", evt.EntityID,
			"error", err,
		)
		return err
	}

	now := s.now()
	n.Status = entity.NotificationStatusPending
	n.CreatedAt = now
	n.UpdatedAt = now

	resolveErr := s.resolve(ctx, n, data)
	if resolveErr != nil {
		n.Status = entity.NotificationStatusFailed
		n.Attempts = 1
		n.ErrorMessage = resolveErr.Error()
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	n.Payload = string(payload)

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to record notification", "kind", n.Kind, "recipient", n.Recipient, "error", err)
		return fmt.Errorf("create notification: %w", err)
	}

	if resolveErr != nil {
		s.logger.Error("Notification recipient unresolved",
			"notification_id", n.ID,
			"event_type", evt.Type,
			"recipient_type", n.RecipientType,
			"recipient_id", n.RecipientID,
			"error", resolveErr,
		)
		return resolveErr
	}

	return s.deliver(ctx, n, data)
}

// RetryFailed re-sends failed or abandoned notifications that have attempts left
func (s *notificationServiceImpl) RetryFailed(ctx context.Context, maxAttempts, limit int) (int, error) {
	pending, err := s.notificationRepo.ListRetryable(ctx, maxAttempts, limit)
	if err != nil {
		return 0, fmt.Errorf("list retryable notifications: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}

		var data map[string]string
		if err := json.Unmarshal([]byte(n.Payload), &data); err != nil {
			s.logger.Error("Dropping notification with unreadable payload", "notification_id", n.ID, "error", err)
			_ = s.notificationRepo.MarkFailed(ctx, n.ID, "unreadable payload: "+err.Error())
			continue
		}
		if data == nil {
			data = map[string]string{}
		}

		if n.Recipient == "" {
			if err := s.resolve(ctx, n, data); err != nil {
				s.logger.Error("Notification recipient still unresolved", "notification_id", n.ID, "error", err)
				_ = s.notificationRepo.MarkFailed(ctx, n.ID, err.Error())
				continue
			}
			if err := s.notificationRepo.SetRecipient(ctx, n.ID, n.Recipient); err != nil {
				s.logger.Error("Failed to store notification recipient", "notification_id", n.ID, "error", err)
			}
		}

		if err := s.deliver(ctx, n, data); err == nil {
			delivered++
		}
	}

	return delivered, nil
}

func (s *notificationServiceImpl) deliver(ctx context.Context, n *entity.Notification, data map[string]string) error {
	if err := s.notifier.Notify(ctx, n.Kind, n.Recipient, data); err != nil {
		s.logger.Error("Notification delivery failed",
			"notification_id", n.ID,
			"kind", n.Kind,
			"recipient", n.Recipient,
			"attempt", n.Attempts+1,
			"error", err,
		)
		if markErr := s.notificationRepo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
			s.logger.Error("Failed to mark notification failed", "notification_id", n.ID, "error", markErr)
		}
		return fmt.Errorf("notify %s: %w", n.Kind, err)
	}

	if err := s.notificationRepo.MarkSent(ctx, n.ID); err != nil {
		s.logger.Error("Failed to mark notification sent", "notification_id", n.ID, "error", err)
	}

	s.logger.Info("Notification sent",
		"notification_id", n.ID,
		"kind", n.Kind,
		"recipient", n.Recipient,
		"entity_type", n.EntityType,
		"entity_id", n.EntityID,
	)
	return nil
}

// compose picks the notification kind, recipient reference and message data
// for an event
func (s *notificationServiceImpl) compose(evt *event.Event) (*entity.Notification, map[string]string, error) {
	supplierID := evt.GetPayloadInt(event.KeySupplierID)
	data := map[string]string{
		"entity_type": evt.EntityType,
		"entity_id":   strconv.FormatInt(evt.EntityID, 10),
		"supplier_id": strconv.FormatInt(supplierID, 10),
	}
	if c := evt.GetPayloadString(event.KeyComment); c != "" {
		data["comment"] = c
	}

	n := &entity.Notification{EntityType: evt.EntityType, EntityID: evt.EntityID}

	switch evt.Type {
	case event.TypeClaimSentToSupplier:
		n.Kind = entity.NotificationClaimSentToSupplier
		n.RecipientType, n.RecipientID = entity.RecipientSupplier, supplierID
		data["claim_number"] = evt.GetPayloadString(event.KeyClaimNumber)
		data["damage_amount"] = evt.GetPayloadString(event.KeyDamageAmount)

	case event.TypeRatingCreated:
		n.Kind = entity.NotificationRatingCompleted
		n.RecipientType, n.RecipientID = entity.RecipientSupplier, supplierID
		data["project_id"] = strconv.FormatInt(evt.GetPayloadInt(event.KeyProjectID), 10)
		data["overall_rating"] = strconv.FormatFloat(evt.GetPayloadFloat(event.KeyOverallRating), 'f', 2, 64)
		data["acceptance_days"] = strconv.Itoa(domainwf.AcceptanceWindowDays)

	case event.TypeRatingRequested:
		n.Kind = entity.NotificationRatingRequested
		n.RecipientType, n.RecipientID = entity.RecipientUser, evt.GetPayloadInt(event.KeyEngineerID)
		data["project_id"] = strconv.FormatInt(evt.GetPayloadInt(event.KeyProjectID), 10)

	case event.TypeRatingAccepted:
		n.Kind = entity.NotificationRatingAccepted
		n.RecipientType, n.RecipientID = entity.RecipientUser, evt.GetPayloadInt(event.KeyCreatedBy)
		data["overall_rating"] = strconv.FormatFloat(evt.GetPayloadFloat(event.KeyOverallRating), 'f', 2, 64)

	default:
		return nil, nil, fmt.Errorf("no notification for event type %s", evt.Type)
	}

	return n, data, nil
}

// resolve looks up the address for a notification's recipient reference
func (s *notificationServiceImpl) resolve(ctx context.Context, n *entity.Notification, data map[string]string) error {
	var (
		contact *entity.Contact
		err     error
	)
	switch n.RecipientType {
	case entity.RecipientSupplier:
		contact, err = s.directory.GetSupplierContact(ctx, n.RecipientID)
	case entity.RecipientUser:
		contact, err = s.directory.GetUserContact(ctx, n.RecipientID)
	default:
		return fmt.Errorf("resolve recipient: unknown recipient type %q", n.RecipientType)
	}
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if contact == nil || contact.Email == "" {
		return fmt.Errorf("resolve recipient: no address on file")
	}

	n.Recipient = contact.Email
	data["recipient_name"] = contact.Name
	return nil
}
