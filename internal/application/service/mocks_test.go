package service

import (
	"context"
	"sync"

	"github.com/garyjia/supplier-workflow/internal/application/dispatcher"
	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
)

// Mock repositories

type mockClaimRepo struct {
	createFunc  func(ctx context.Context, claim *entity.Claim) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Claim, error)
	updateFunc  func(ctx context.Context, claim *entity.Claim, expectedVersion int64) error
	listFunc    func(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error)
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *entity.Claim) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, claim)
	}
	claim.ID = 1
	claim.ClaimNumber = "CLM-2026-001"
	claim.Version = 1
	return nil
}

func (m *mockClaimRepo) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockClaimRepo) Update(ctx context.Context, claim *entity.Claim, expectedVersion int64) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, claim, expectedVersion)
	}
	claim.Version = expectedVersion + 1
	return nil
}

func (m *mockClaimRepo) List(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

type mockRatingRepo struct {
	createFunc         func(ctx context.Context, rating *entity.SupplierRating) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.SupplierRating, error)
	listBySupplierFunc func(ctx context.Context, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error)
}

func (m *mockRatingRepo) Create(ctx context.Context, rating *entity.SupplierRating) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rating)
	}
	rating.ID = 1
	rating.Version = 1
	return nil
}

func (m *mockRatingRepo) GetByID(ctx context.Context, id int64) (*entity.SupplierRating, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRatingRepo) Update(ctx context.Context, rating *entity.SupplierRating, expectedVersion int64) error {
	rating.Version = expectedVersion + 1
	return nil
}

func (m *mockRatingRepo) ListBySupplier(ctx context.Context, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error) {
	if m.listBySupplierFunc != nil {
		return m.listBySupplierFunc(ctx, supplierID, limit, offset)
	}
	return nil, nil
}

type mockAuditRepo struct {
	mu         sync.Mutex
	entries    []*entity.AuditEntry
	appendFunc func(ctx context.Context, entry *entity.AuditEntry) error
}

func (m *mockAuditRepo) Append(ctx context.Context, entry *entity.AuditEntry) error {
	if m.appendFunc != nil {
		if err := m.appendFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			result = append(result, e)
		}
	}
	return result, nil
}

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications map[int64]*entity.Notification
	retryable     []*entity.Notification
	createErr     error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: map[int64]*entity.Notification{}}
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = int64(len(m.notifications) + 1)
	m.notifications[n.ID] = n
	return nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[id], nil
}

func (m *mockNotificationRepo) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error) {
	return m.retryable, nil
}

func (m *mockNotificationRepo) SetRecipient(ctx context.Context, id int64, recipient string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		n.Recipient = recipient
	}
	return nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		n.Status = entity.NotificationStatusSent
		n.Attempts++
	}
	return nil
}

func (m *mockNotificationRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		n.Status = entity.NotificationStatusFailed
		n.ErrorMessage = errMsg
		n.Attempts++
	}
	return nil
}

type mockDirectory struct {
	suppliers map[int64]*entity.Contact
	users     map[int64]*entity.Contact
}

func (m *mockDirectory) GetSupplierContact(ctx context.Context, supplierID int64) (*entity.Contact, error) {
	if c, ok := m.suppliers[supplierID]; ok {
		return c, nil
	}
	return nil, errNoContact
}

func (m *mockDirectory) GetUserContact(ctx context.Context, userID int64) (*entity.Contact, error) {
	if c, ok := m.users[userID]; ok {
		return c, nil
	}
	return nil, errNoContact
}

type sentMessage struct {
	kind      string
	recipient string
	data      map[string]string
}

type mockNotifier struct {
	mu         sync.Mutex
	sent       []sentMessage
	notifyFunc func(ctx context.Context, kind, recipient string, data map[string]string) error
}

func (m *mockNotifier) Notify(ctx context.Context, kind, recipient string, data map[string]string) error {
	if m.notifyFunc != nil {
		if err := m.notifyFunc(ctx, kind, recipient, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{kind: kind, recipient: recipient, data: data})
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockDispatcher struct {
	mu         sync.Mutex
	events     []*event.Event
	subscribed map[event.Type][]string
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {
	m.SubscribeNamed(eventType, "", handler)
}

func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribed == nil {
		m.subscribed = map[event.Type][]string{}
	}
	m.subscribed[eventType] = append(m.subscribed[eventType], name)
}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.DispatchAsync(ctx, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo { return nil }

func (m *mockDispatcher) Close() error { return nil }

type mockExporter struct {
	trailFunc    func(entityType string, entityID int64, entries []*entity.AuditEntry) ([]byte, error)
	registerFunc func(claims []*entity.Claim) ([]byte, error)
}

func (m *mockExporter) ExportAuditTrail(entityType string, entityID int64, entries []*entity.AuditEntry) ([]byte, error) {
	if m.trailFunc != nil {
		return m.trailFunc(entityType, entityID, entries)
	}
	return []byte("xlsx"), nil
}

func (m *mockExporter) ExportClaimRegister(claims []*entity.Claim) ([]byte, error) {
	if m.registerFunc != nil {
		return m.registerFunc(claims)
	}
	return []byte("xlsx"), nil
}

type mockFileStorage struct {
	saved   map[string][]byte
	saveErr error
}

func (m *mockFileStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[path] = content
	return nil
}

type loggedLine struct {
	msg    string
	fields map[string]interface{}
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []loggedLine
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields := map[string]interface{}{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			fields[k] = keysAndValues[i+1]
		}
	}
	m.infos = append(m.infos, loggedLine{msg: msg, fields: fields})
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
