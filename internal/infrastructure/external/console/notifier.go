// Package console provides a notifier that only writes to the log, for
// development and for deployments without a messaging integration.
package console

import (
	"context"
	"sort"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"go.uber.org/zap"
)

// Notifier logs every notification instead of sending it
type Notifier struct {
	logger *zap.Logger
}

// NewNotifier creates a log-only notifier
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Notify implements port.Notifier
func (n *Notifier) Notify(ctx context.Context, kind, recipient string, data map[string]string) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := []zap.Field{zap.String("kind", kind), zap.String("recipient", recipient)}
	for _, k := range keys {
		fields = append(fields, zap.String(k, data[k]))
	}
	n.logger.Info("Notification", fields...)
	return ctx.Err()
}

var _ port.Notifier = (*Notifier)(nil)
