package tenant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/cache"
	"github.com/identity-tenancy-api/internal/models/shared"
)

// EventQueue is the Redis list lifecycle events are pushed to.
const EventQueue = cache.EventQueue

type EventType string

const (
	EventTenantCreated EventType = "tenant.created"
	EventTenantDeleted EventType = "tenant.deleted"
)

// Event is the payload consumed by the worker.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	TenantID   string    `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(typ EventType, tenantID string) Event {
	return Event{ID: uuid.NewString(), Type: typ, TenantID: tenantID, OccurredAt: time.Now().UTC()}
}

// InitialPasswordNotice is handed to the Notifier after a tenant is created
// with a generated admin password.
type InitialPasswordNotice struct {
	TenantID string
	Admin    AdminInfo
	Methods  []shared.NotificationMethod
}

// Notifier delivers initial credentials. Delivery itself lives outside this
// service.
type Notifier interface {
	NotifyInitialPassword(ctx context.Context, n InitialPasswordNotice) error
}

// LogNotifier records the notification without sending anything.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyInitialPassword(_ context.Context, notice InitialPasswordNotice) error {
	methods := make([]string, 0, len(notice.Methods))
	for _, m := range notice.Methods {
		methods = append(methods, string(m))
	}
	n.log.Info("initial password notification requested",
		zap.String("tenant_id", notice.TenantID),
		zap.String("username", notice.Admin.Username),
		zap.String("email", notice.Admin.Email),
		zap.String("phone", notice.Admin.Phone),
		zap.String("methods", strings.Join(methods, ",")),
	)
	return nil
}
