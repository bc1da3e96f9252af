package ports

import (
	"context"

	"github.com/zoubaax/on-time/internal/core/domain"
)

// AuditSink receives auth events. Record must not block the caller on I/O.
type AuditSink interface {
	Record(event domain.AuthEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
