package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/zoubaax/on-time/internal/core/domain"
)

// AuditRepository implements ports.AuditRepository over SQLite.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(d *DB) *AuditRepository {
	return &AuditRepository{db: d.sqlDB}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_events (id, type, user_id, actor_id, email, detail, occurred_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(event.Type), event.UserID, event.ActorID, event.Email, event.Detail,
		toMillis(event.OccurredAt), toMillis(time.Now()),
	)
	return err
}

// CountEvents returns how many events were stored for userID.
func (r *AuditRepository) CountEvents(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM auth_events WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
