package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zoubaax/on-time/internal/core/domain"
)

type memoryAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	fail   bool
}

func (r *memoryAuditRepo) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	if r.fail {
		return errors.New("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryAuditRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestDispatcher_PersistsInOrderPerUser(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	types := []domain.AuthEventType{domain.EventSignUp, domain.EventSignIn, domain.EventTokenRefresh, domain.EventSignOut}
	for _, typ := range types {
		d.Record(domain.AuthEvent{Type: typ, UserID: "user-1", OccurredAt: time.Now()})
	}
	d.Record(domain.AuthEvent{Type: domain.EventSignIn, UserID: "user-2", OccurredAt: time.Now()})

	cancel()
	d.Wait()

	var user1 []domain.AuthEventType
	for _, e := range repo.snapshot() {
		if e.UserID == "user-1" {
			user1 = append(user1, e.Type)
		}
	}
	if len(user1) != len(types) {
		t.Fatalf("expected %d events for user-1, got %d", len(types), len(user1))
	}
	for i := range types {
		if user1[i] != types[i] {
			t.Fatalf("event %d: expected %s, got %s", i, types[i], user1[i])
		}
	}
	if len(repo.snapshot()) != len(types)+1 {
		t.Fatalf("expected %d events total, got %d", len(types)+1, len(repo.snapshot()))
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	// Workers are not started, so the channel fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Record(domain.AuthEvent{Type: domain.EventSignIn, UserID: "user-1"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected buffered %d, got %d", channelBuffer, got)
	}
}

func TestDispatcher_FailedPersistDoesNotStopWorker(t *testing.T) {
	repo := &memoryAuditRepo{fail: true}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(domain.AuthEvent{Type: domain.EventSignIn, UserID: "user-1"})
	d.Record(domain.AuthEvent{Type: domain.EventSignOut, UserID: "user-1"})

	cancel()
	d.Wait()

	if len(repo.snapshot()) != 0 {
		t.Fatalf("expected no persisted events")
	}
	if len(d.workers[0]) != 0 {
		t.Fatalf("expected channel drained")
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, &memoryAuditRepo{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("user-42") != first {
			t.Fatalf("shard index not stable")
		}
	}
}
