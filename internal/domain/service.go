// Package domain holds the activity directory and its signup rules.
package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/signup/internal/events"
	"example.com/signup/internal/observability"
)

// RosterPublisher receives an event after every successful roster mutation.
type RosterPublisher interface {
	Publish(ctx context.Context, event events.RosterChanged) error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// Publish performs no action.
func (NoopPublisher) Publish(context.Context, events.RosterChanged) error { return nil }

// Confirmation is returned by successful Enroll and Withdraw calls.
type Confirmation struct {
	Message string `json:"message"`
}

// Option configures optional behaviour for the Directory.
type Option func(*Directory)

// WithPublisher routes roster events to p.
func WithPublisher(p RosterPublisher) Option {
	return func(d *Directory) {
		d.publisher = p
	}
}

// WithLogger overrides the logger used to report publish failures.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Directory) {
		d.logger = logger
	}
}

// WithCapacityEnforcement rejects enrollments once a roster reaches max participants.
// Without it, rosters may grow past capacity.
func WithCapacityEnforcement() Option {
	return func(d *Directory) {
		d.enforceCapacity = true
	}
}

// WithPublishTimeout bounds each delivery attempt made by the background publisher.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(d *Directory) {
		d.publishTimeout = timeout
	}
}

// WithPublishBuffer sets how many events may wait for delivery before new ones
// are dropped.
func WithPublishBuffer(size int) Option {
	return func(d *Directory) {
		d.publishBuffer = size
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		d.now = now
	}
}

// Directory owns the in-memory set of activities. The set of names is fixed at
// construction; only rosters change afterwards.
//
// Roster events are queued while the write lock is held and delivered by a single
// background goroutine, so they leave in mutation order and never hold up a caller.
type Directory struct {
	mu         sync.RWMutex
	activities map[string]*Activity
	closed     bool

	publisher       RosterPublisher
	logger          *zap.Logger
	enforceCapacity bool
	now             func() time.Time
	publishTimeout  time.Duration
	publishBuffer   int

	queue chan events.RosterChanged
	done  chan struct{}
}

// NewDirectory builds a Directory from seed. The seed is copied, so later changes
// to it are not observed. Call Close to flush pending roster events.
func NewDirectory(seed map[string]Activity, opts ...Option) *Directory {
	d := &Directory{
		activities:     make(map[string]*Activity, len(seed)),
		publisher:      NoopPublisher{},
		logger:         zap.NewNop(),
		now:            func() time.Time { return time.Now().UTC() },
		publishTimeout: 5 * time.Second,
		publishBuffer:  256,
		done:           make(chan struct{}),
	}
	for name, activity := range seed {
		a := activity.clone()
		d.activities[name] = &a
		observability.RecordRosterSize(name, len(a.Participants))
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.publishBuffer < 0 {
		d.publishBuffer = 0
	}
	d.queue = make(chan events.RosterChanged, d.publishBuffer)
	go d.publishLoop()
	return d
}

// Close stops accepting roster events and waits until queued ones are delivered.
// Mutations after Close still succeed but publish nothing.
func (d *Directory) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

// List returns a snapshot of every activity keyed by name.
func (d *Directory) List(ctx context.Context) map[string]Activity {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]Activity, len(d.activities))
	for name, activity := range d.activities {
		out[name] = activity.clone()
	}
	return out
}

// Get returns a snapshot of a single activity.
func (d *Directory) Get(ctx context.Context, name string) (Activity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	activity, ok := d.activities[name]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	return activity.clone(), nil
}

// Enroll appends email to the named activity's roster.
func (d *Directory) Enroll(ctx context.Context, name, email string) (Confirmation, error) {
	d.mu.Lock()
	activity, ok := d.activities[name]
	if !ok {
		d.mu.Unlock()
		observability.RecordRejection(string(events.RosterActionEnrolled), ErrActivityNotFound.Reason)
		return Confirmation{}, ErrActivityNotFound
	}
	if activity.hasParticipant(email) {
		d.mu.Unlock()
		observability.RecordRejection(string(events.RosterActionEnrolled), ErrAlreadySignedUp.Reason)
		return Confirmation{}, alreadySignedUp(email)
	}
	if d.enforceCapacity && activity.SpotsLeft() <= 0 {
		d.mu.Unlock()
		observability.RecordRejection(string(events.RosterActionEnrolled), ErrActivityFull.Reason)
		return Confirmation{}, activityFull(name)
	}
	activity.Participants = append(activity.Participants, email)
	d.recordChangeLocked(name, email, events.RosterActionEnrolled, len(activity.Participants))
	d.mu.Unlock()

	return Confirmation{Message: fmt.Sprintf("Signed up %s for %s", email, name)}, nil
}

// Withdraw removes email from the named activity's roster, keeping the order of
// the remaining participants.
func (d *Directory) Withdraw(ctx context.Context, name, email string) (Confirmation, error) {
	d.mu.Lock()
	activity, ok := d.activities[name]
	if !ok {
		d.mu.Unlock()
		observability.RecordRejection(string(events.RosterActionWithdrawn), ErrActivityNotFound.Reason)
		return Confirmation{}, ErrActivityNotFound
	}
	idx := indexOf(activity.Participants, email)
	if idx < 0 {
		d.mu.Unlock()
		observability.RecordRejection(string(events.RosterActionWithdrawn), ErrNotSignedUp.Reason)
		return Confirmation{}, notSignedUp(email, name)
	}
	activity.Participants = append(activity.Participants[:idx], activity.Participants[idx+1:]...)
	d.recordChangeLocked(name, email, events.RosterActionWithdrawn, len(activity.Participants))
	d.mu.Unlock()

	return Confirmation{Message: fmt.Sprintf("Removed %s from %s", email, name)}, nil
}

// recordChangeLocked must be called with the write lock held, so the roster gauge
// and the event queue see mutations in the order they were applied.
func (d *Directory) recordChangeLocked(name, email string, action events.RosterAction, size int) {
	observability.RecordRosterChange(name, string(action), size)
	if d.closed {
		return
	}

	event := events.RosterChanged{
		EventID:    uuid.NewString(),
		Activity:   name,
		Email:      email,
		Action:     action,
		RosterSize: size,
		OccurredAt: d.now(),
	}
	select {
	case d.queue <- event:
	default:
		observability.RecordEventDropped()
		d.logger.Warn("roster event queue full, dropping event",
			zap.String("activity", name),
			zap.String("action", string(action)),
			zap.String("event_id", event.EventID),
		)
	}
}

// publishLoop delivers queued events one at a time. A failed publish is logged
// only; the in-memory roster stays authoritative.
func (d *Directory) publishLoop() {
	defer close(d.done)
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
		err := d.publisher.Publish(ctx, event)
		cancel()
		if err != nil {
			d.logger.Warn("roster event publish failed",
				zap.String("activity", event.Activity),
				zap.String("action", string(event.Action)),
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
		}
	}
}
