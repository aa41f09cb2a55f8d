package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"example.com/signup/internal/events"
)

func newChessDirectory(opts ...Option) *Directory {
	return NewDirectory(map[string]Activity{
		"Chess Club": {
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@x", "daniel@x"},
		},
	}, opts...)
}

func TestListReturnsSeededCatalog(t *testing.T) {
	dir := NewDirectory(SeedCatalog())

	got := dir.List(context.Background())
	require.Len(t, got, 9)
	for name, activity := range got {
		require.NotEmpty(t, activity.Description, name)
		require.NotEmpty(t, activity.Schedule, name)
		require.Positive(t, activity.MaxParticipants, name)
		require.NotNil(t, activity.Participants, name)
	}
	require.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, got["Chess Club"].Participants)
}

func TestListIsASnapshot(t *testing.T) {
	dir := newChessDirectory()
	ctx := context.Background()

	snapshot := dir.List(ctx)
	chess := snapshot["Chess Club"]
	chess.Participants[0] = "mallory@x"

	require.Equal(t, []string{"michael@x", "daniel@x"}, dir.List(ctx)["Chess Club"].Participants)
}

func TestNewDirectoryCopiesSeed(t *testing.T) {
	seed := SeedCatalog()
	dir := NewDirectory(seed)
	seed["Chess Club"].Participants[0] = "changed@x"

	got, err := dir.Get(context.Background(), "Chess Club")
	require.NoError(t, err)
	require.Equal(t, "michael@mergington.edu", got.Participants[0])
}

func TestChessClubScenario(t *testing.T) {
	dir := newChessDirectory()
	ctx := context.Background()

	conf, err := dir.Enroll(ctx, "Chess Club", "new@x")
	require.NoError(t, err)
	require.Contains(t, conf.Message, "new@x")
	require.Contains(t, conf.Message, "Chess Club")

	roster := dir.List(ctx)["Chess Club"].Participants
	require.Len(t, roster, 3)
	require.Equal(t, "new@x", roster[2])

	_, err = dir.Enroll(ctx, "Chess Club", "michael@x")
	require.True(t, IsConflict(err))
	require.ErrorIs(t, err, ErrAlreadySignedUp)
	require.Contains(t, err.Error(), "already signed up")

	_, err = dir.Enroll(ctx, "Nonexistent", "x@x")
	require.True(t, IsNotFound(err))

	conf, err = dir.Withdraw(ctx, "Chess Club", "michael@x")
	require.NoError(t, err)
	require.Contains(t, conf.Message, "Removed")
	require.NotContains(t, dir.List(ctx)["Chess Club"].Participants, "michael@x")

	_, err = dir.Withdraw(ctx, "Chess Club", "michael@x")
	require.True(t, IsConflict(err))
	require.ErrorIs(t, err, ErrNotSignedUp)
	require.Contains(t, err.Error(), "not signed up")

	_, err = dir.Withdraw(ctx, "Nonexistent", "x@x")
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestEnrollUnknownActivityLeavesDirectoryUnchanged(t *testing.T) {
	dir := NewDirectory(SeedCatalog())
	ctx := context.Background()
	before := dir.List(ctx)

	_, err := dir.Enroll(ctx, "chess club", "x@x")
	require.ErrorIs(t, err, ErrActivityNotFound)
	_, err = dir.Enroll(ctx, "Chess Club ", "x@x")
	require.ErrorIs(t, err, ErrActivityNotFound)

	require.Equal(t, before, dir.List(ctx))
}

func TestEnrollThenWithdrawRestoresRoster(t *testing.T) {
	dir := NewDirectory(SeedCatalog())
	ctx := context.Background()
	before := dir.List(ctx)["Drama Club"].Participants

	_, err := dir.Enroll(ctx, "Drama Club", "zoe@x")
	require.NoError(t, err)
	_, err = dir.Withdraw(ctx, "Drama Club", "zoe@x")
	require.NoError(t, err)

	require.Equal(t, before, dir.List(ctx)["Drama Club"].Participants)
}

func TestWithdrawPreservesOrderOfRemaining(t *testing.T) {
	dir := newChessDirectory()
	ctx := context.Background()
	for _, email := range []string{"a@x", "b@x", "c@x"} {
		_, err := dir.Enroll(ctx, "Chess Club", email)
		require.NoError(t, err)
	}

	_, err := dir.Withdraw(ctx, "Chess Club", "daniel@x")
	require.NoError(t, err)

	require.Equal(t, []string{"michael@x", "a@x", "b@x", "c@x"}, dir.List(ctx)["Chess Club"].Participants)
}

func TestEnrollBeyondCapacityAllowedByDefault(t *testing.T) {
	dir := NewDirectory(map[string]Activity{
		"Tiny Club": {MaxParticipants: 1, Participants: []string{"first@x"}},
	})

	_, err := dir.Enroll(context.Background(), "Tiny Club", "second@x")
	require.NoError(t, err)

	got, err := dir.Get(context.Background(), "Tiny Club")
	require.NoError(t, err)
	require.Equal(t, -1, got.SpotsLeft())
}

func TestEnrollRejectsWhenCapacityEnforced(t *testing.T) {
	dir := NewDirectory(map[string]Activity{
		"Tiny Club": {MaxParticipants: 1, Participants: []string{"first@x"}},
	}, WithCapacityEnforcement())

	_, err := dir.Enroll(context.Background(), "Tiny Club", "second@x")
	require.True(t, IsConflict(err))
	require.ErrorIs(t, err, ErrActivityFull)

	got, err := dir.Get(context.Background(), "Tiny Club")
	require.NoError(t, err)
	require.Equal(t, []string{"first@x"}, got.Participants)
}

func TestGetUnknownActivity(t *testing.T) {
	dir := newChessDirectory()
	_, err := dir.Get(context.Background(), "Nonexistent")
	require.True(t, IsNotFound(err))
	require.Equal(t, "Activity not found", err.Error())
}

func TestMutationsPublishEvents(t *testing.T) {
	fixed := time.Date(2025, time.September, 1, 15, 30, 0, 0, time.UTC)
	pub := &recordingPublisher{}
	dir := newChessDirectory(WithPublisher(pub), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	_, err := dir.Enroll(ctx, "Chess Club", "new@x")
	require.NoError(t, err)
	_, err = dir.Withdraw(ctx, "Chess Club", "michael@x")
	require.NoError(t, err)
	_, err = dir.Withdraw(ctx, "Chess Club", "michael@x")
	require.Error(t, err)
	dir.Close()

	require.Len(t, pub.events, 2)
	require.Equal(t, events.RosterActionEnrolled, pub.events[0].Action)
	require.Equal(t, 3, pub.events[0].RosterSize)
	require.Equal(t, "new@x", pub.events[0].Email)
	require.Equal(t, fixed, pub.events[0].OccurredAt)
	require.NotEmpty(t, pub.events[0].EventID)
	require.Equal(t, events.RosterActionWithdrawn, pub.events[1].Action)
	require.Equal(t, 2, pub.events[1].RosterSize)
}

func TestPublishFailureDoesNotFailEnroll(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dir := newChessDirectory(
		WithPublisher(&recordingPublisher{err: errors.New("broker down")}),
		WithLogger(zap.New(core)),
	)

	_, err := dir.Enroll(context.Background(), "Chess Club", "new@x")
	require.NoError(t, err)
	require.Contains(t, dir.List(context.Background())["Chess Club"].Participants, "new@x")

	dir.Close()
	require.Equal(t, 1, logs.FilterMessage("roster event publish failed").Len())
}

func TestSlowPublisherDoesNotDelayEnroll(t *testing.T) {
	pub := newBlockingPublisher()
	dir := newChessDirectory(WithPublisher(pub))

	start := time.Now()
	_, err := dir.Enroll(context.Background(), "Chess Club", "new@x")
	require.NoError(t, err)
	require.Less(t, time.Since(start), 100*time.Millisecond)

	<-pub.started
	require.Empty(t, pub.delivered())

	close(pub.release)
	dir.Close()
	require.Len(t, pub.delivered(), 1)
	require.Equal(t, "new@x", pub.delivered()[0].Email)
}

func TestPublishAttemptIsBoundedByTimeout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dir := newChessDirectory(
		WithPublisher(stuckPublisher{}),
		WithPublishTimeout(20*time.Millisecond),
		WithLogger(zap.New(core)),
	)

	_, err := dir.Enroll(context.Background(), "Chess Club", "new@x")
	require.NoError(t, err)

	dir.Close()
	entries := logs.FilterMessage("roster event publish failed").All()
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].ContextMap()["error"], context.DeadlineExceeded.Error())
}

func TestFullPublishQueueDropsEvents(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := newBlockingPublisher()
	dir := newChessDirectory(WithPublisher(pub), WithPublishBuffer(1), WithLogger(zap.New(core)))
	ctx := context.Background()

	_, err := dir.Enroll(ctx, "Chess Club", "a@x")
	require.NoError(t, err)
	<-pub.started

	for _, email := range []string{"b@x", "c@x"} {
		_, err = dir.Enroll(ctx, "Chess Club", email)
		require.NoError(t, err)
	}
	require.Len(t, dir.List(ctx)["Chess Club"].Participants, 5)

	close(pub.release)
	dir.Close()

	got := pub.delivered()
	require.Len(t, got, 2)
	require.Equal(t, "a@x", got[0].Email)
	require.Equal(t, "b@x", got[1].Email)
	require.Equal(t, 1, logs.FilterMessage("roster event queue full, dropping event").Len())
}

func TestMutationsAfterCloseStillApply(t *testing.T) {
	pub := &recordingPublisher{}
	dir := newChessDirectory(WithPublisher(pub))
	dir.Close()
	dir.Close()

	_, err := dir.Enroll(context.Background(), "Chess Club", "late@x")
	require.NoError(t, err)
	require.Contains(t, dir.List(context.Background())["Chess Club"].Participants, "late@x")
	require.Empty(t, pub.events)
}

func TestConcurrentEnrollSameEmailAddsOnce(t *testing.T) {
	dir := newChessDirectory()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := dir.Enroll(ctx, "Chess Club", "race@x"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Len(t, dir.List(ctx)["Chess Club"].Participants, 3)
}

func TestRosterGaugeTracksConcurrentMutations(t *testing.T) {
	dir := NewDirectory(map[string]Activity{"Gauge Club": {MaxParticipants: 100}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("student%d@x", i)
			_, _ = dir.Enroll(ctx, "Gauge Club", email)
			if i%2 == 0 {
				_, _ = dir.Withdraw(ctx, "Gauge Club", email)
			}
		}(i)
	}
	wg.Wait()

	got, err := dir.Get(ctx, "Gauge Club")
	require.NoError(t, err)
	require.Len(t, got.Participants, 25)
	require.InDelta(t, 25, rosterGauge(t, "Gauge Club"), 0.0001)
}

func rosterGauge(t *testing.T, activity string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "signup_service_directory_roster_size" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "activity" && label.GetValue() == activity {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("no roster gauge for %s", activity)
	return 0
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RosterChanged
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.RosterChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// blockingPublisher holds every Publish call until release is closed.
type blockingPublisher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu     sync.Mutex
	events []events.RosterChanged
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *blockingPublisher) Publish(_ context.Context, event events.RosterChanged) error {
	p.once.Do(func() { close(p.started) })
	<-p.release
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *blockingPublisher) delivered() []events.RosterChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.RosterChanged(nil), p.events...)
}

type stuckPublisher struct{}

func (stuckPublisher) Publish(ctx context.Context, _ events.RosterChanged) error {
	<-ctx.Done()
	return ctx.Err()
}
