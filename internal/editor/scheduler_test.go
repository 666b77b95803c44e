package editor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/testutil"
)

func newScheduler(clock editor.Clock, commit editor.CommitFunc) *editor.Scheduler {
	return editor.NewScheduler(editor.SchedulerConfig{Debounce: time.Second, Clock: clock},
		map[domain.Stream]editor.CommitFunc{domain.StreamSections: commit})
}

func TestScheduler_HydrationDoesNotSchedule(t *testing.T) {
	clock := testutil.NewFakeClock()
	var calls atomic.Int32
	s := newScheduler(clock, func(context.Context) error { calls.Add(1); return nil })
	defer s.Close()

	s.BeginHydration()
	s.Touch(domain.StreamSections)
	assert.Equal(t, domain.SaveUnsaved, s.State(domain.StreamSections))
	assert.False(t, s.Pending(domain.StreamSections))
	s.EndHydration()

	assert.Equal(t, domain.SaveSaved, s.State(domain.StreamSections))
	clock.Advance(time.Minute)
	assert.Zero(t, calls.Load())
}

func TestScheduler_CommitReadsStateAtFireTime(t *testing.T) {
	clock := testutil.NewFakeClock()
	value := "initial"
	var committed []string
	s := newScheduler(clock, func(context.Context) error {
		committed = append(committed, value)
		return nil
	})
	defer s.Close()

	value = "first"
	s.Touch(domain.StreamSections)
	clock.Advance(500 * time.Millisecond)
	value = "edited during quiet period"
	clock.Advance(500 * time.Millisecond)

	assert.Equal(t, []string{"edited during quiet period"}, committed)
}

func TestScheduler_UnknownStreamIgnored(t *testing.T) {
	clock := testutil.NewFakeClock()
	s := newScheduler(clock, func(context.Context) error { return nil })
	defer s.Close()
	s.Touch(domain.StreamAdjustments)
	assert.Equal(t, domain.SaveSaved, s.State(domain.StreamAdjustments))
	assert.NoError(t, s.Flush(context.Background(), domain.StreamAdjustments))
}

func TestScheduler_FlushSkipsSaved(t *testing.T) {
	clock := testutil.NewFakeClock()
	var calls atomic.Int32
	s := newScheduler(clock, func(context.Context) error { calls.Add(1); return nil })
	defer s.Close()

	require.NoError(t, s.Flush(context.Background(), domain.StreamSections))
	assert.Zero(t, calls.Load())

	s.Touch(domain.StreamSections)
	require.NoError(t, s.Flush(context.Background(), domain.StreamSections))
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, s.Pending(domain.StreamSections))
}

func TestScheduler_FlushAfterCloseFails(t *testing.T) {
	s := newScheduler(testutil.NewFakeClock(), func(context.Context) error { return nil })
	s.Touch(domain.StreamSections)
	s.Close()
	assert.ErrorIs(t, s.Flush(context.Background(), domain.StreamSections), editor.ErrSessionClosed)
	s.Touch(domain.StreamSections)
	assert.False(t, s.Pending(domain.StreamSections))
}

func TestScheduler_RealClock(t *testing.T) {
	done := make(chan struct{}, 1)
	s := editor.NewScheduler(editor.SchedulerConfig{Debounce: 10 * time.Millisecond},
		map[domain.Stream]editor.CommitFunc{domain.StreamSections: func(context.Context) error {
			done <- struct{}{}
			return nil
		}})
	defer s.Close()

	s.Touch(domain.StreamSections)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("commit did not fire")
	}
	assert.Eventually(t, func() bool {
		return s.State(domain.StreamSections) == domain.SaveSaved
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_FlushWaitingOnCommitStopsAtClose(t *testing.T) {
	clock := testutil.NewFakeClock()
	var calls atomic.Int32
	entered := make(chan struct{}, 4)
	gate := make(chan struct{})
	s := newScheduler(clock, func(context.Context) error {
		calls.Add(1)
		entered <- struct{}{}
		<-gate
		return nil
	})

	ctx := context.Background()
	s.Touch(domain.StreamSections)
	first := make(chan error, 1)
	go func() { first <- s.Flush(ctx, domain.StreamSections) }()
	<-entered

	// A newer edit, then a second Flush that has to wait for the first.
	s.Touch(domain.StreamSections)
	second := make(chan error, 1)
	go func() { second <- s.Flush(ctx, domain.StreamSections) }()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Eventually(t, func() bool {
		return errors.Is(s.Flush(cancelled, domain.StreamSections), editor.ErrSessionClosed)
	}, time.Second, 5*time.Millisecond)

	close(gate)
	require.NoError(t, <-first)
	require.ErrorIs(t, <-second, editor.ErrSessionClosed)
	<-closed
	assert.Equal(t, int32(1), calls.Load(), "no commit after close")
}
