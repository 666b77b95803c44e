package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/appraise/internal/domain"
)

// DefaultDebounce is the quiet period after the last edit before a stream
// commits.
const DefaultDebounce = 2 * time.Second

// CommitFunc persists the current state of one stream. It must read the
// state at call time, not when the edit happened.
type CommitFunc func(ctx context.Context) error

type streamState struct {
	commit   CommitFunc
	timer    Timer
	timerSeq uint64
	state    domain.SaveState
	revision uint64
	inFlight bool
	rerun    bool
	idle     chan struct{} // closed when the in-flight commit finishes
	lastErr  error
}

// SchedulerConfig configures a Scheduler. Zero values select defaults.
type SchedulerConfig struct {
	Debounce time.Duration
	Clock    Clock
	Logger   *slog.Logger
	Observer UseCaseObserver
	// Fields are attached to every commit event, e.g. the appraisal id.
	Fields map[string]any
}

// Scheduler debounces and commits each save stream independently. At most
// one commit per stream is in flight; edits that land during a commit
// re-arm the stream once the commit finishes.
type Scheduler struct {
	cfg SchedulerConfig

	mu        sync.Mutex
	streams   map[domain.Stream]*streamState
	hydrating bool
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler for the given streams. All streams start
// Saved.
func NewScheduler(cfg SchedulerConfig, commits map[domain.Stream]CommitFunc) *Scheduler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Observer == nil {
		cfg.Observer = NoopUseCaseObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:     cfg,
		streams: make(map[domain.Stream]*streamState, len(commits)),
		ctx:     ctx,
		cancel:  cancel,
	}
	for stream, commit := range commits {
		s.streams[stream] = &streamState{commit: commit, state: domain.SaveSaved}
	}
	return s
}

// BeginHydration suppresses scheduling while loaded data is applied.
func (s *Scheduler) BeginHydration() {
	s.mu.Lock()
	s.hydrating = true
	s.mu.Unlock()
}

// EndHydration resumes scheduling and marks every stream Saved, since the
// in-memory state now equals what was just loaded.
func (s *Scheduler) EndHydration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrating = false
	for _, st := range s.streams {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		if !st.inFlight {
			st.state = domain.SaveSaved
		}
	}
}

// Touch records an edit on stream: the pending commit is cancelled, the
// stream becomes Unsaved and, outside hydration, a new commit is scheduled
// after the quiet period.
func (s *Scheduler) Touch(stream domain.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[stream]
	if !ok || s.closed {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	s.setState(stream, st, domain.SaveUnsaved)
	st.revision++
	if s.hydrating {
		return
	}
	st.timerSeq++
	seq := st.timerSeq
	st.timer = s.cfg.Clock.AfterFunc(s.cfg.Debounce, func() { s.fire(stream, seq) })
}

// State returns the save state of stream.
func (s *Scheduler) State(stream domain.Stream) domain.SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streams[stream]; ok {
		return st.state
	}
	return domain.SaveSaved
}

// LastError returns the error of the stream's most recent failed commit,
// cleared by the next successful one.
func (s *Scheduler) LastError(stream domain.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streams[stream]; ok {
		return st.lastErr
	}
	return nil
}

// Pending reports whether stream has a scheduled commit.
func (s *Scheduler) Pending(stream domain.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[stream]
	return ok && st.timer != nil
}

// Flush cancels the pending commit of stream and, unless it is already
// Saved, commits now. An in-flight commit is waited for first.
func (s *Scheduler) Flush(ctx context.Context, stream domain.Stream) error {
	s.mu.Lock()
	st, ok := s.streams[stream]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	for st.inFlight {
		// The finishing commit must not re-arm behind our back.
		st.rerun = false
		idle := st.idle
		s.mu.Unlock()
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrSessionClosed
		}
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
	if st.state == domain.SaveSaved {
		s.mu.Unlock()
		return nil
	}
	return s.runLocked(ctx, stream, st)
}

// Close cancels every pending commit and waits for in-flight commits to
// finish. Further edits are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, st := range s.streams {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		st.rerun = false
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.cancel()
}

func (s *Scheduler) fire(stream domain.Stream, seq uint64) {
	s.mu.Lock()
	st := s.streams[stream]
	if s.closed || st.timer == nil || st.timerSeq != seq {
		// Stopped after the clock had already started the call.
		s.mu.Unlock()
		return
	}
	st.timer = nil
	if st.inFlight {
		st.rerun = true
		s.mu.Unlock()
		return
	}
	_ = s.runLocked(s.ctx, stream, st)
}

// runLocked commits stream. It is called with s.mu held and returns with
// it released.
func (s *Scheduler) runLocked(ctx context.Context, stream domain.Stream, st *streamState) error {
	s.setState(stream, st, domain.SaveSaving)
	st.inFlight = true
	st.idle = make(chan struct{})
	rev := st.revision
	s.wg.Add(1)
	s.mu.Unlock()

	fields := make(map[string]any, len(s.cfg.Fields)+1)
	for k, v := range s.cfg.Fields {
		fields[k] = v
	}
	fields["stream"] = string(stream)
	err := observe(ctx, s.cfg.Observer, UseCaseCommit, fields, func() error {
		return st.commit(ctx)
	})

	s.mu.Lock()
	st.inFlight = false
	close(st.idle)
	switch {
	case err != nil:
		st.lastErr = err
		s.setState(stream, st, domain.SaveUnsaved)
		s.cfg.Logger.Error("autosave_failed", "stream", string(stream), "error", err.Error())
	case st.revision == rev:
		st.lastErr = nil
		s.setState(stream, st, domain.SaveSaved)
	default:
		// A newer edit arrived mid-commit; its own timer persists it.
		st.lastErr = nil
	}
	rerun := st.rerun && !s.closed
	st.rerun = false
	if rerun && st.timer == nil {
		_ = s.runLocked(s.ctx, stream, st)
		s.wg.Done()
		return err
	}
	s.mu.Unlock()
	s.wg.Done()
	return err
}

func (s *Scheduler) setState(stream domain.Stream, st *streamState, next domain.SaveState) {
	if st.state == next && next != domain.SaveUnsaved {
		return
	}
	updated, err := st.state.Transition(next)
	if err != nil {
		s.cfg.Logger.Warn("save_state", "stream", string(stream), "error", err.Error())
		st.state = next
		return
	}
	st.state = updated
}
