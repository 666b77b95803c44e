// Package editor holds the state of one appraisal while it is being edited:
// the section store, the per-stream autosave scheduler and the session that
// ties them to persistence and the adjustment engine.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/appraise/internal/adjustment"
	"github.com/alexanderramin/appraise/internal/completion"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/repository"
)

// Persistence is the document store a session reads from and commits to.
type Persistence interface {
	Read(ctx context.Context, id string) (*domain.Appraisal, error)
	Update(ctx context.Context, id string, patch repository.AppraisalPatch) error
}

// TemplateSource resolves a template type to its required sections.
type TemplateSource interface {
	RequiredSections(t domain.TemplateType) ([]string, error)
}

// Options configures sessions. Zero values select defaults.
type Options struct {
	Debounce  time.Duration
	Clock     Clock
	Logger    *slog.Logger
	Observers []UseCaseObserver
}

var documentValidate = validator.New()

// Session is one open appraisal. All methods are safe for concurrent use.
type Session struct {
	id       string
	repo     Persistence
	meta     domain.Appraisal
	required []string
	store    *Store
	sched    *Scheduler
	obs      UseCaseObserver
	logger   *slog.Logger

	mu           sync.RWMutex
	adjustments  *domain.AdjustmentDocument
	effectiveAge *domain.EffectiveAgeWorksheet
	completion   int
	closed       bool
	unsubscribe  func()
}

// Status summarises a session for renderers.
type Status struct {
	AppraisalID string                             `json:"appraisalId"`
	Completion  int                                `json:"completionPercentage"`
	States      map[domain.Stream]domain.SaveState `json:"saveStates"`
	Errors      map[domain.Stream]string           `json:"errors,omitempty"`
}

// LoadSession reads the appraisal and opens an editing session on it. A
// stored completion percentage that disagrees with the sections is
// corrected with a single write. Failures are returned as *LoadError.
func LoadSession(ctx context.Context, repo Persistence, templates TemplateSource, id string, opts Options) (*Session, error) {
	obs := useCaseObserverOrNoop(opts.Observers)
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var s *Session
	err := observe(ctx, obs, UseCaseLoadSession, map[string]any{"appraisal_id": id}, func() error {
		a, err := repo.Read(ctx, id)
		if err != nil {
			return &LoadError{AppraisalID: id, Err: err}
		}
		required, err := templates.RequiredSections(a.TemplateType)
		if err != nil {
			return &LoadError{AppraisalID: id, Err: err}
		}
		s = newSession(a, required, repo, obs, logger, opts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sched.BeginHydration()
	s.reconcileCompletion(ctx)
	s.sched.EndHydration()
	return s, nil
}

func newSession(a *domain.Appraisal, required []string, repo Persistence, obs UseCaseObserver, logger *slog.Logger, opts Options) *Session {
	meta := *a
	meta.Sections, meta.Adjustments, meta.EffectiveAge = nil, nil, nil

	s := &Session{
		id:           a.ID,
		repo:         repo,
		meta:         meta,
		required:     required,
		store:        NewStore(a.Sections),
		obs:          obs,
		logger:       logger.With("appraisal_id", a.ID),
		adjustments:  adjustment.Compute(a.Adjustments),
		effectiveAge: a.EffectiveAge.Clone(),
	}
	s.completion = completion.Percentage(required, s.store.Snapshot())
	s.sched = NewScheduler(SchedulerConfig{
		Debounce: opts.Debounce,
		Clock:    opts.Clock,
		Logger:   s.logger,
		Observer: obs,
		Fields:   map[string]any{"appraisal_id": a.ID},
	}, map[domain.Stream]CommitFunc{
		domain.StreamSections:     s.commitSections,
		domain.StreamAdjustments:  s.commitAdjustments,
		domain.StreamEffectiveAge: s.commitEffectiveAge,
	})
	s.unsubscribe = s.store.Subscribe(s.onSectionsChanged)
	return s
}

func (s *Session) reconcileCompletion(ctx context.Context) {
	s.mu.RLock()
	pct := s.completion
	s.mu.RUnlock()
	if pct == s.meta.CompletionPercentage {
		return
	}
	fields := map[string]any{"appraisal_id": s.id, "stored": s.meta.CompletionPercentage, "computed": pct}
	err := observe(ctx, s.obs, UseCaseCompletionReconcile, fields, func() error {
		return s.repo.Update(ctx, s.id, repository.AppraisalPatch{CompletionPercentage: &pct})
	})
	if err != nil {
		s.logger.Warn("completion_reconcile_failed", "error", err.Error())
		return
	}
	s.meta.CompletionPercentage = pct
}

func (s *Session) onSectionsChanged(change Change) {
	pct := completion.Percentage(s.required, change.Snapshot)
	s.mu.Lock()
	s.completion = pct
	s.mu.Unlock()
	s.sched.Touch(domain.StreamSections)
}

// ID returns the appraisal id.
func (s *Session) ID() string { return s.id }

// Appraisal returns a copy of the appraisal as currently edited.
func (s *Session) Appraisal() *domain.Appraisal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.meta
	a.Sections = s.store.Snapshot()
	a.Adjustments = s.adjustments.Clone()
	a.EffectiveAge = s.effectiveAge.Clone()
	a.CompletionPercentage = s.completion
	return &a
}

// RequiredSections returns the template's required sections in order.
func (s *Session) RequiredSections() []string {
	return append([]string(nil), s.required...)
}

// UpdateSection merges payload over one section.
func (s *Session) UpdateSection(sectionID string, payload domain.SectionRecord) error {
	if sectionID == "" {
		return errors.New("section id is required")
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.store.Update(sectionID, payload)
	return nil
}

// Sections returns a snapshot of the section map.
func (s *Session) Sections() domain.SectionMap {
	return s.store.Snapshot()
}

// UpdateAdjustments replaces the adjustment document. Derived lines and
// totals are recomputed before it is stored.
func (s *Session) UpdateAdjustments(doc *domain.AdjustmentDocument) error {
	if doc == nil {
		return errors.New("adjustment document is required")
	}
	if err := documentValidate.Struct(doc); err != nil {
		return fmt.Errorf("invalid adjustment document: %w", err)
	}
	return s.EditAdjustments(func(*domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
		return doc, nil
	})
}

// EditAdjustments applies fn to a copy of the current document and stores
// the recomputed result. fn's error aborts the edit.
func (s *Session) EditAdjustments(fn func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error)) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	current := s.adjustments.Clone()
	if current == nil {
		current = &domain.AdjustmentDocument{PropertyType: s.meta.EffectivePropertyClass(), MeasurementSystem: domain.MeasurementMetric}
	}
	next, err := fn(current)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.adjustments = adjustment.Compute(next)
	s.mu.Unlock()
	s.sched.Touch(domain.StreamAdjustments)
	return nil
}

// Adjustments returns a copy of the computed adjustment document, or nil.
func (s *Session) Adjustments() *domain.AdjustmentDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adjustments.Clone()
}

// UpdateEffectiveAge replaces the effective-age worksheet and recomputes
// its derived fields.
func (s *Session) UpdateEffectiveAge(ws domain.EffectiveAgeWorksheet) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	next := ws.Clone()
	next.Recompute()
	s.mu.Lock()
	s.effectiveAge = next
	s.mu.Unlock()
	s.sched.Touch(domain.StreamEffectiveAge)
	return nil
}

// EffectiveAge returns a copy of the worksheet, or nil.
func (s *Session) EffectiveAge() *domain.EffectiveAgeWorksheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effectiveAge.Clone()
}

// TriggerSync writes the calculator's per-comparable totals into the active
// comparison section. Only the derived total fields of each comparable are
// written; the write goes through the section store, and the projection is
// taken from the same map it is merged into.
func (s *Session) TriggerSync(ctx context.Context) (adjustment.Projection, error) {
	if err := s.checkOpen(); err != nil {
		return adjustment.Projection{}, err
	}
	var proj adjustment.Projection
	fields := map[string]any{"appraisal_id": s.id}
	err := observe(ctx, s.obs, UseCaseSync, fields, func() error {
		doc := s.Adjustments()
		class := s.meta.EffectivePropertyClass()
		if doc != nil && doc.PropertyType != "" {
			class = doc.PropertyType
		}
		_, err := s.store.UpdateFunc(func(current domain.SectionMap) (string, domain.SectionRecord, error) {
			var err error
			proj, err = adjustment.ProjectTotals(doc, current, class)
			if err != nil {
				return "", nil, err
			}
			return proj.Target.Key, proj.Payload, nil
		})
		if err != nil {
			return err
		}
		fields["target"] = proj.Target.Key
		fields["matched"] = proj.Matched
		return nil
	})
	return proj, err
}

// SaveNow cancels pending timers and commits every stream that is not
// Saved, in parallel. It returns the joined errors of failed streams.
func (s *Session) SaveNow(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	streams := domain.Streams()
	errs := make([]error, len(streams))
	return observe(ctx, s.obs, UseCaseSaveNow, map[string]any{"appraisal_id": s.id}, func() error {
		var g errgroup.Group
		for i, stream := range streams {
			g.Go(func() error {
				if err := s.sched.Flush(ctx, stream); err != nil {
					errs[i] = fmt.Errorf("%s: %w", stream, err)
				}
				return nil
			})
		}
		_ = g.Wait()
		return errors.Join(errs...)
	})
}

// SaveState returns the save state of one stream.
func (s *Session) SaveState(stream domain.Stream) domain.SaveState {
	return s.sched.State(stream)
}

// LastError returns the last commit failure of stream, if not yet cleared
// by a successful commit.
func (s *Session) LastError(stream domain.Stream) error {
	return s.sched.LastError(stream)
}

// Completion returns the current completion percentage.
func (s *Session) Completion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completion
}

// CompletionBreakdown reports each required section's state.
func (s *Session) CompletionBreakdown() []completion.SectionStatus {
	return completion.Breakdown(s.required, s.store.Snapshot())
}

// Status returns completion and every stream's save state.
func (s *Session) Status() Status {
	st := Status{
		AppraisalID: s.id,
		Completion:  s.Completion(),
		States:      make(map[domain.Stream]domain.SaveState, 3),
	}
	for _, stream := range domain.Streams() {
		st.States[stream] = s.sched.State(stream)
		if err := s.sched.LastError(stream); err != nil {
			if st.Errors == nil {
				st.Errors = map[domain.Stream]string{}
			}
			st.Errors[stream] = err.Error()
		}
	}
	return st
}

// Subscribe registers fn for section changes. Call the returned func to
// stop receiving them.
func (s *Session) Subscribe(fn func(Change)) func() {
	return s.store.Subscribe(fn)
}

// Close cancels every pending commit. Unsaved edits are discarded; call
// SaveNow first to keep them.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.unsubscribe()
	s.sched.Close()
}

func (s *Session) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) commitSections(ctx context.Context) error {
	snap := s.store.Snapshot()
	pct := completion.Percentage(s.required, snap)
	return s.repo.Update(ctx, s.id, repository.AppraisalPatch{Sections: snap, CompletionPercentage: &pct})
}

func (s *Session) commitAdjustments(ctx context.Context) error {
	doc := s.Adjustments()
	if doc == nil {
		return nil
	}
	return s.repo.Update(ctx, s.id, repository.AppraisalPatch{Adjustments: doc})
}

func (s *Session) commitEffectiveAge(ctx context.Context) error {
	ws := s.EffectiveAge()
	if ws == nil {
		return nil
	}
	return s.repo.Update(ctx, s.id, repository.AppraisalPatch{EffectiveAge: ws})
}
