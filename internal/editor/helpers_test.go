package editor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/repository"
	"github.com/alexanderramin/appraise/internal/template"
	"github.com/alexanderramin/appraise/internal/testutil"
)

const debounce = 2 * time.Second

// recordingRepo wraps a real repository, counting updates per stream and
// optionally failing or blocking them.
type recordingRepo struct {
	repository.AppraisalRepo

	mu       sync.Mutex
	updates  map[domain.Stream]int
	patches  []repository.AppraisalPatch
	failing  map[domain.Stream]error
	gate     chan struct{}
	entered  chan struct{}
	inFlight int
	maxIn    int
}

func newRecordingRepo(t *testing.T) *recordingRepo {
	t.Helper()
	return &recordingRepo{
		AppraisalRepo: repository.NewSQLiteAppraisalRepo(testutil.NewTestDB(t)),
		updates:       map[domain.Stream]int{},
		failing:       map[domain.Stream]error{},
	}
}

func patchStream(p repository.AppraisalPatch) (domain.Stream, bool) {
	switch {
	case p.Sections != nil:
		return domain.StreamSections, true
	case p.Adjustments != nil:
		return domain.StreamAdjustments, true
	case p.EffectiveAge != nil:
		return domain.StreamEffectiveAge, true
	}
	return "", false
}

func (r *recordingRepo) Update(ctx context.Context, id string, p repository.AppraisalPatch) error {
	stream, isStream := patchStream(p)

	r.mu.Lock()
	r.patches = append(r.patches, p)
	gate, entered := r.gate, r.entered
	err := r.failing[stream]
	if isStream {
		r.updates[stream]++
		r.inFlight++
		if r.inFlight > r.maxIn {
			r.maxIn = r.inFlight
		}
	}
	r.mu.Unlock()

	defer func() {
		if isStream {
			r.mu.Lock()
			r.inFlight--
			r.mu.Unlock()
		}
	}()

	if isStream && gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if isStream && err != nil {
		return err
	}
	return r.AppraisalRepo.Update(ctx, id, p)
}

func (r *recordingRepo) count(stream domain.Stream) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[stream]
}

func (r *recordingRepo) fail(stream domain.Stream, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failing, stream)
		return
	}
	r.failing[stream] = err
}

// block makes the next stream updates wait until the returned release func
// is called. Each blocked update first signals on entered.
func (r *recordingRepo) block() (entered <-chan struct{}, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
	r.entered = make(chan struct{}, 8)
	gate := r.gate
	var once sync.Once
	return r.entered, func() {
		once.Do(func() {
			r.mu.Lock()
			r.gate = nil
			r.mu.Unlock()
			close(gate)
		})
	}
}

var errBoom = errors.New("boom")

type fixture struct {
	repo    *recordingRepo
	clock   *testutil.FakeClock
	session *editor.Session
	id      string
}

func newFixture(t *testing.T, opts ...testutil.AppraisalOption) *fixture {
	t.Helper()
	repo := newRecordingRepo(t)
	a := testutil.NewTestAppraisal(opts...)
	require.NoError(t, repo.Create(context.Background(), a))

	clock := testutil.NewFakeClock()
	s, err := editor.LoadSession(context.Background(), repo, template.NewRegistry(), a.ID, editor.Options{
		Debounce: debounce,
		Clock:    clock,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &fixture{repo: repo, clock: clock, session: s, id: a.ID}
}

func (f *fixture) stored(t *testing.T) *domain.Appraisal {
	t.Helper()
	a, err := f.repo.Read(context.Background(), f.id)
	require.NoError(t, err)
	return a
}
