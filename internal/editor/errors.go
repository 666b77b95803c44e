package editor

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/appraise/internal/repository"
)

var (
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("editing session closed")
	// ErrNotLoaded is returned when no session is open for an appraisal.
	ErrNotLoaded = errors.New("no editing session for appraisal")
)

// Event names reported to UseCaseObserver.
const (
	UseCaseLoadSession         = "load_session"
	UseCaseCommit              = "commit"
	UseCaseSync                = "sync"
	UseCaseCompletionReconcile = "completion_reconcile"
	UseCaseSaveNow             = "save_now"
)

// LoadError reports a session that could not be loaded. It is not retried.
type LoadError struct {
	AppraisalID string
	Err         error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading appraisal %s: %v", e.AppraisalID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotFound reports whether the appraisal does not exist, as opposed to a
// transport or configuration failure.
func (e *LoadError) NotFound() bool {
	return errors.Is(e.Err, repository.ErrNotFound)
}
