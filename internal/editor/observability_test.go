package editor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingObserver struct{ events []UseCaseEvent }

func (c *countingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	c.events = append(c.events, e)
}

func TestUseCaseObserverOrNoop(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, useCaseObserverOrNoop(nil))
	assert.IsType(t, NoopUseCaseObserver{}, useCaseObserverOrNoop([]UseCaseObserver{nil}))

	one := &countingObserver{}
	assert.Same(t, one, useCaseObserverOrNoop([]UseCaseObserver{nil, one}))

	two := &countingObserver{}
	multi := useCaseObserverOrNoop([]UseCaseObserver{one, two})
	multi.ObserveUseCase(context.Background(), UseCaseEvent{Name: "x"})
	assert.Len(t, one.events, 1)
	assert.Len(t, two.events, 1)
}

func TestLogUseCaseObserver_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf)
	err := observe(context.Background(), obs, UseCaseCommit, map[string]any{"stream": "sections"}, func() error {
		return errors.New("write failed")
	})
	assert.EqualError(t, err, "write failed")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `error="write failed"`)
	assert.Contains(t, buf.String(), "success=false")
}

func TestNewLogUseCaseObserver_NilWriter(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
	assert.IsType(t, NoopUseCaseObserver{}, NewSlogUseCaseObserver(nil))
}
