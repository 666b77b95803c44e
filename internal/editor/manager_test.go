package editor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/template"
	"github.com/alexanderramin/appraise/internal/testutil"
)

func TestManager_OneSessionPerAppraisal(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo(t)
	a := testutil.NewTestAppraisal()
	require.NoError(t, repo.Create(ctx, a))

	m := editor.NewManager(repo, template.NewRegistry(), editor.Options{Clock: testutil.NewFakeClock()})
	first, err := m.Open(ctx, a.ID)
	require.NoError(t, err)
	second, err := m.Open(ctx, a.ID)
	require.NoError(t, err)
	assert.Same(t, first, second)

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, []string{a.ID}, m.IDs())

	_, err = m.Get("other")
	require.ErrorIs(t, err, editor.ErrNotLoaded)
}

func TestManager_OpenMissing(t *testing.T) {
	m := editor.NewManager(newRecordingRepo(t), template.NewRegistry(), editor.Options{})
	_, err := m.Open(context.Background(), "missing")
	var loadErr *editor.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Empty(t, m.IDs())
}

func TestManager_CloseSavesPendingEdits(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo(t)
	a := testutil.NewTestAppraisal()
	b := testutil.NewTestAppraisal()
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	clock := testutil.NewFakeClock()
	m := editor.NewManager(repo, template.NewRegistry(), editor.Options{Clock: clock})
	sa, err := m.Open(ctx, a.ID)
	require.NoError(t, err)
	sb, err := m.Open(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, sa.UpdateSection("identification", domain.SectionRecord{"completed": true}))
	require.NoError(t, sb.UpdateSection("identification", domain.SectionRecord{"completed": true}))

	require.NoError(t, m.Close(ctx, a.ID))
	stored, err := repo.Read(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.CompletionPercentage)
	assert.ErrorIs(t, sa.UpdateSection("x", nil), editor.ErrSessionClosed)
	require.ErrorIs(t, m.Close(ctx, a.ID), editor.ErrNotLoaded)

	require.NoError(t, m.CloseAll(ctx))
	assert.Empty(t, m.IDs())
	assert.Zero(t, clock.Pending())
	stored, err = repo.Read(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.Sections["identification"].Completed())
}
