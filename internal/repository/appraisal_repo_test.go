package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/appraise/internal/db"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/repository"
	"github.com/alexanderramin/appraise/internal/testutil"
)

type backend struct {
	name string
	open func(t *testing.T) repository.AppraisalRepo
}

func backends() []backend {
	return []backend{
		{"sqlite", func(t *testing.T) repository.AppraisalRepo {
			return repository.NewSQLiteAppraisalRepo(testutil.NewTestDB(t))
		}},
		{"sqlite-file", func(t *testing.T) repository.AppraisalRepo {
			return repository.NewSQLiteAppraisalRepo(testutil.NewFileTestDB(t))
		}},
		{"redis", func(t *testing.T) repository.AppraisalRepo {
			s := miniredis.RunT(t)
			repo, err := repository.NewRedisAppraisalRepo(context.Background(), "redis://"+s.Addr())
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		}},
		{"badger", func(t *testing.T) repository.AppraisalRepo {
			bdb, err := db.OpenBadger(db.BadgerConfig{InMemory: true})
			require.NoError(t, err)
			t.Cleanup(func() { bdb.Close() })
			return repository.NewBadgerAppraisalRepo(bdb)
		}},
		{"postgres", func(t *testing.T) repository.AppraisalRepo {
			url := os.Getenv("APPRAISE_TEST_DATABASE_URL")
			if url == "" {
				t.Skip("APPRAISE_TEST_DATABASE_URL not set")
			}
			pg, err := db.OpenPostgres(context.Background(), url)
			require.NoError(t, err)
			t.Cleanup(func() {
				_, _ = pg.Exec(`DELETE FROM appraisals`)
				pg.Close()
			})
			return repository.NewPostgresAppraisalRepo(pg)
		}},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, repo repository.AppraisalRepo)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func TestAppraisalRepo_CreateRead(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		ctx := context.Background()
		a := testutil.NewTestAppraisal(
			testutil.WithPropertyID("prop-9"),
			testutil.WithCompletedSections("identification"),
			testutil.WithSection("methode_parite", domain.SectionRecord{"comparables": []any{map[string]any{"id": "c1"}}}),
			testutil.WithAdjustments(testutil.NewTestAdjustmentDocument("prop-9")),
			testutil.WithCompletion(20),
		)
		require.NoError(t, repo.Create(ctx, a))

		got, err := repo.Read(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, domain.TemplateNAS, got.TemplateType)
		assert.Equal(t, domain.AppraisalDraft, got.Status)
		assert.Equal(t, 20, got.CompletionPercentage)
		require.NotNil(t, got.PropertyID)
		assert.Equal(t, "prop-9", *got.PropertyID)
		assert.True(t, got.EffectiveDate.Equal(a.EffectiveDate))
		assert.True(t, got.Sections["identification"].Completed())
		require.NotNil(t, got.Adjustments)
		assert.Equal(t, 445000.0, got.Adjustments.Comparables[0].SalePrice)
		assert.Nil(t, got.EffectiveAge)
	})
}

func TestAppraisalRepo_ReadNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		_, err := repo.Read(context.Background(), "missing")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestAppraisalRepo_PartialUpdateLeavesOtherStreams(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		ctx := context.Background()
		a := testutil.NewTestAppraisal(
			testutil.WithCompletedSections("identification"),
			testutil.WithAdjustments(testutil.NewTestAdjustmentDocument("s")),
		)
		require.NoError(t, repo.Create(ctx, a))

		ws := &domain.EffectiveAgeWorksheet{ChronologicalAge: 40, EconomicLife: 60}
		ws.Recompute()
		require.NoError(t, repo.Update(ctx, a.ID, repository.AppraisalPatch{EffectiveAge: ws}))

		pct := 40
		sections := domain.SectionMap{
			"identification":        {"completed": true},
			"description_propriete": {"completed": true, "rooms": 7.0},
		}
		require.NoError(t, repo.Update(ctx, a.ID, repository.AppraisalPatch{Sections: sections, CompletionPercentage: &pct}))

		got, err := repo.Read(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, got.CompletionPercentage)
		assert.Equal(t, 7.0, got.Sections["description_propriete"]["rooms"])
		require.NotNil(t, got.Adjustments, "adjustments untouched by other streams")
		assert.Len(t, got.Adjustments.Comparables, 1)
		require.NotNil(t, got.EffectiveAge)
		assert.Equal(t, 40.0, got.EffectiveAge.EffectiveAge)
		assert.Equal(t, 20.0, got.EffectiveAge.RemainingEconomicLife)
	})
}

func TestAppraisalRepo_UpdateStatus(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		ctx := context.Background()
		a := testutil.NewTestAppraisal()
		require.NoError(t, repo.Create(ctx, a))

		status := domain.AppraisalCompleted
		require.NoError(t, repo.Update(ctx, a.ID, repository.AppraisalPatch{Status: &status}))
		got, err := repo.Read(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AppraisalCompleted, got.Status)
	})
}

func TestAppraisalRepo_UpdateNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		pct := 10
		err := repo.Update(context.Background(), "missing", repository.AppraisalPatch{CompletionPercentage: &pct})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestAppraisalRepo_ListAndDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		ctx := context.Background()
		first := testutil.NewTestAppraisal()
		second := testutil.NewTestAppraisal(testutil.WithTemplate(domain.TemplateRPS))
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, domain.TemplateRPS, list[1].TemplateType)

		require.NoError(t, repo.Delete(ctx, first.ID))
		_, err = repo.Read(ctx, first.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, first.ID), repository.ErrNotFound)

		list, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestAppraisalRepo_CreateDuplicate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		ctx := context.Background()
		a := testutil.NewTestAppraisal()
		require.NoError(t, repo.Create(ctx, a))
		require.Error(t, repo.Create(ctx, a))
	})
}

func TestSQLiteAppraisalRepo_SaveLog(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSQLiteAppraisalRepo(testutil.NewTestDB(t))
	a := testutil.NewTestAppraisal()
	require.NoError(t, repo.Create(ctx, a))

	pct := 0
	require.NoError(t, repo.Update(ctx, a.ID, repository.AppraisalPatch{Sections: domain.SectionMap{}, CompletionPercentage: &pct}))
	require.NoError(t, repo.Update(ctx, a.ID, repository.AppraisalPatch{Adjustments: &domain.AdjustmentDocument{}}))

	log, err := repo.SaveLog(ctx, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, []string{"adjustments"}, log[0].Fields)
	assert.ElementsMatch(t, []string{"sections", "completion"}, log[1].Fields)
}

func TestAppraisalRepo_ConcurrentStreamCommits(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo repository.AppraisalRepo) {
		ctx := context.Background()
		a := testutil.SeedAppraisal(t, repo)

		const rounds = 40
		patches := map[domain.Stream]func(i int) repository.AppraisalPatch{
			domain.StreamSections: func(i int) repository.AppraisalPatch {
				pct := i
				return repository.AppraisalPatch{
					Sections:             domain.SectionMap{"identification": {"round": float64(i)}},
					CompletionPercentage: &pct,
				}
			},
			domain.StreamAdjustments: func(i int) repository.AppraisalPatch {
				doc := testutil.NewTestAdjustmentDocument(fmt.Sprintf("subject-%d", i))
				return repository.AppraisalPatch{Adjustments: doc}
			},
			domain.StreamEffectiveAge: func(i int) repository.AppraisalPatch {
				ws := &domain.EffectiveAgeWorksheet{ChronologicalAge: float64(i), EconomicLife: 60}
				ws.Recompute()
				return repository.AppraisalPatch{EffectiveAge: ws}
			},
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(patches)*rounds)
		for stream, patch := range patches {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 1; i <= rounds; i++ {
					if err := repo.Update(ctx, a.ID, patch(i)); err != nil {
						errs <- fmt.Errorf("%s round %d: %w", stream, i, err)
					}
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		got, err := repo.Read(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(rounds), got.Sections["identification"]["round"])
		assert.Equal(t, rounds, got.CompletionPercentage)
		require.NotNil(t, got.Adjustments)
		assert.Equal(t, fmt.Sprintf("subject-%d", rounds), got.Adjustments.SubjectPropertyID)
		require.NotNil(t, got.EffectiveAge)
		assert.Equal(t, float64(rounds), got.EffectiveAge.ChronologicalAge)
	})
}
