package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/appraise/internal/adjustment"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/repository"
	"github.com/alexanderramin/appraise/internal/service"
	"github.com/alexanderramin/appraise/internal/template"
	"github.com/alexanderramin/appraise/internal/testutil"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) (*App, repository.AppraisalRepo) {
	t.Helper()
	repo := repository.NewSQLiteAppraisalRepo(testutil.NewTestDB(t))
	registry := template.NewRegistry()
	manager := editor.NewManager(repo, registry, editor.Options{Clock: testutil.NewFakeClock()})
	t.Cleanup(func() { _ = manager.CloseAll(context.Background()) })
	return &App{
		Appraisals: service.NewAppraisalService(repo, registry),
		Sessions:   manager,
	}, repo
}

func seedAppraisal(t *testing.T, repo repository.AppraisalRepo, opts ...testutil.AppraisalOption) *domain.Appraisal {
	t.Helper()
	a := testutil.NewTestAppraisal(opts...)
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

// seedGrid stores an appraisal with one comparable in both the adjustment
// grid and the direct-comparison section.
func seedGrid(t *testing.T, repo repository.AppraisalRepo) *domain.Appraisal {
	t.Helper()
	a := testutil.NewTestAppraisal()
	a.Adjustments = testutil.NewTestAdjustmentDocument(a.ID)
	a.Sections[domain.SectionDirectComparison] = domain.SectionRecord{
		adjustment.ComparablesField: []any{map[string]any{"id": "comp-1", "notes": "corner lot"}},
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return plain(buf.String()), err
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

func reload(t *testing.T, repo repository.AppraisalRepo, id string) *domain.Appraisal {
	t.Helper()
	a, err := repo.Read(context.Background(), id)
	require.NoError(t, err)
	return a
}

// --- appraisal ---

func TestAppraisalCreateAndList(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "appraisal", "create", "--template", "rps", "--date", "2025-02-14", "--class", "semicommercial")
	require.NoError(t, err)
	assert.Contains(t, out, "Created appraisal")
	assert.Contains(t, out, "(RPS, effective 2025-02-14)")

	out, err = executeCmd(t, app, "appraisal", "ls", "--template", "RPS")
	require.NoError(t, err)
	assert.Contains(t, out, "RPS")

	out, err = executeCmd(t, app, "appraisal", "ls", "--template", "NAS")
	require.NoError(t, err)
	assert.NotContains(t, out, "RPS")
}

func TestAppraisalCreateRejectsBadInput(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "appraisal", "create", "--template", "XYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")

	_, err = executeCmd(t, app, "appraisal", "create", "--date", "14/02/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid effective date")
}

func TestAppraisalShowResolvesPrefix(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo, testutil.WithCompletedSections("identification"))

	out, err := executeCmd(t, app, "appraisal", "show", a.ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "identification")
	assert.Contains(t, out, "certification")

	_, err = executeCmd(t, app, "appraisal", "show", "zzzzzzzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAppraisalStatus(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo)

	_, err := executeCmd(t, app, "appraisal", "status", a.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, domain.AppraisalCompleted, reload(t, repo, a.ID).Status)

	_, err = executeCmd(t, app, "appraisal", "status", a.ID, "signed")
	require.Error(t, err)
}

func TestAppraisalDelete(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo)

	_, err := executeCmd(t, app, "appraisal", "delete", a.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without --yes")

	app.IsInteractive = func() bool { return true }
	app.Confirm = func(string) (bool, error) { return false, nil }
	out, err := executeCmd(t, app, "appraisal", "rm", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	reload(t, repo, a.ID)

	out, err = executeCmd(t, app, "appraisal", "rm", "-y", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted appraisal "+a.ID[:8])
	_, err = repo.Read(context.Background(), a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAppraisalExportThenImport(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo, testutil.WithTemplate(domain.TemplateRPS), testutil.WithCompletedSections("identification"))
	path := filepath.Join(t.TempDir(), "a.json")

	out, err := executeCmd(t, app, "appraisal", "export", a.ID[:8], "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported appraisal "+a.ID[:8])

	_, err = executeCmd(t, app, "appraisal", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, repo.Delete(context.Background(), a.ID))
	out, err = executeCmd(t, app, "appraisal", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported appraisal "+a.ID+" (RPS, 25% complete)")

	out, err = executeCmd(t, app, "appraisal", "export", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"templateType": "RPS"`)
}

// --- section ---

func TestSectionSetSavesAndRecomputesCompletion(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo)

	out, err := executeCmd(t, app, "section", "set", a.ID[:8], "identification", "owner=Tremblay", "lot=12", "--completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated identification (3 field(s))")
	assert.Contains(t, out, "20%")

	got := reload(t, repo, a.ID)
	assert.Equal(t, 20, got.CompletionPercentage)
	rec := got.Sections["identification"]
	assert.Equal(t, "Tremblay", rec["owner"])
	assert.Equal(t, float64(12), rec["lot"])
	assert.True(t, rec.Completed())
}

func TestSectionSetMergesJSON(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo, testutil.WithSection("mandat", domain.SectionRecord{"client": "Banque"}))

	_, err := executeCmd(t, app, "section", "set", a.ID, "mandat", "--json", `{"purpose":"financing","units":2}`)
	require.NoError(t, err)

	rec := reload(t, repo, a.ID).Sections["mandat"]
	assert.Equal(t, "Banque", rec["client"])
	assert.Equal(t, "financing", rec["purpose"])
	assert.Equal(t, float64(2), rec["units"])
}

func TestSectionSetErrors(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"both flags", []string{"identification", "--completed", "--pending"}, "mutually exclusive"},
		{"empty", []string{"identification"}, "nothing to set"},
		{"bad pair", []string{"identification", "owner"}, "expected field=value"},
		{"bad json", []string{"identification", "--json", "{"}, "invalid --json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"section", "set", a.ID}, tt.args...)
			_, err := executeCmd(t, app, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Equal(t, 0, reload(t, repo, a.ID).CompletionPercentage)
}

func TestSectionList(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo,
		testutil.WithCompletedSections("identification"),
		testutil.WithSection("photos", domain.SectionRecord{"count": 4}),
	)

	out, err := executeCmd(t, app, "section", "list", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "✔ done")
	assert.Contains(t, out, "photos")
	assert.Contains(t, out, "optional")
	assert.Contains(t, out, "20%")
}

// --- adjust ---

func TestAdjustShow(t *testing.T) {
	app, repo := testApp(t)
	a := seedGrid(t, repo)

	out, err := executeCmd(t, app, "adjust", "show", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "COMP-1")
	assert.Contains(t, out, "+$28,000")
	assert.Contains(t, out, "$473,000")

	out, err = executeCmd(t, app, "adjust", "show", a.ID, "--units", "imperial")
	require.NoError(t, err)
	assert.Contains(t, out, "ft²")
	assert.Equal(t, domain.MeasurementMetric, reload(t, repo, a.ID).Adjustments.MeasurementSystem)
}

func TestAdjustOverrideAndClear(t *testing.T) {
	app, repo := testApp(t)
	a := seedGrid(t, repo)

	_, err := executeCmd(t, app, "adjust", "override", a.ID, "comp-1", "garage", "10000")
	require.NoError(t, err)
	c := reload(t, repo, a.ID).Adjustments.Comparables[0]
	require.NotNil(t, c.Lines[domain.CriterionGarage].Override)
	assert.Equal(t, 10000.0, *c.Lines[domain.CriterionGarage].Override)
	assert.Equal(t, 23000.0, c.TotalAdjustment)

	_, err = executeCmd(t, app, "adjust", "override", a.ID, "comp-1", "garage", "clear")
	require.NoError(t, err)
	c = reload(t, repo, a.ID).Adjustments.Comparables[0]
	assert.Nil(t, c.Lines[domain.CriterionGarage].Override)
	assert.Equal(t, 28000.0, c.TotalAdjustment)
}

func TestAdjustRateSubjectAndUnits(t *testing.T) {
	app, repo := testApp(t)
	a := seedGrid(t, repo)

	_, err := executeCmd(t, app, "adjust", "rate", a.ID, "garage", "20000")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "adjust", "subject", a.ID, "living_area", "150")
	require.NoError(t, err)

	doc := reload(t, repo, a.ID).Adjustments
	assert.Equal(t, 20000.0, doc.DefaultRates[domain.CriterionGarage])
	assert.Equal(t, 150.0, doc.Subject[domain.CriterionLivingArea])
	// 30*700 - 8000 + 20000 - 5000 + 12000
	assert.Equal(t, 40000.0, doc.Comparables[0].TotalAdjustment)

	_, err = executeCmd(t, app, "adjust", "units", a.ID, "imperial")
	require.NoError(t, err)
	assert.Equal(t, domain.MeasurementImperial, reload(t, repo, a.ID).Adjustments.MeasurementSystem)

	_, err = executeCmd(t, app, "adjust", "rate", a.ID, "view", "5")
	require.Error(t, err)
	_, err = executeCmd(t, app, "adjust", "rate", a.ID, "garage", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestAdjustComparableLifecycle(t *testing.T) {
	app, repo := testApp(t)
	a := seedGrid(t, repo)

	_, err := executeCmd(t, app, "adjust", "comparable", "add", a.ID, "comp-2", "--price", "400000", "--date", "2024-12-01")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "adjust", "comp", "set", a.ID, "comp-2", "garage", "1")
	require.NoError(t, err)

	doc := reload(t, repo, a.ID).Adjustments
	require.Len(t, doc.Comparables, 2)
	assert.Equal(t, "comp-2", doc.Comparables[1].ID)
	assert.Equal(t, 1.0, doc.Comparables[1].Values[domain.CriterionGarage])

	_, err = executeCmd(t, app, "adjust", "comparable", "add", a.ID, "comp-2", "--price", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = executeCmd(t, app, "adjust", "comparable", "rm", a.ID, "comp-1")
	require.NoError(t, err)
	doc = reload(t, repo, a.ID).Adjustments
	require.Len(t, doc.Comparables, 1)
	assert.Equal(t, "comp-2", doc.Comparables[0].ID)
}

func TestAdjustSync(t *testing.T) {
	app, repo := testApp(t)
	a := seedGrid(t, repo)

	out, err := executeCmd(t, app, "adjust", "sync", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 1 comparable(s) into methode_parite")

	comps, ok := reload(t, repo, a.ID).Sections[domain.SectionDirectComparison][adjustment.ComparablesField].([]any)
	require.True(t, ok)
	require.Len(t, comps, 1)
	entry := comps[0].(map[string]any)
	assert.Equal(t, "corner lot", entry["notes"])
	assert.Equal(t, 28000.0, entry[adjustment.FieldTotalAdjustment])
	assert.Equal(t, 473000.0, entry[adjustment.FieldAdjustedValue])
}

func TestAdjustSyncDeclined(t *testing.T) {
	app, repo := testApp(t)
	a := seedGrid(t, repo)
	app.IsInteractive = func() bool { return true }
	app.Confirm = func(string) (bool, error) { return false, nil }

	out, err := executeCmd(t, app, "adjust", "sync", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	comps := reload(t, repo, a.ID).Sections[domain.SectionDirectComparison][adjustment.ComparablesField].([]any)
	assert.NotContains(t, comps[0].(map[string]any), adjustment.FieldTotalAdjustment)
}

func TestAdjustSyncWithoutComparisonSection(t *testing.T) {
	app, repo := testApp(t)
	a := testutil.NewTestAppraisal()
	a.Adjustments = testutil.NewTestAdjustmentDocument(a.ID)
	require.NoError(t, repo.Create(context.Background(), a))

	_, err := executeCmd(t, app, "adjust", "sync", a.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, adjustment.ErrNoComparisonTarget)
}

// --- age ---

func TestAgeSet(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo)

	out, err := executeCmd(t, app, "age", "set", a.ID,
		"--chronological", "32", "--life", "60",
		"--component", "structure:25:0.6", "--component", "roof:8:0.4")
	require.NoError(t, err)
	assert.Contains(t, out, "18.2 yrs")

	ws := reload(t, repo, a.ID).EffectiveAge
	require.NotNil(t, ws)
	assert.InDelta(t, 18.2, ws.EffectiveAge, 1e-9)
	assert.InDelta(t, 41.8, ws.RemainingEconomicLife, 1e-9)

	// Flags left out keep their stored values.
	_, err = executeCmd(t, app, "age", "set", a.ID, "--life", "70")
	require.NoError(t, err)
	ws = reload(t, repo, a.ID).EffectiveAge
	assert.Equal(t, 32.0, ws.ChronologicalAge)
	assert.Len(t, ws.Components, 2)
	assert.InDelta(t, 51.8, ws.RemainingEconomicLife, 1e-9)

	out, err = executeCmd(t, app, "age", "show", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "structure")
}

func TestAgeSetRejectsBadComponent(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo)

	for _, spec := range []string{"roof", "roof:x:1", "roof:8:y", ":8:1"} {
		_, err := executeCmd(t, app, "age", "set", a.ID, "--component", spec)
		assert.Error(t, err, spec)
	}
	assert.Nil(t, reload(t, repo, a.ID).EffectiveAge)
}

// --- template / edit ---

func TestTemplateList(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "template", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "AIC_FORM")
	assert.Contains(t, out, "conciliation")
}

func TestEditRequiresTerminal(t *testing.T) {
	app, repo := testApp(t)
	a := seedAppraisal(t, repo)

	_, err := executeCmd(t, app, "edit", a.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestParseScalar(t *testing.T) {
	assert.Equal(t, true, parseScalar("true"))
	assert.Equal(t, false, parseScalar("false"))
	assert.Equal(t, 12.5, parseScalar("12.5"))
	assert.Equal(t, "True", parseScalar("True"))
	assert.Equal(t, "rue Principale", parseScalar("rue Principale"))
}
