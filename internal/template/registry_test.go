package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaults_AllTemplateTypesCovered(t *testing.T) {
	r := NewRegistry()
	for _, tt := range domain.TemplateTypes() {
		sections, err := r.RequiredSections(tt)
		require.NoError(t, err, "template %s", tt)
		assert.NotEmpty(t, sections)
	}
	nas, _ := r.RequiredSections(domain.TemplateNAS)
	rps, _ := r.RequiredSections(domain.TemplateRPS)
	assert.Len(t, nas, 5)
	assert.Len(t, rps, 4)
}

func TestDefaults_ValidateCleanly(t *testing.T) {
	errs := ValidateSchema(&FileSchema{Templates: Defaults()})
	assert.Empty(t, errs)
}

func TestRequiredSections_Unknown(t *testing.T) {
	_, err := NewRegistry().RequiredSections("BOGUS")
	require.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRequiredSections_ReturnsCopy(t *testing.T) {
	r := NewRegistry()
	first, err := r.RequiredSections(domain.TemplateNAS)
	require.NoError(t, err)
	first[0] = "mutated"

	second, err := r.RequiredSections(domain.TemplateNAS)
	require.NoError(t, err)
	assert.Equal(t, "identification", second[0])
}

func TestLoadFile_Missing(t *testing.T) {
	r, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	sections, err := r.RequiredSections(domain.TemplateCustom)
	require.NoError(t, err)
	assert.Equal(t, []string{"identification", "description_propriete"}, sections)
}

func TestLoadFile_OverridesOneTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	writeFile(t, path, `
templates:
  - type: CUSTOM
    name: Short form
    required_sections: [identification, photos, certification]
`)
	r, err := LoadFile(path)
	require.NoError(t, err)

	custom, err := r.RequiredSections(domain.TemplateCustom)
	require.NoError(t, err)
	assert.Equal(t, []string{"identification", "photos", "certification"}, custom)

	nas, err := r.RequiredSections(domain.TemplateNAS)
	require.NoError(t, err)
	assert.Len(t, nas, 5, "untouched templates keep their defaults")
}

func TestLoadFile_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown type":      "templates:\n  - type: XYZ\n    required_sections: [a]\n",
		"empty sections":    "templates:\n  - type: NAS\n    required_sections: []\n",
		"duplicate section": "templates:\n  - type: NAS\n    required_sections: [a, a]\n",
		"duplicate type":    "templates:\n  - type: NAS\n    required_sections: [a]\n  - type: NAS\n    required_sections: [b]\n",
		"no templates":      "version: \"1\"\n",
		"bad yaml":          "templates: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "templates.yaml")
			writeFile(t, path, content)
			_, err := LoadFile(path)
			require.Error(t, err)
		})
	}
}

func TestReload_KeepsTableOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	writeFile(t, path, "templates:\n  - type: RPS\n    required_sections: [a, b]\n")
	r, err := LoadFile(path)
	require.NoError(t, err)

	writeFile(t, path, "templates:\n  - type: RPS\n    required_sections: []\n")
	require.Error(t, r.Reload())

	rps, err := r.RequiredSections(domain.TemplateRPS)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rps)
}

func TestTemplates_Ordered(t *testing.T) {
	list := NewRegistry().Templates()
	require.Len(t, list, 4)
	assert.Equal(t, domain.TemplateNAS, list[0].Type)
	assert.Equal(t, domain.TemplateAICForm, list[3].Type)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	writeFile(t, path, "templates:\n  - type: CUSTOM\n    required_sections: [a]\n")
	r, err := LoadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx, nil, nil))

	writeFile(t, path, "templates:\n  - type: CUSTOM\n    required_sections: [a, b, c]\n")

	assert.Eventually(t, func() bool {
		sections, err := r.RequiredSections(domain.TemplateCustom)
		return err == nil && len(sections) == 3
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatch_RequiresPath(t *testing.T) {
	err := NewRegistry().Watch(context.Background(), nil, nil)
	require.Error(t, err)
}
