package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpay/payroll-extractor/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	return NewStore(filepath.Join(root, "mappings"), filepath.Join(root, "templates"), nil)
}

func TestStorePutGetMapping(t *testing.T) {
	s := newTestStore(t)
	m := New(Pair{"EmployeeName", "name"}, Pair{"SSN", "ssn"})

	require.NoError(t, s.PutMapping("crew", m))

	got, err := s.GetMapping("crew")
	require.NoError(t, err)
	assert.Equal(t, m.Pairs(), got.Pairs())
}

func TestStoreGetMappingNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetMapping("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMappingNotFound)
}

func TestStoreGetMappingInvalidFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.mappingsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.mappingsDir, "broken.json"), []byte(`{"Name": 3}`), 0o644))

	_, err := s.GetMapping("broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestStoreRejectsBadNames(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"", "../escape", "UPPER", "has space", "-leading"} {
		_, err := s.GetMapping(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestStorePutMappingEmpty(t *testing.T) {
	s := newTestStore(t)

	err := s.PutMapping("empty", New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestStoreListMappings(t *testing.T) {
	s := newTestStore(t)

	names, err := s.ListMappings()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, s.PutMapping("zeta", New(Pair{"A", "a"})))
	require.NoError(t, s.PutMapping("alpha", New(Pair{"A", "a"})))

	names, err = s.ListMappings()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestStorePutGetTemplate(t *testing.T) {
	s := newTestStore(t)
	columns := []string{"EmployeeName", "SSN", "GrossPay"}

	require.NoError(t, s.PutTemplate("crew", columns))

	got, err := s.GetTemplate("crew")
	require.NoError(t, err)
	assert.Equal(t, columns, got)

	names, err := s.ListTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{"crew"}, names)
}

func TestStoreGetTemplateNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTemplate("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTemplateNotFound)
}

func TestEnsureDefaultsSeedsBuiltins(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.EnsureDefaults())

	mappings, err := s.ListMappings()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultMappingName, WisdotMappingName}, mappings)

	templates, err := s.ListTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultMappingName, WisdotMappingName}, templates)

	def, err := s.GetMapping(DefaultMappingName)
	require.NoError(t, err)
	assert.Equal(t, "EmployeeName", def.TemplateFields()[0])
	src, ok := def.Source("EmployeeName")
	require.True(t, ok)
	assert.Equal(t, "name", src)

	wisdot, err := s.GetMapping(WisdotMappingName)
	require.NoError(t, err)
	assert.Equal(t, 25, wisdot.Len())
	hw, ok := wisdot.Source("HWRate")
	require.True(t, ok)
	assert.Equal(t, "handw_rate", hw)
}

func TestEnsureDefaultsKeepsOperatorEdits(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureDefaults())

	edited := New(Pair{"OnlyName", "name"})
	require.NoError(t, s.PutMapping(DefaultMappingName, edited))

	require.NoError(t, s.EnsureDefaults())

	got, err := s.GetMapping(DefaultMappingName)
	require.NoError(t, err)
	assert.Equal(t, edited.Pairs(), got.Pairs())
}
