package testset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/quadd/internal/protocol"
)

const sample = `
tests:
  - name: two roots
    a: 1
    b: -3
    c: 2
    roots: [2, 1]
  - a: 1
    b: -2
    c: 1
    roots: [1]
  - name: none
    a: 1
    b: 0
    c: 1
  - name: identity
    a: 0
    b: 0
    c: 0
    infinite: true
`

func TestParse(t *testing.T) {
	set, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Equal(t, 4, set.Len())

	assert.Equal(t, "two roots", set.Cases[0].Name)
	assert.Equal(t, protocol.Coefficients{A: 1, B: -3, C: 2}, set.Cases[0].Coefficients)
	assert.Equal(t, protocol.Solution{Count: protocol.TwoRoots, X1: 1, X2: 2}, set.Cases[0].Expected)

	assert.Equal(t, "#2", set.Cases[1].Name)
	assert.Equal(t, protocol.Solution{Count: protocol.OneRoot, X1: 1}, set.Cases[1].Expected)

	assert.Equal(t, protocol.NoRoots, set.Cases[2].Expected.Count)
	assert.Equal(t, protocol.InfiniteRoots, set.Cases[3].Expected.Count)

	cases := set.TestCases()
	require.Len(t, cases, 4)
	assert.Equal(t, set.Cases[2].TestCase, cases[2])
}

func TestParseEmpty(t *testing.T) {
	set, err := Parse([]byte("tests: []\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	set, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "tests: [\n"},
		{"unknown field", "tests:\n  - {a: 1, b: 1, c: 1, d: 4}\n"},
		{"missing coefficient", "tests:\n  - {a: 1, b: 1}\n"},
		{"too many roots", "tests:\n  - {a: 1, b: 1, c: 1, roots: [1, 2, 3]}\n"},
		{"infinite with roots", "tests:\n  - {a: 0, b: 0, c: 0, infinite: true, roots: [1]}\n"},
		{"not a number", "tests:\n  - {a: x, b: 1, c: 1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTestSet)
			assert.True(t, errdefs.IsInvalidArgument(err), "err = %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, set.Path)
	assert.Equal(t, 4, set.Len())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
	assert.False(t, errdefs.IsInvalidArgument(err))
}

func TestLoadUnparsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tests: {"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
	assert.False(t, errdefs.IsNotFound(err))
}
