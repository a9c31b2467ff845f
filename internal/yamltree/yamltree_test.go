package yamltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SimpleDocument(t *testing.T) {
	root, err := Load([]byte("stage_1:\n  image:\n    base: ubuntu:24.04\n"))
	require.NoError(t, err)
	require.NotNil(t, root)

	var out map[string]interface{}
	require.NoError(t, Decode(root, &out))
	assert.Contains(t, out, "stage_1")
}

func TestLoad_RejectsTopLevelDuplicateKey(t *testing.T) {
	_, err := Load([]byte("stage_1:\n  a: 1\nstage_1:\n  b: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUPLICATE_KEY")
}

func TestLoad_RejectsNestedDuplicateKey(t *testing.T) {
	_, err := Load([]byte(`
stage_1:
  ssh:
    users:
      alice:
        uid: 1000
      alice:
        uid: 1001
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUPLICATE_KEY")
}

func TestLoad_AllowsSiblingSequenceDuplicates(t *testing.T) {
	// Duplicate scalar values inside a *sequence* are not mapping keys
	// and must not trigger rejection.
	root, err := Load([]byte("stage_1:\n  custom:\n    on_build:\n      - echo hi\n      - echo hi\n"))
	require.NoError(t, err)
	require.NotNil(t, root)
}

func TestLoad_EmptyDocument(t *testing.T) {
	root, err := Load([]byte(""))
	require.NoError(t, err)
	require.NotNil(t, root)
}

func TestToTree_RoundTripsScalarsAndSequences(t *testing.T) {
	root, err := Load([]byte("name: demo\nports:\n  - \"2222:22\"\n  - \"8080:80\"\n"))
	require.NoError(t, err)

	tree, err := ToTree(root)
	require.NoError(t, err)

	m, ok := tree.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "demo", m["name"])
	ports, ok := m["ports"].([]interface{})
	require.True(t, ok)
	assert.Len(t, ports, 2)
}
