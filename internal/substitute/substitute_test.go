package substitute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_PlainVariable(t *testing.T) {
	env := map[string]string{"USER": "alice"}
	got := Env("hello ${USER}", env)
	assert.Equal(t, "hello alice", got)
}

func TestEnv_UnsetWithoutDefault(t *testing.T) {
	got := Env("path=${MISSING}", map[string]string{})
	assert.Equal(t, "path=", got)
}

func TestEnv_UnsetWithDefault(t *testing.T) {
	got := Env("port=${PORT:-8080}", map[string]string{})
	assert.Equal(t, "port=8080", got)
}

func TestEnv_EmptyValueUsesDefault(t *testing.T) {
	env := map[string]string{"PORT": ""}
	got := Env("port=${PORT:-8080}", env)
	assert.Equal(t, "port=8080", got)
}

func TestEnv_SetValueOverridesDefault(t *testing.T) {
	env := map[string]string{"PORT": "9090"}
	got := Env("port=${PORT:-8080}", env)
	assert.Equal(t, "port=9090", got)
}

func TestEnv_PassthroughUntouched(t *testing.T) {
	got := Env("name={{SERVICE_NAME}}", map[string]string{})
	assert.Equal(t, "name={{SERVICE_NAME}}", got)
}

func TestEnv_PassthroughWithDefaultUntouched(t *testing.T) {
	got := Env("name={{SERVICE_NAME:-web}}", map[string]string{})
	assert.Equal(t, "name={{SERVICE_NAME:-web}}", got)
}

func TestCheckNoLeftover_ReportsUnresolved(t *testing.T) {
	err := CheckNoLeftover("stray ${NEVER_SUBSTITUTED}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNRESOLVED_CONFIG_TIME_VAR")
}

func TestCheckNoLeftover_CleanTextPasses(t *testing.T) {
	err := CheckNoLeftover("no markers here, just {{PASSTHROUGH}}")
	assert.NoError(t, err)
}

func TestValidatePassthroughWellFormed_Accepts(t *testing.T) {
	err := ValidatePassthroughWellFormed("image: {{REGISTRY:-docker.io}}/app")
	assert.NoError(t, err)
}

func TestValidatePassthroughWellFormed_RejectsUnclosed(t *testing.T) {
	err := ValidatePassthroughWellFormed("image: {{REGISTRY/app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MALFORMED_PASSTHROUGH")
}

func TestWalkAndSubstitute_Map(t *testing.T) {
	env := map[string]string{"TAG": "v1"}
	tree := map[string]interface{}{
		"image": "app:${TAG}",
		"ports": []interface{}{"${TAG}:8080"},
	}
	got := WalkAndSubstitute(tree, env).(map[string]interface{})
	assert.Equal(t, "app:v1", got["image"])
	assert.Equal(t, []interface{}{"v1:8080"}, got["ports"])
}

func TestRewriteToCompose_PlainVar(t *testing.T) {
	got, err := RewriteToCompose("t:{{TAG}}")
	require.NoError(t, err)
	assert.Equal(t, "t:${TAG}", got)
}

func TestRewriteToCompose_WithDefault(t *testing.T) {
	got, err := RewriteToCompose("t:{{TAG:-dev}}")
	require.NoError(t, err)
	assert.Equal(t, "t:${TAG:-dev}", got)
}

func TestRewriteToCompose_MalformedFails(t *testing.T) {
	_, err := RewriteToCompose("t:{{TAG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MALFORMED_PASSTHROUGH")
}

func TestCaptureEnv(t *testing.T) {
	env := CaptureEnv([]string{"FOO=bar", "EMPTY=", "NOEQUALS"})
	assert.Equal(t, "bar", env["FOO"])
	assert.Equal(t, "", env["EMPTY"])
	_, ok := env["NOEQUALS"]
	assert.False(t, ok)
}
