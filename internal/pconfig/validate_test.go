package pconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *ProjectConfig {
	return &ProjectConfig{
		Stage1: &StageConfig{
			Image: &ImageConfig{Base: "ubuntu:24.04", Output: "t:stage-1"},
		},
	}
}

func TestValidate_MinimalConfigPasses(t *testing.T) {
	err := Validate(minimalConfig(), Options{})
	assert.NoError(t, err)
}

func TestValidate_MissingBaseImageFails(t *testing.T) {
	cfg := &ProjectConfig{Stage1: &StageConfig{}}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING_BASE_IMAGE")
}

func TestValidate_UnknownStorageKey(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage1.Storage = map[string]*StorageEntry{
		"cache": {Type: "auto-volume"},
	}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_STORAGE_KEY")
}

func TestValidate_MountDstPathMustBeAbsolute(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage1.Mount = map[string]*MountEntry{
		"data": {Type: "auto-volume", DstPath: "relative/path"},
	}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MOUNT_DST_PATH")
}

func TestValidate_StorageAndMountSameNameNoConflict(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage1.Storage = map[string]*StorageEntry{
		"data": {Type: "auto-volume"},
	}
	cfg.Stage1.Mount = map[string]*MountEntry{
		"data": {Type: "auto-volume", DstPath: "/custom/data"},
	}
	err := Validate(cfg, Options{})
	assert.NoError(t, err)
}

func TestValidate_SSHUserBothPubkeySources(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage1.SSH = &SSHConfig{
		Enable: true,
		Port:   22,
		Users: map[string]*SSHUser{
			"alice": {PubkeyFile: "~", PubkeyText: "ssh-ed25519 AAAA"},
		},
	}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SSH_USER_CONSTRAINT")
}

func TestValidate_Stage2SSHRejected(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage2 = &StageConfig{SSH: &SSHConfig{Enable: true, Port: 22}}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STAGE2_SSH_NOT_SUPPORTED")
}

func TestValidate_EnvEntryShape(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage1.Environment = []string{"NOT_AN_ENTRY"}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_ENTRY_SHAPE")
}

func TestValidate_Stage2OnBuildForbidsSoftPath(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage2 = &StageConfig{
		Custom: &CustomScripts{
			OnBuild: []string{"stage-2/system/foo.sh --cache-dir=/soft/data/cache"},
		},
	}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUILD_TIME_RUNTIME_PATH")
}

func TestValidate_Stage1OnBuildAllowsSoftPath(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage1.Custom = &CustomScripts{
		OnBuild: []string{"stage-1/system/foo.sh --cache-dir=/soft/data/cache"},
	}
	err := Validate(cfg, Options{})
	assert.NoError(t, err)
}

func TestValidate_PasswordPassthroughRejected(t *testing.T) {
	cfg := minimalConfig()
	pw := "{{ADMIN_PASSWORD}}"
	cfg.Stage1.SSH = &SSHConfig{
		Enable: true,
		Port:   22,
		Users: map[string]*SSHUser{
			"alice": {Password: &pw},
		},
	}
	err := Validate(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PASSTHROUGH_IN_BAKED_FIELD")
}

func TestValidate_WithMergedRejectsPassthrough(t *testing.T) {
	cfg := minimalConfig()
	cfg.Stage1.Image.Output = "t:{{TAG:-dev}}"
	err := Validate(cfg, Options{WithMerged: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PASSTHROUGH_WITH_MERGED")
}

func TestSSHUser_Inaccessible(t *testing.T) {
	u := &SSHUser{}
	assert.True(t, u.Inaccessible())

	pw := "secret"
	u2 := &SSHUser{Password: &pw}
	assert.False(t, u2.Inaccessible())
}

func TestParseFileKeySource(t *testing.T) {
	assert.Equal(t, KeySourceSystemAuto, ParseFileKeySource("~").Kind)
	assert.Equal(t, KeySourceAbsoluteHostPath, ParseFileKeySource("/home/user/.ssh/id_rsa.pub").Kind)
	assert.Equal(t, KeySourceRepositoryRelative, ParseFileKeySource("keys/alice.pub").Kind)
}
