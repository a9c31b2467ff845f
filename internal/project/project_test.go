package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/igamenovoer/peidocker/internal/resolve"
	"github.com/igamenovoer/peidocker/internal/sshkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSkeleton_CreatesStage1OnlyByDefault(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureSkeleton(root, false))

	for _, sub := range installationSubdirs {
		info, err := os.Stat(filepath.Join(root, "installation", "stage-1", sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err := os.Stat(filepath.Join(root, "installation", "stage-2"))
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureSkeleton_CreatesStage2WhenRequested(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureSkeleton(root, true))

	info, err := os.Stat(filepath.Join(root, "installation", "stage-2", "generated"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteKeyFiles_WritesContentAndMode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureSkeleton(root, false))

	cs := &resolve.CompiledStage{
		Name: "stage-1",
		SSHKeyFiles: []sshkeys.KeyFile{
			{Filename: "alice-pubkey.pub", Content: []byte("ssh-ed25519 AAAA"), Mode: 0o644, InContainerPath: "/pei-from-host/stage-1/generated/alice-pubkey.pub"},
			{Filename: "alice-privkey", Content: []byte("PRIVATE"), Mode: 0o600, InContainerPath: "/pei-from-host/stage-1/generated/alice-privkey"},
		},
	}
	require.NoError(t, WriteKeyFiles(root, "stage-1", cs))

	pub, err := os.ReadFile(filepath.Join(root, "installation", "stage-1", "generated", "alice-pubkey.pub"))
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519 AAAA", string(pub))

	info, err := os.Stat(filepath.Join(root, "installation", "stage-1", "generated", "alice-privkey"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteScripts_WritesExecutableNormalizedContent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureSkeleton(root, false))

	cs := &resolve.CompiledStage{
		Name: "stage-1",
		Scripts: map[string][]resolve.ScriptInvocation{
			"on_build": {{ScriptPath: "stage-1/system/install.sh\r\n", Args: nil}},
		},
	}
	require.NoError(t, WriteScripts(root, "stage-1", cs))

	path := filepath.Join(root, "installation", "stage-1", "generated", "_custom-on-build.sh")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "\r")
}

func TestWriteScripts_SkipsEmptyLifecycles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureSkeleton(root, false))

	cs := &resolve.CompiledStage{Name: "stage-1", Scripts: map[string][]resolve.ScriptInvocation{}}
	require.NoError(t, WriteScripts(root, "stage-1", cs))

	entries, err := os.ReadDir(filepath.Join(root, "installation", "stage-1", "generated"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteCompose_WritesFileAtRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteCompose(root, []byte("services: {}\n")))

	content, err := os.ReadFile(filepath.Join(root, ComposeFilename))
	require.NoError(t, err)
	assert.Equal(t, "services: {}\n", string(content))
}

func TestWrite_FullOrderingProducesCompleteTree(t *testing.T) {
	root := t.TempDir()
	compiled := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{
			Name:      "stage-1",
			BuildArgs: map[string]string{},
			Scripts: map[string][]resolve.ScriptInvocation{
				"on_build": {{ScriptPath: "stage-1/system/install.sh"}},
			},
			SSHKeyFiles: []sshkeys.KeyFile{
				{Filename: "alice-pubkey.pub", Content: []byte("ssh-ed25519 AAAA"), Mode: 0o644, InContainerPath: "/pei-from-host/stage-1/generated/alice-pubkey.pub"},
			},
		},
	}

	require.NoError(t, Write(root, compiled, []byte("services: {}\n")))

	assert.FileExists(t, filepath.Join(root, ComposeFilename))
	assert.FileExists(t, filepath.Join(root, "installation", "stage-1", "generated", "_custom-on-build.sh"))
	assert.FileExists(t, filepath.Join(root, "installation", "stage-1", "generated", "alice-pubkey.pub"))
}

func TestWrite_RemovesStaleGeneratedArtifactsOnShrinkingConfig(t *testing.T) {
	root := t.TempDir()
	full := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{
			Name:      "stage-1",
			BuildArgs: map[string]string{},
			Scripts: map[string][]resolve.ScriptInvocation{
				"on_build": {{ScriptPath: "stage-1/system/install.sh"}},
				"on_entry": {{ScriptPath: "stage-1/custom/entry.sh"}},
			},
			SSHKeyFiles: []sshkeys.KeyFile{
				{Filename: "alice-pubkey.pub", Content: []byte("ssh-ed25519 AAAA"), Mode: 0o644, InContainerPath: "/pei-from-host/stage-1/generated/alice-pubkey.pub"},
			},
		},
	}
	require.NoError(t, Write(root, full, []byte("services: {}\n")))

	staleScript := filepath.Join(root, "installation", "stage-1", "generated", "_custom-on-entry.sh")
	staleKey := filepath.Join(root, "installation", "stage-1", "generated", "alice-pubkey.pub")
	assert.FileExists(t, staleScript)
	assert.FileExists(t, staleKey)

	// A later run whose user_config.yml dropped the on_entry lifecycle
	// and the alice SSH user: the previous run's artifacts for those
	// must disappear, not linger as stale COPY sources.
	shrunk := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{
			Name:      "stage-1",
			BuildArgs: map[string]string{},
			Scripts: map[string][]resolve.ScriptInvocation{
				"on_build": {{ScriptPath: "stage-1/system/install.sh"}},
			},
		},
	}
	require.NoError(t, Write(root, shrunk, []byte("services: {}\n")))

	assert.NoFileExists(t, staleScript)
	assert.NoFileExists(t, staleKey)
	assert.FileExists(t, filepath.Join(root, "installation", "stage-1", "generated", "_custom-on-build.sh"))
}
