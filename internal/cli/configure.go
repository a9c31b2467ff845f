package cli

import (
	"errors"
	"os"
	"path/filepath"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/igamenovoer/peidocker/internal/output"
	"github.com/igamenovoer/peidocker/internal/pipeline"
	"github.com/igamenovoer/peidocker/internal/substitute"
	"github.com/spf13/cobra"
)

var (
	fullCompose bool
	withMerged  bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Resolve user_config.yml into docker-compose.yml and generated scripts",
	Long: `configure reads <project-dir>/user_config.yml, resolves it against
the packaged defaults, and atomically writes docker-compose.yml plus
the per-lifecycle wrapper scripts and materialized SSH keys into
<project-dir>.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().BoolVar(&fullCompose, "full-compose", false, "do not strip empty sections from the emitted compose")
	configureCmd.Flags().BoolVar(&withMerged, "with-merged", false, "additionally emit merged Dockerfile/env artifacts")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	configPath := filepath.Join(projectDir, "user_config.yml")
	raw, err := os.ReadFile(configPath)
	if err != nil {
		output.Error("failed to read %s: %v", configPath, err)
		os.Exit(2)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	opts := pipeline.Options{
		ProjectDir:    projectDir,
		RepoRoot:      filepath.Join(projectDir, "installation"),
		HomeDir:       home,
		Env:           substitute.CaptureEnv(os.Environ()),
		WithMerged:    withMerged,
		BakeEnvStage1: os.Getenv("PEI_BAKE_ENV_STAGE_1") == "true",
		BakeEnvStage2: os.Getenv("PEI_BAKE_ENV_STAGE_2") == "true",
		FullCompose:   fullCompose,
	}

	result, err := pipeline.Configure(raw, opts)
	if err != nil {
		output.Error("configure failed: %v", err)
		os.Exit(exitCodeFor(err))
	}

	for _, w := range result.Warnings {
		output.Warning(w)
	}
	output.Success("configured project at %s", projectDir)
	return nil
}

// exitCodeFor maps a pipeline error to the exit code contract in spec
// §6: 2 for user error (validation, missing file, invalid flag), 1 for
// an internal (I/O, unexpected) failure.
func exitCodeFor(err error) int {
	var pe *pderrors.PeiError
	if errors.As(err, &pe) {
		switch pe.Category {
		case pderrors.CategoryIO, pderrors.CategoryInternal:
			return 1
		default:
			return 2
		}
	}
	// pconfig.ValidationErrors aggregates and anything else surfaced
	// from the pipeline without a PeiError wrapper is a user error.
	return 2
}
