package cli

import (
	"os"
	"path/filepath"

	"github.com/igamenovoer/peidocker/internal/output"
	"github.com/igamenovoer/peidocker/internal/project"
	"github.com/spf13/cobra"
)

var quickStartName string

// quickStarts is the built-in registry of named starter configs that
// `create --quick NAME` seeds user_config.yml from.
var quickStarts = map[string]string{
	"minimal": `stage_1:
  image:
    base: ubuntu:24.04
    output: my-project:stage-1
  ssh:
    enable: true
    port: 22
    host_port: 2222
    users:
      me:
        password: "${USER_PASSWORD:-123456}"
stage_2:
  image:
    output: my-project:stage-2
`,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project directory",
	Long: `create lays out a fresh project directory: it creates the empty
installation/stage-{1,2}/{internals,system,custom,generated} directories
alongside a starter user_config.yml, ready for configure to consume.
No Dockerfile or packaged internals/system scripts are copied in.`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&quickStartName, "quick", "", "seed user_config.yml from a built-in quick-start (e.g. minimal)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		output.Error("failed to create project directory: %v", err)
		return err
	}
	// The packaged Dockerfile/internals/system trees are an external
	// asset (§1 Non-goals); only the skeleton directories configure
	// will later populate are created here.
	if err := project.EnsureSkeleton(projectDir, true); err != nil {
		output.Error("failed to lay out installation tree: %v", err)
		return err
	}

	body := quickStarts["minimal"]
	if quickStartName != "" {
		starter, ok := quickStarts[quickStartName]
		if !ok {
			output.Error("unknown quick-start %q", quickStartName)
			os.Exit(2)
		}
		body = starter
	}

	configPath := filepath.Join(projectDir, "user_config.yml")
	if _, err := os.Stat(configPath); err == nil {
		output.Warning("user_config.yml already exists at %s; leaving it untouched", configPath)
	} else {
		if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
			output.Error("failed to write user_config.yml: %v", err)
			return err
		}
	}

	output.Success("created project at %s", projectDir)
	return nil
}
