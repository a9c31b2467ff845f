// Package cli implements the command-line interface for peidocker.
package cli

import (
	"os"

	"github.com/igamenovoer/peidocker/internal/output"
	"github.com/spf13/cobra"
)

// Global flags, set by rootCmd's persistent flags and read by every
// subcommand.
var (
	projectDir string
	jsonOutput bool
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "peidocker",
	Short: "Two-stage Docker build configurator",
	Long: `peidocker turns a declarative user_config.yml into a project
directory containing docker-compose.yml and the generated shell hooks
for a two-stage (stage-1/stage-2) Ubuntu container build.

It never builds images, pulls images, or runs containers itself — it
only produces the files docker compose needs to do that.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity := output.VerbosityNormal
		if quiet {
			verbosity = output.VerbosityQuiet
		} else if verbose {
			verbosity = output.VerbosityVerbose
		}

		output.Configure(output.Config{
			Verbosity: verbosity,
			NoColor:   noColor,
			JSON:      jsonOutput,
			Writer:    os.Stdout,
			ErrWriter: os.Stderr,
		})

		if projectDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			projectDir = wd
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(); it only needs to happen once.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project-dir", "p", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(configureCmd)
}
