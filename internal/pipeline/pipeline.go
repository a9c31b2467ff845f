// Package pipeline wires components C1 through C9 into the single
// `configure` operation: load, validate, resolve, synthesize compose,
// rewrite passthrough markers, and write the project directory, in
// that fixed order (spec §2, §4.9).
package pipeline

import (
	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/igamenovoer/peidocker/internal/compose"
	"github.com/igamenovoer/peidocker/internal/output"
	"github.com/igamenovoer/peidocker/internal/passthrough"
	"github.com/igamenovoer/peidocker/internal/pconfig"
	"github.com/igamenovoer/peidocker/internal/project"
	"github.com/igamenovoer/peidocker/internal/resolve"
	"github.com/igamenovoer/peidocker/internal/sshkeys"
	"gopkg.in/yaml.v3"
)

// Options collects every `configure` flag and piece of invocation
// context the pipeline needs, independent of how the CLI layer parsed
// them.
type Options struct {
	// ProjectDir is the target project directory; docker-compose.yml
	// and the installation/ tree are written relative to it.
	ProjectDir string
	// RepoRoot is the installation tree SSH key repository-relative
	// paths resolve against — normally <ProjectDir>/installation.
	RepoRoot string
	// HomeDir is the invoking user's home directory, used for
	// system_auto SSH key discovery.
	HomeDir string
	// Env is the captured process environment used for C1's
	// configure-time `${VAR}` substitution.
	Env map[string]string

	WithMerged    bool
	BakeEnvStage1 bool
	BakeEnvStage2 bool
	FullCompose   bool
}

// Result is everything a caller (CLI or test) might want back from a
// successful Configure run.
type Result struct {
	Config      *pconfig.ProjectConfig
	Compiled    *resolve.CompiledConfig
	ComposeYAML []byte
	Warnings    []string
}

// Configure runs the full C1-C9 pipeline over raw (the bytes of
// user_config.yml) and commits the result to opts.ProjectDir.
func Configure(raw []byte, opts Options) (*Result, error) {
	phase := output.Phase("loading user_config.yml")
	cfg, err := pconfig.Load(raw, opts.Env)
	if err != nil {
		phase.Failed("load failed")
		return nil, err
	}
	phase.Done("loaded user_config.yml")

	phase = output.Phase("validating configuration")
	vopts := pconfig.Options{
		WithMerged:    opts.WithMerged,
		BakeEnvStage1: opts.BakeEnvStage1,
		BakeEnvStage2: opts.BakeEnvStage2,
	}
	if err := pconfig.Validate(cfg, vopts); err != nil {
		phase.Failed("validation failed")
		return nil, err
	}
	phase.Done("configuration is valid")

	phase = output.Phase("resolving configuration")
	keyResolver := sshkeys.NewResolver(opts.RepoRoot, opts.HomeDir)
	ropts := resolve.Options{BakeEnvStage1: opts.BakeEnvStage1, BakeEnvStage2: opts.BakeEnvStage2}
	compiled, err := resolve.Resolve(cfg, ropts, keyResolver)
	if err != nil {
		phase.Failed("resolution failed")
		return nil, err
	}
	for _, w := range compiled.Warnings {
		output.Warning(w)
	}
	phase.Done("resolved configuration")

	phase = output.Phase("synthesizing docker-compose.yml")
	doc, err := compose.Synthesize(compiled, compose.Options{FullCompose: opts.FullCompose})
	if err != nil {
		phase.Failed("compose synthesis failed")
		return nil, err
	}
	phase.Done("synthesized docker-compose.yml")

	phase = output.Phase("rewriting passthrough markers")
	composeYAML, err := rewritePassthrough(doc)
	if err != nil {
		phase.Failed("passthrough rewrite failed")
		return nil, err
	}
	phase.Done("rewrote passthrough markers")

	phase = output.Phase("writing project files")
	if err := project.Write(opts.ProjectDir, compiled, composeYAML); err != nil {
		phase.Failed("write failed")
		return nil, err
	}
	phase.Done("wrote project files")

	return &Result{
		Config:      cfg,
		Compiled:    compiled,
		ComposeYAML: composeYAML,
		Warnings:    compiled.Warnings,
	}, nil
}

// rewritePassthrough re-parses doc into a plain node tree, rewrites
// every `{{...}}` marker to its `${...}` compose equivalent (C8), and
// re-marshals the result.
func rewritePassthrough(doc *compose.Document) ([]byte, error) {
	node, err := compose.ToNode(doc)
	if err != nil {
		return nil, err
	}
	if err := passthrough.Rewrite(node); err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return nil, pderrors.Wrap(err, pderrors.CategoryCompose, pderrors.CodeYamlParse, "failed to marshal rewritten compose document")
	}
	return out, nil
}
