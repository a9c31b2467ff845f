// Package project implements the project writer (component C9): the
// final stage of the pipeline, responsible for laying out the
// installation tree and atomically committing every artifact the
// earlier components produced — materialized SSH key files (C7),
// generated lifecycle wrapper scripts (C6), and the rewritten
// docker-compose.yml (C8) — to disk.
//
// Every individual file is written through atomicwriter.WriteFile, so
// a crash mid-write can never leave a partially-written file in
// place; the writer additionally fixes write ordering (directories,
// then key material, then scripts, then compose) so that a failure
// partway through never leaves docker-compose.yml referencing scripts
// or keys that were never written.
package project

import (
	"os"
	"path/filepath"
	"strings"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/igamenovoer/peidocker/internal/resolve"
	"github.com/igamenovoer/peidocker/internal/scripts"
	"github.com/moby/sys/atomicwriter"
)

// installationSubdirs are created under installation/<stage> for every
// stage present in the resolved config, matching the layout the
// generated Dockerfiles expect to COPY from.
var installationSubdirs = []string{"internals", "system", "custom", "generated"}

// ComposeFilename is the name of the synthesized compose file at the
// project root.
const ComposeFilename = "docker-compose.yml"

// EnsureSkeleton creates the installation/<stage>/{internals,system,
// custom,generated} directories for stage-1, and for stage-2 when
// hasStage2 is true. It is safe to call against an existing project
// directory; pre-existing files elsewhere in the tree are untouched.
func EnsureSkeleton(root string, hasStage2 bool) error {
	stages := []string{"stage-1"}
	if hasStage2 {
		stages = append(stages, "stage-2")
	}
	for _, stage := range stages {
		for _, sub := range installationSubdirs {
			dir := filepath.Join(root, "installation", stage, sub)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return pderrors.Wrapf(err, pderrors.CategoryIO, pderrors.CodeIO, "failed to create %s", dir)
			}
		}
	}
	return nil
}

// stageGeneratedDir returns the generated-artifacts directory for stageName
// under root's installation tree.
func stageGeneratedDir(root, stageName string) string {
	return filepath.Join(root, "installation", stageName, "generated")
}

// clearGeneratedDir wholesale-removes stageName's generated directory
// and recreates it empty, so that re-running Write against a config
// that dropped an SSH user or a lifecycle script never leaves the
// corresponding stale key file or wrapper script behind for a later
// Dockerfile COPY to pick up (spec §4.9 step 1: overwrite generated/
// contents wholesale).
func clearGeneratedDir(root, stageName string) error {
	dir := stageGeneratedDir(root, stageName)
	if err := os.RemoveAll(dir); err != nil {
		return pderrors.Wrapf(err, pderrors.CategoryIO, pderrors.CodeIO, "failed to clear %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pderrors.Wrapf(err, pderrors.CategoryIO, pderrors.CodeIO, "failed to recreate %s", dir)
	}
	return nil
}

// WriteKeyFiles atomically writes every resolved SSH key file in cs
// into stageName's generated directory.
func WriteKeyFiles(root, stageName string, cs *resolve.CompiledStage) error {
	if cs == nil || len(cs.SSHKeyFiles) == 0 {
		return nil
	}
	dir := stageGeneratedDir(root, stageName)
	for _, kf := range cs.SSHKeyFiles {
		path := filepath.Join(dir, kf.Filename)
		if err := atomicwriter.WriteFile(path, kf.Content, kf.Mode); err != nil {
			return pderrors.Wrapf(err, pderrors.CategoryIO, pderrors.CodeIO, "failed to write key file %s", path)
		}
	}
	return nil
}

// WriteScripts renders and atomically writes every non-empty
// per-lifecycle wrapper script for cs into stageName's generated
// directory, normalizing line endings to LF and marking each file
// executable.
func WriteScripts(root, stageName string, cs *resolve.CompiledStage) error {
	if cs == nil {
		return nil
	}
	dir := stageGeneratedDir(root, stageName)
	for _, lifecycle := range resolve.Lifecycles {
		content, ok := scripts.Generate(stageName, lifecycle, cs.Scripts[lifecycle])
		if !ok {
			continue
		}
		content = normalizeLF(content)
		path := filepath.Join(dir, scripts.Filename(lifecycle))
		if err := atomicwriter.WriteFile(path, []byte(content), 0o755); err != nil {
			return pderrors.Wrapf(err, pderrors.CategoryIO, pderrors.CodeIO, "failed to write script %s", path)
		}
	}
	return nil
}

// WriteCompose atomically writes the synthesized, passthrough-rewritten
// compose document to <root>/docker-compose.yml.
func WriteCompose(root string, composeYAML []byte) error {
	path := filepath.Join(root, ComposeFilename)
	if err := atomicwriter.WriteFile(path, composeYAML, 0o644); err != nil {
		return pderrors.Wrapf(err, pderrors.CategoryIO, pderrors.CodeIO, "failed to write %s", path)
	}
	return nil
}

// Write commits a fully-resolved configuration to root: it ensures the
// installation skeleton exists, then writes SSH key files, generated
// scripts, and finally docker-compose.yml, in that fixed order (spec
// §4.9). Every file write is individually atomic; a failure at any
// step aborts without touching the steps that would have followed.
func Write(root string, compiled *resolve.CompiledConfig, composeYAML []byte) error {
	if err := EnsureSkeleton(root, compiled.Stage2 != nil); err != nil {
		return err
	}
	if err := clearGeneratedDir(root, "stage-1"); err != nil {
		return err
	}
	if compiled.Stage2 != nil {
		if err := clearGeneratedDir(root, "stage-2"); err != nil {
			return err
		}
	}
	if err := WriteKeyFiles(root, "stage-1", compiled.Stage1); err != nil {
		return err
	}
	if err := WriteScripts(root, "stage-1", compiled.Stage1); err != nil {
		return err
	}
	if compiled.Stage2 != nil {
		if err := WriteScripts(root, "stage-2", compiled.Stage2); err != nil {
			return err
		}
	}
	return WriteCompose(root, composeYAML)
}

// normalizeLF rewrites CRLF and lone-CR line endings to LF, so
// generated scripts are byte-identical regardless of the host
// platform's line-ending conventions.
func normalizeLF(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return content
}
