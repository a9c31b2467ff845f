// Package scripts implements the script generator (component C6):
// rendering per-lifecycle wrapper shell scripts from a stage's
// tokenized custom-script invocations.
package scripts

import (
	"fmt"
	"strings"

	"github.com/igamenovoer/peidocker/internal/resolve"
)

// InContainerRoot returns the installation root a stage's relative
// script paths are resolved against inside the container, matching
// the `/pei-from-host/stage-<N>` convention used throughout the
// generated artifacts.
func InContainerRoot(stageName string) string {
	return "/pei-from-host/" + stageName
}

// Generate renders the wrapper script body for one (stage, lifecycle)
// pair. It returns ok=false when there are no invocations, in which
// case the caller (C9) should either skip writing the file or write
// an empty-but-valid script — both are permitted by spec §4.6.
func Generate(stageName, lifecycle string, invocations []resolve.ScriptInvocation) (content string, ok bool) {
	if len(invocations) == 0 {
		return "", false
	}

	root := InContainerRoot(stageName)
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	sb.WriteString("set -e\n\n")

	forwardArgs := lifecycle == "on_entry"
	for i, inv := range invocations {
		isLast := i == len(invocations)-1
		line := fmt.Sprintf("%q", root+"/"+inv.ScriptPath)
		for _, arg := range inv.Args {
			line += " " + quoteArg(arg)
		}
		if forwardArgs && isLast {
			line += ` "$@"`
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String(), true
}

// quoteArg renders arg as a single POSIX-shell-safe token, preserving
// its exact textual content (including `--key=value` forms) verbatim
// once unquoted.
func quoteArg(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// Filename returns the generated wrapper's filename for lifecycle,
// matching the naming convention in spec §6 (e.g. "on_first_run" ->
// "_custom-on-first-run.sh").
func Filename(lifecycle string) string {
	suffix := strings.ReplaceAll(strings.TrimPrefix(lifecycle, "on_"), "_", "-")
	return "_custom-on-" + suffix + ".sh"
}
