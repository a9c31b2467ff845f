// Package substitute implements the two-phase variable substitution
// engine (component C1): configure-time `${VAR}` / `${VAR:-default}`
// expansion against the process environment, and preservation of
// `{{VAR}}` / `{{VAR:-default}}` compose-time passthrough markers.
package substitute

import (
	"regexp"
	"strings"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
)

// configVarPattern matches ${NAME} or ${NAME:-default}.
var configVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// leftoverPattern detects any remaining ${...} after substitution.
var leftoverPattern = regexp.MustCompile(`\$\{[^}]*\}`)

// passthroughPattern matches well-formed {{VAR}} or {{VAR:-default}}
// tokens, per the normative grammar in spec §6: NAME matches
// [A-Za-z_][A-Za-z0-9_]*, default may not contain "}}".
var passthroughPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?::-((?:[^{]|\{[^{])*?))?\s*\}\}`)

// malformedPassthroughOpen finds every `{{` opening; each one must start
// a well-formed token, otherwise ErrMalformedPassthrough is surfaced.
var malformedPassthroughOpen = regexp.MustCompile(`\{\{`)

// defaultMarker distinguishes `${VAR}` (no default) from `${VAR:-...}`
// (has a default, possibly empty) since both yield the same capture
// group text when the default itself is empty.
var defaultMarker = regexp.MustCompile(`^\$\{[A-Za-z_][A-Za-z0-9_]*:-`)

// Env expands every `${NAME}` / `${NAME:-default}` occurrence in text
// using env. `${NAME}` with NAME unset expands to the empty string.
// `${NAME:-default}` uses the default literally when NAME is unset or
// empty; nested `${...}` inside a default is NOT recursively resolved
// (per spec §4.1) and will surface via CheckNoLeftover if unresolved.
func Env(text string, env map[string]string) string {
	return configVarPattern.ReplaceAllStringFunc(text, func(match string) string {
		parts := configVarPattern.FindStringSubmatch(match)
		name := parts[1]
		def := parts[2]
		hasDefault := defaultMarker.MatchString(match)
		return expand(name, def, hasDefault, env)
	})
}

func expand(name, def string, hasDefault bool, env map[string]string) string {
	value, set := env[name]
	if set && value != "" {
		return value
	}
	if hasDefault {
		return def
	}
	return ""
}

// CheckNoLeftover verifies that text contains no remaining `${...}`
// token after Env has run, per spec §4.1's "no-leftover rule". It
// returns ErrUnresolvedConfigTimeVar naming the first offending token.
func CheckNoLeftover(text string) error {
	loc := leftoverPattern.FindString(text)
	if loc == "" {
		return nil
	}
	name := loc
	if m := configVarPattern.FindStringSubmatch(loc); len(m) > 1 {
		name = m[1]
	}
	return pderrors.Newf(pderrors.CategorySubstitute, pderrors.CodeUnresolvedConfigTimeVar,
		"unresolved configure-time variable %q: export it or switch to a {{%s}} passthrough marker", loc, name).
		WithContext("token", loc)
}

// ValidatePassthroughWellFormed scans text for `{{` occurrences and
// verifies each is part of a well-formed `{{VAR}}` / `{{VAR:-default}}`
// token. Malformed occurrences are fatal per spec §4.1/§4.8.
func ValidatePassthroughWellFormed(text string) error {
	opens := malformedPassthroughOpen.FindAllStringIndex(text, -1)
	for _, span := range opens {
		rest := text[span[0]:]
		loc := passthroughPattern.FindStringIndex(rest)
		if loc == nil || loc[0] != 0 {
			return pderrors.Newf(pderrors.CategoryPassthrough, pderrors.CodeMalformedPassthrough,
				"malformed passthrough marker near %q", snippet(rest)).
				WithContext("near", snippet(rest))
		}
	}
	return nil
}

func snippet(s string) string {
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}

// WalkAndSubstitute recursively applies Env to every string leaf of a
// schema-agnostic tree (map[string]any, []any, or scalar), per the C1
// contract in spec §4.1. The main pipeline substitutes at the raw-text
// level (matching the user_config.yml -> C1 -> C2 data-flow ordering
// in spec §2); this entry point exists for callers that already hold a
// decoded tree and need the identical substitution semantics applied
// node-by-node.
func WalkAndSubstitute(tree interface{}, env map[string]string) interface{} {
	switch v := tree.(type) {
	case string:
		return Env(v, env)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = WalkAndSubstitute(val, env)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = WalkAndSubstitute(val, env)
		}
		return out
	default:
		return v
	}
}

// RewriteToCompose converts every well-formed `{{VAR}}` /
// `{{VAR:-default}}` token in text to its Docker Compose `${VAR}` /
// `${VAR:-default}` equivalent (spec §4.8). It first validates that
// every `{{` is part of a well-formed token, returning
// ErrMalformedPassthrough otherwise.
func RewriteToCompose(text string) (string, error) {
	if err := ValidatePassthroughWellFormed(text); err != nil {
		return "", err
	}
	return passthroughPattern.ReplaceAllStringFunc(text, func(match string) string {
		parts := passthroughPattern.FindStringSubmatch(match)
		name := parts[1]
		if parts[2] != "" || strings.Contains(match, ":-") {
			return "${" + name + ":-" + parts[2] + "}"
		}
		return "${" + name + "}"
	}), nil
}

// CaptureEnv snapshots the process environment once into a map, per
// the §9 design note that "process environment" input is captured
// once at the start of a run and not re-read.
func CaptureEnv(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}
