package resolve

import (
	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/mattn/go-shellwords"
)

// TokenizeEntry splits a raw custom-script entry into a script path
// and its arguments using POSIX shell-compatible rules (quotes,
// escapes, `--k=v` preserved verbatim), per spec §4.4.
func TokenizeEntry(raw string) (ScriptInvocation, error) {
	parser := shellwords.NewParser()
	tokens, err := parser.Parse(raw)
	if err != nil {
		return ScriptInvocation{}, pderrors.Wrapf(err, pderrors.CategoryResolve, pderrors.CodeScriptTokenize,
			"custom script entry %q could not be tokenized", raw)
	}
	if len(tokens) == 0 {
		return ScriptInvocation{}, pderrors.Newf(pderrors.CategoryResolve, pderrors.CodeEnvEntryShape,
			"custom script entry %q tokenized to nothing", raw)
	}
	return ScriptInvocation{ScriptPath: tokens[0], Args: tokens[1:]}, nil
}

// TokenizeList tokenizes every entry in order, preserving declaration
// order in the returned slice.
func TokenizeList(entries []string) ([]ScriptInvocation, error) {
	out := make([]ScriptInvocation, 0, len(entries))
	for _, entry := range entries {
		inv, err := TokenizeEntry(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}
