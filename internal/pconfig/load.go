package pconfig

import (
	"regexp"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/igamenovoer/peidocker/internal/substitute"
	"github.com/igamenovoer/peidocker/internal/yamltree"
)

// bareConfigVarPattern matches a `${NAME}` reference without a default.
var bareConfigVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load runs C1 (substitution) and C2 (duplicate-key-rejecting YAML
// parse) over raw, then decodes the result into a ProjectConfig,
// matching the user_config.yml -> C1 -> C2 -> C3 ordering in spec §2.
// A `${NAME}` reference without a default whose NAME is absent from env
// is rejected with ErrUnresolvedConfigTimeVar.
func Load(raw []byte, env map[string]string) (*ProjectConfig, error) {
	for _, m := range bareConfigVarPattern.FindAllStringSubmatch(string(raw), -1) {
		if _, set := env[m[1]]; !set {
			return nil, pderrors.Newf(pderrors.CategorySubstitute, pderrors.CodeUnresolvedConfigTimeVar,
				"unresolved configure-time variable %q: export %s or switch to a {{%s}} passthrough marker", m[0], m[1], m[1]).
				WithContext("token", m[0])
		}
	}
	substituted := substitute.Env(string(raw), env)
	if err := substitute.CheckNoLeftover(substituted); err != nil {
		return nil, err
	}
	if err := substitute.ValidatePassthroughWellFormed(substituted); err != nil {
		return nil, err
	}

	root, err := yamltree.Load([]byte(substituted))
	if err != nil {
		return nil, err
	}

	var cfg ProjectConfig
	if err := yamltree.Decode(root, &cfg); err != nil {
		return nil, err
	}
	if cfg.Stage1 == nil {
		return nil, pderrors.New(pderrors.CategoryValidate, pderrors.CodeMissingBaseImage,
			"user_config.yml must declare stage_1")
	}
	return &cfg, nil
}
