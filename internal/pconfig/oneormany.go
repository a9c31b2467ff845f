package pconfig

import "gopkg.in/yaml.v3"

// OneOrMany decodes a YAML scalar or a one-element sequence into a
// single-element string slice, matching the schema's tolerance for
// `custom.on_entry` being written either as a bare string or as a
// one-element list (spec §3).
type OneOrMany []string

// UnmarshalYAML accepts either a scalar string or a sequence of
// strings.
func (o *OneOrMany) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*o = nil
			return nil
		}
		*o = OneOrMany{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*o = OneOrMany(list)
		return nil
	default:
		*o = nil
		return nil
	}
}

// MarshalYAML renders a single-element OneOrMany as a bare scalar and
// anything else as a sequence, mirroring how such fields are usually
// hand-authored.
func (o OneOrMany) MarshalYAML() (interface{}, error) {
	if len(o) == 1 {
		return o[0], nil
	}
	return []string(o), nil
}

// First returns the single configured entry, or "" if none.
func (o OneOrMany) First() string {
	if len(o) == 0 {
		return ""
	}
	return o[0]
}
