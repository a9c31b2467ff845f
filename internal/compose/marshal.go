package compose

import (
	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"gopkg.in/yaml.v3"
)

// Marshal renders doc to YAML bytes.
func Marshal(doc *Document) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, pderrors.Wrap(err, pderrors.CategoryCompose, pderrors.CodeYamlParse, "failed to marshal compose document")
	}
	return out, nil
}

// ToNode re-parses doc's marshaled form into a *yaml.Node tree, the
// "plain tree" C8 walks for the passthrough rewrite (spec §4.8).
func ToNode(doc *Document) (*yaml.Node, error) {
	raw, err := Marshal(doc)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, pderrors.Wrap(err, pderrors.CategoryCompose, pderrors.CodeYamlParse, "failed to re-parse compose document")
	}
	if len(node.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	return node.Content[0], nil
}
