// Package yamltree implements the YAML loader (component C2): parses
// user_config.yml into a yaml.Node document tree and rejects duplicate
// mapping keys at any depth, which gopkg.in/yaml.v3's default decode
// path silently allows (last-key-wins).
package yamltree

import (
	"fmt"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"gopkg.in/yaml.v3"
)

// Load parses data as a single YAML document and rejects duplicate
// keys in any mapping, at any depth. It returns the root content node
// (the document's single child), ready for further decoding.
func Load(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pderrors.Wrap(err, pderrors.CategoryYAML, pderrors.CodeYamlParse, "failed to parse YAML").
			WithHint("check indentation and quoting")
	}
	if len(doc.Content) == 0 {
		// Empty document: treat as an empty mapping so downstream
		// stages see a consistent, decodable node.
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	root := doc.Content[0]
	if err := checkDuplicates(root, ""); err != nil {
		return nil, err
	}
	return root, nil
}

// checkDuplicates recursively walks a node tree, raising
// ErrDuplicateKey the first time a mapping repeats a scalar key.
func checkDuplicates(node *yaml.Node, path string) error {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		seen := make(map[string]int, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			if line, dup := seen[key]; dup {
				return pderrors.Newf(pderrors.CategoryYAML, pderrors.CodeDuplicateKey,
					"duplicate key %q at line %d (first seen at line %d)", key, keyNode.Line, line).
					WithLocation(childPath)
			}
			seen[key] = keyNode.Line
			if err := checkDuplicates(valNode, childPath); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			if err := checkDuplicates(child, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := checkDuplicates(child, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode decodes node into out, the way a caller would use
// (*yaml.Node).Decode directly, but wrapped so decode failures surface
// as PeiErrors consistent with the rest of the pipeline.
func Decode(node *yaml.Node, out interface{}) error {
	if err := node.Decode(out); err != nil {
		return pderrors.Wrap(err, pderrors.CategoryYAML, pderrors.CodeYamlParse, "failed to decode YAML node")
	}
	return nil
}

// ToTree converts node into a schema-agnostic tree of
// map[string]interface{}, []interface{}, and scalar leaves, suitable
// for substitute.WalkAndSubstitute.
func ToTree(node *yaml.Node) (interface{}, error) {
	var out interface{}
	if err := Decode(node, &out); err != nil {
		return nil, err
	}
	return normalizeTree(out), nil
}

// normalizeTree recursively rebuilds the map[string]interface{} and
// []interface{} values that yaml.v3's generic decode produces into a
// consistently typed tree; other values are returned unchanged.
func normalizeTree(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = normalizeTree(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = normalizeTree(vv)
		}
		return out
	default:
		return v
	}
}

// Marshal renders a tree (struct, map, or *yaml.Node) back to YAML
// bytes, using the same library the rest of the pipeline marshals
// compose documents with.
func Marshal(v interface{}) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, pderrors.Wrap(err, pderrors.CategoryYAML, pderrors.CodeYamlParse, "failed to marshal YAML")
	}
	return out, nil
}
