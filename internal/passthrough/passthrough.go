// Package passthrough implements the passthrough rewriter (component
// C8): the final tree walk over the synthesized compose document that
// rewrites `{{...}}` passthrough markers to Docker Compose `${...}`
// tokens.
package passthrough

import (
	"fmt"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/igamenovoer/peidocker/internal/substitute"
	"gopkg.in/yaml.v3"
)

// Rewrite walks node in place, rewriting every scalar string leaf's
// `{{...}}` tokens to `${...}`. It returns ErrMalformedPassthrough,
// with the offending leaf's location, on the first malformed
// occurrence.
func Rewrite(node *yaml.Node) error {
	return walk(node, "$")
}

func walk(node *yaml.Node, path string) error {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!str" && node.Tag != "" {
			return nil
		}
		rewritten, err := substitute.RewriteToCompose(node.Value)
		if err != nil {
			if pe, ok := asPeiError(err); ok {
				pe.WithLocation(fmt.Sprintf("%s (line %d)", path, node.Line))
			}
			return err
		}
		node.Value = rewritten
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			val := node.Content[i+1]
			if err := walk(val, path+"."+key.Value); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			if err := walk(child, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := walk(child, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func asPeiError(err error) (*pderrors.PeiError, bool) {
	pe, ok := err.(*pderrors.PeiError)
	return pe, ok
}
