// Package parse runs tree-sitter over source files and locates candidate
// statements with a compiled query.
package parse

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrSyntax is returned for sources tree-sitter cannot parse cleanly.
var ErrSyntax = errors.New("syntax error")

// Tree parses source and rejects trees containing ERROR or missing nodes.
// The caller must Close the returned tree.
// filePath is used only in error messages.
func Tree(ctx context.Context, parser *sitter.Parser, source []byte, filePath string) (*sitter.Tree, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	if root := tree.RootNode(); root.HasError() {
		line := firstErrorLine(root)
		tree.Close()
		return nil, fmt.Errorf("%s:%d: %w", filePath, line, ErrSyntax)
	}
	return tree, nil
}

// Captures returns, in document order and without duplicates, every node
// captured as capture by query matches under root whose predicates hold.
func Captures(query *sitter.Query, root *sitter.Node, source []byte, capture string) []*sitter.Node {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var nodes []*sitter.Node
	seen := make(map[[2]uint32]struct{})

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		for _, c := range match.Captures {
			if query.CaptureNameForId(c.Index) != capture {
				continue
			}
			key := [2]uint32{c.Node.StartByte(), c.Node.EndByte()}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			nodes = append(nodes, c.Node)
		}
	}

	return nodes
}

// firstErrorLine returns the 1-based line of the first ERROR or missing node.
func firstErrorLine(node *sitter.Node) int {
	if node.Type() == "ERROR" || node.IsMissing() {
		return int(node.StartPoint().Row) + 1
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			return firstErrorLine(child)
		}
	}
	return int(node.StartPoint().Row) + 1
}
