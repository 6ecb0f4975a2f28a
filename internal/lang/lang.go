// Package lang holds the tree-sitter JavaScript grammar and the embedded
// query that locates candidate AMD statements.
package lang

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

//go:embed queries/javascript.scm
var siteQuery []byte

// Language holds tree-sitter configuration for a rewritable language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
	queryOnce  sync.Once
	query      *sitter.Query
	queryErr   error
}

// JavaScript is the only language amdcjs rewrites.
var JavaScript = &Language{
	Name:       "javascript",
	Extensions: []string{".js"},
	lang:       javascript.GetLanguage(),
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// GetSiteQuery returns the compiled query that captures top-level call
// statements as @site (safe to share across goroutines).
func (l *Language) GetSiteQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		q, err := sitter.NewQuery(siteQuery, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling site query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// Matches reports whether a file extension (with its dot) belongs to l.
func (l *Language) Matches(ext string) bool {
	return slices.Contains(l.Extensions, ext)
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
