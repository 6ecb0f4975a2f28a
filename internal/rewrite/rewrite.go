// Package rewrite splices CommonJS replacements for top-level AMD calls into
// JavaScript source text.
package rewrite

import (
	"bytes"
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/phobologic/amdcjs/internal/amd"
	"github.com/phobologic/amdcjs/internal/codegen"
	"github.com/phobologic/amdcjs/internal/model"
	"github.com/phobologic/amdcjs/internal/parse"
)

// Result is the outcome of rewriting one source file.
type Result struct {
	Source []byte
	Sites  []model.Site
}

// Changed reports whether any call site was rewritten.
func (r *Result) Changed() bool {
	return len(r.Sites) > 0
}

type edit struct {
	start, end uint32
	text       string
}

// Source rewrites every recognized top-level define/require statement in
// source. Statements that do not match are left byte for byte.
// The parser must be created for JavaScript and query must capture candidate
// statements as @site. filePath is used only for Site.File and errors.
func Source(ctx context.Context, parser *sitter.Parser, query *sitter.Query, source []byte, filePath string) (*Result, error) {
	if len(source) == 0 {
		return &Result{Source: source}, nil
	}

	tree, err := parse.Tree(ctx, parser, source, filePath)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var (
		edits  []edit
		sites  []model.Site
		edited = make(map[uint32]struct{})
	)

	for _, stmt := range parse.Captures(query, tree.RootNode(), source, "site") {
		line := int(stmt.StartPoint().Row) + 1
		site, ok := amd.Classify(stmt, source)
		if !ok {
			Logger().Debug("call left unchanged",
				zap.String("file", filePath),
				zap.Int("line", line))
			continue
		}

		stmts := amd.Plan(site)
		text := codegen.Render(stmts, indentAt(source, stmt.StartByte()))
		if strings.HasPrefix(text, "(") && continuesPrevious(stmt, source, edited) {
			text = ";" + text
		}
		if c := trailingComments(stmt, source); c != "" {
			text += " " + c
		}
		edits = append(edits, edit{
			start: stmt.StartByte(),
			end:   stmt.EndByte(),
			text:  text,
		})
		edited[stmt.StartByte()] = struct{}{}
		sites = append(sites, siteRecord(filePath, site, stmts))

		Logger().Debug("call rewritten",
			zap.String("file", filePath),
			zap.Int("line", line),
			zap.String("callee", string(site.Callee)),
			zap.Int("deps", len(site.Deps)))
	}

	if len(edits) == 0 {
		return &Result{Source: source}, nil
	}
	return &Result{Source: apply(source, edits), Sites: sites}, nil
}

func siteRecord(filePath string, site amd.CallSite, stmts []amd.Stmt) model.Site {
	deps := make([]string, len(site.Deps))
	for i, d := range site.Deps {
		deps[i] = d.Expr
	}
	return model.Site{
		File:   filePath,
		Line:   site.Line,
		Callee: string(site.Callee),
		Module: site.Name,
		Shape:  string(amd.ShapeOf(stmts)),
		Deps:   deps,
	}
}

// apply replaces each edit's byte range with its text.
func apply(source []byte, edits []edit) []byte {
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].start < edits[j].start
	})

	var buf bytes.Buffer
	buf.Grow(len(source))
	var pos uint32
	for _, e := range edits {
		buf.Write(source[pos:e.start])
		buf.WriteString(e.text)
		pos = e.end
	}
	buf.Write(source[pos:])
	return buf.Bytes()
}

// continuesPrevious reports whether a statement starting with "(" at stmt
// would be parsed as a call on the preceding statement, which happens when
// that statement does not end with an explicit semicolon. Comments folded
// into the end of that statement are ignored. Statements already replaced in
// this pass always end with one.
func continuesPrevious(stmt *sitter.Node, source []byte, edited map[uint32]struct{}) bool {
	prev := stmt.PrevNamedSibling()
	for prev != nil && prev.Type() == "comment" {
		prev = prev.PrevNamedSibling()
	}
	if prev == nil {
		return false
	}
	if _, ok := edited[prev.StartByte()]; ok {
		return false
	}
	end := prev.EndByte()
	for i := int(prev.ChildCount()) - 1; i >= 0; i-- {
		if c := prev.Child(i); c.Type() != "comment" {
			end = c.EndByte()
			break
		}
	}
	return end == 0 || source[end-1] != ';'
}

// trailingComments returns the comments that tree-sitter attached to stmt
// after its expression, such as a same-line comment on a call without a
// semicolon.
func trailingComments(stmt *sitter.Node, source []byte) string {
	var exprEnd uint32
	var comments []string
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		c := stmt.NamedChild(i)
		if c.Type() != "comment" {
			if exprEnd == 0 {
				exprEnd = c.EndByte()
			}
			continue
		}
		if exprEnd != 0 && c.StartByte() >= exprEnd {
			comments = append(comments, string(source[c.StartByte():c.EndByte()]))
		}
	}
	return strings.Join(comments, " ")
}

// indentAt returns the whitespace between the start of the line and offset,
// or "" if anything else precedes offset on that line.
func indentAt(source []byte, offset uint32) string {
	start := bytes.LastIndexByte(source[:offset], '\n') + 1
	prefix := source[start:offset]
	if len(bytes.Trim(prefix, " \t")) != 0 {
		return ""
	}
	return string(prefix)
}
