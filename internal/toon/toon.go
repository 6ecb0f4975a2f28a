// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/amdcjs/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))

	var fileRows, errRows, siteRows [][]string
	for i := range r.Files {
		fr := &r.Files[i]
		fileRows = append(fileRows, []string{
			fr.Path,
			fmt.Sprintf("%d", len(fr.Sites)),
			string(fr.Status),
		})
		if fr.Err != nil {
			errRows = append(errRows, []string{fr.Path, fr.Err.Error()})
		}
		for j := range fr.Sites {
			s := &fr.Sites[j]
			siteRows = append(siteRows, []string{
				s.File,
				fmt.Sprintf("%d", s.Line),
				s.Callee,
				s.Module,
				s.Shape,
				strings.Join(s.Deps, " "),
			})
		}
	}
	parts = append(parts, formatTabular("files", []string{"path", "sites", "status"}, fileRows))
	parts = append(parts, formatTabular("sites", []string{"file", "line", "callee", "module", "shape", "deps"}, siteRows))

	if len(errRows) > 0 {
		parts = append(parts, formatTabular("errors", []string{"path", "error"}, errRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
