// Package model defines core data structures for amdcjs reports.
package model

// Status describes what happened to a file.
type Status string

const (
	Rewritten Status = "rewritten"
	Unchanged Status = "unchanged"
	Failed    Status = "error"
)

// Site records one rewritten AMD call statement.
type Site struct {
	File   string
	Line   int
	Callee string
	Module string // module name of a named define, "" when anonymous
	Shape  string
	Deps   []string
}

// FileResult holds the outcome of rewriting a single source file.
type FileResult struct {
	Path   string
	Status Status
	Sites  []Site
	Err    error
}

// Report is the complete result of a run, ready for serialization.
type Report struct {
	Root  string
	Files []FileResult
}

// Changed returns the files whose content was rewritten.
func (r *Report) Changed() []string {
	var paths []string
	for i := range r.Files {
		if r.Files[i].Status == Rewritten {
			paths = append(paths, r.Files[i].Path)
		}
	}
	return paths
}
