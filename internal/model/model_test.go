package model

import (
	"errors"
	"testing"
)

func TestReportChanged(t *testing.T) {
	t.Parallel()

	r := &Report{
		Root: "webapp",
		Files: []FileResult{
			{Path: "a.js", Status: Rewritten},
			{Path: "b.js", Status: Unchanged},
			{Path: "c.js", Status: Failed, Err: errors.New("boom")},
			{Path: "d.js", Status: Rewritten},
		},
	}

	got := r.Changed()
	if len(got) != 2 || got[0] != "a.js" || got[1] != "d.js" {
		t.Errorf("Changed() = %v, want [a.js d.js]", got)
	}
}

func TestReportChangedEmpty(t *testing.T) {
	t.Parallel()

	if got := (&Report{}).Changed(); got != nil {
		t.Errorf("Changed() = %v, want nil", got)
	}
}
