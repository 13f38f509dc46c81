package main

import (
	"bytes"
	"strings"
	"testing"

	"autoname/internal/history"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Sypht", checkKind(true), "authenticated", false)
	if !strings.Contains(line, "Sypht:") || !strings.HasSuffix(line, "[OK] authenticated") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("ABR", checkKind(false), "guid missing", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestShouldColorizeRequiresTerminal(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestRenderTableTruncatesWideColumns(t *testing.T) {
	out := renderTable([]column{{Header: "Name", MaxWidth: 5}}, [][]string{{"abcdefghij"}})
	if strings.Contains(out, "abcdefghij") {
		t.Fatalf("expected truncation:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}

func TestOutcomeKind(t *testing.T) {
	cases := []struct {
		status history.Status
		count  int
		want   statusKind
	}{
		{history.StatusFailed, 0, statusInfo},
		{history.StatusFailed, 2, statusWarn},
		{history.StatusRenamed, 3, statusOK},
		{history.StatusSkipped, 1, statusInfo},
	}
	for _, tc := range cases {
		if got := outcomeKind(tc.status, tc.count); got != tc.want {
			t.Errorf("outcomeKind(%s, %d) = %v, want %v", tc.status, tc.count, got, tc.want)
		}
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Checks ", false)
	if len(lines) != 2 || lines[0] != "Checks" || lines[1] != "======" {
		t.Fatalf("unexpected header %q", lines)
	}
}
