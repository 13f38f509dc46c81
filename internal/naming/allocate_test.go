package naming_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"autoname/internal/naming"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestAllocateReturnsBaseNameWhenFree(t *testing.T) {
	dir := t.TempDir()
	got, err := naming.NewAllocator(dir).Allocate("2024-03-01", "Acme Trading", ".pdf")
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if want := filepath.Join(dir, "2024-03-01 Acme Trading.pdf"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestAllocateSkipsTakenCandidates(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "2024-03-01 Acme.pdf"))
	touch(t, filepath.Join(dir, "2024-03-01 Acme 1.pdf"))
	touch(t, filepath.Join(dir, "2024-03-01 Acme 2.pdf"))

	got, err := naming.NewAllocator(dir).Allocate("2024-03-01", "Acme", ".pdf")
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if want := filepath.Join(dir, "2024-03-01 Acme 3.pdf"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestAllocateFirstGapWins(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "2024-03-01 Acme.pdf"))
	touch(t, filepath.Join(dir, "2024-03-01 Acme 2.pdf"))

	got, err := naming.NewAllocator(dir).Allocate("2024-03-01", "Acme", ".pdf")
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if want := filepath.Join(dir, "2024-03-01 Acme 1.pdf"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestAllocateTreatsDirectoryAsTaken(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "2024-03-01 Acme.pdf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, err := naming.NewAllocator(dir).Allocate("2024-03-01", "Acme", ".pdf")
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if filepath.Base(got) != "2024-03-01 Acme 1.pdf" {
		t.Fatalf("unexpected allocation %q", got)
	}
}

func TestAllocateStatError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0o000); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := naming.NewAllocator(filepath.Join(locked, "inner")).Allocate("2024-03-01", "Acme", ".pdf")
	if err == nil || errors.Is(err, naming.ErrExhausted) {
		t.Fatalf("expected stat error, got %v", err)
	}
}

func TestComposeSanitizesSeparators(t *testing.T) {
	got := naming.Compose("2024-03-01", "A/B\\C\x00D", ".pdf", 0)
	if got != "2024-03-01 A-B-C-D.pdf" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := naming.Compose("2024-03-01", "Acme", ".pdf", 4); got != "2024-03-01 Acme 4.pdf" {
		t.Fatalf("unexpected numbered name %q", got)
	}
}

func TestSanitizeComponentNormalizesToNFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	if got := naming.SanitizeComponent(decomposed); got != "Caf\u00e9" {
		t.Fatalf("expected NFC form, got %q", got)
	}
	if got := naming.SanitizeComponent("Acme Trading"); got != "Acme Trading" {
		t.Fatalf("plain names must be unchanged, got %q", got)
	}
}
