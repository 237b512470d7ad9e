package eip

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
)

func writeFixture(t *testing.T, dir string) {
	t.Helper()
	eip1 := "# Basic Wallet Spec\n\n| Field | Value |\n|---|---|\n| Status | Draft |\n"
	eip22 := "# Auction Contract\n\n| Field | Value |\n|---|---|\n| Status | Final |\n"
	if err := os.WriteFile(filepath.Join(dir, "eip-1.md"), []byte(eip1), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "eip-22.md"), []byte(eip22), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("not an eip"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListAndGetScenarioS5(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	m := New("unused", dir, time.Hour, logger.New("test"))
	if err := m.refresh(); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	summaries := m.List()
	if len(summaries) != 2 || summaries[0].Number != 1 || summaries[1].Number != 22 {
		t.Fatalf("expected [1, 22], got %+v", summaries)
	}

	detail, ok := m.Get(1)
	if !ok {
		t.Fatal("expected eip 1 to be present")
	}
	if detail.Title != "Basic Wallet Spec" || detail.Status != "Draft" {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	if _, ok := m.Get(999); ok {
		t.Fatal("expected eip 999 to be absent")
	}
}

func TestParseFileMissingTitleAndStatus(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "eip-5.md"), []byte("no heading or status table"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New("unused", dir, time.Hour, logger.New("test"))
	detail, err := m.parseFile(filepath.Join(dir, "eip-5.md"), "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Title != "Unknown Title" || detail.Status != "Unknown" {
		t.Fatalf("expected Unknown Title/Status defaults, got %+v", detail)
	}
}

func TestStopWithoutStartReturnsPromptly(t *testing.T) {
	m := New("unused", t.TempDir(), time.Hour, logger.New("test"))
	start := time.Now()
	m.Stop()
	if time.Since(start) > shutdownJoinBound {
		t.Fatal("Stop should return immediately when the loop was never started")
	}
}
