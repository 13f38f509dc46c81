package daemonrun_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autoname/internal/daemonrun"
	"autoname/internal/testsupport"
)

func TestRunProcessesUntilCancelled(t *testing.T) {
	fake := testsupport.NewFakeServices(t)
	fake.AddDocument("invoice1.pdf", testsupport.Document{Date: "2024-03-01", ABN: "51824753556"})
	fake.AddEntity("51824753556", testsupport.Entity{TradingName: "Acme Trading"})
	cfg := testsupport.NewConfig(t, testsupport.WithServices(fake))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{})
	}()

	pidPath := filepath.Join(cfg.Paths.StateDir, "autoname.pid")
	testsupport.WaitForFile(t, pidPath, 5*time.Second)
	testsupport.WaitForFile(t, cfg.LockPath(), 5*time.Second)
	// Lock is taken before the watcher registers.
	time.Sleep(100 * time.Millisecond)

	testsupport.WriteDocument(t, filepath.Join(cfg.Paths.InputDir, "invoice1.pdf"))
	testsupport.WaitForFile(t, filepath.Join(cfg.Paths.OutputDir, "2024-03-01 Acme Trading.pdf"), 5*time.Second)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Fatalf("expected pid file to be removed, stat err=%v", err)
	}
	if info, err := os.Stat(cfg.Logging.File); err != nil || info.Size() == 0 {
		t.Fatalf("expected log file to be written, info=%v err=%v", info, err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := daemonrun.Run(context.Background(), nil, daemonrun.Options{}); err == nil {
		t.Fatal("expected error without config")
	}
}
