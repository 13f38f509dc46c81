package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"autoname/internal/history"
	"autoname/internal/logging"
	"autoname/internal/naming"
	"autoname/internal/queue"
	"autoname/internal/services/abr"
	"autoname/internal/services/sypht"
	"autoname/internal/supplier"
	"autoname/internal/workflow"
)

type stubFetcher struct {
	mu      sync.Mutex
	results map[string]sypht.Results
	err     error
	panicOn string
}

func (f *stubFetcher) FetchResults(_ context.Context, handle string) (sypht.Results, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if handle == f.panicOn {
		panic("fetch exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[handle], nil
}

type stubLookup struct {
	mu        sync.Mutex
	responses map[string]abr.Response
	err       error
	calls     int
}

func (l *stubLookup) SearchByABN(_ context.Context, abn string) (abr.Response, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return abr.Response{}, l.err
	}
	resp, ok := l.responses[abn]
	if !ok {
		return abr.Response{Exception: &abr.Exception{Description: "Search text is not a valid ABN or ACN", Code: "WEBSERVICES"}}, nil
	}
	return resp, nil
}

type memRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *memRecorder) Record(_ context.Context, entry history.Entry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return int64(len(r.entries)), nil
}

func (r *memRecorder) snapshot() []history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Entry(nil), r.entries...)
}

func tradingResponse(name string) abr.Response {
	return abr.Response{BusinessEntity: &abr.BusinessEntity{
		MainTradingName: []abr.OrganisationName{{Name: name}},
	}}
}

func mainNameResponse(name string) abr.Response {
	return abr.Response{BusinessEntity: &abr.BusinessEntity{
		MainName: &abr.OrganisationName{Name: name},
	}}
}

type fixture struct {
	inDir    string
	outDir   string
	fetcher  *stubFetcher
	lookup   *stubLookup
	recorder *memRecorder
	queue    *queue.Queue
	worker   *workflow.Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		inDir:    t.TempDir(),
		outDir:   t.TempDir(),
		fetcher:  &stubFetcher{results: map[string]sypht.Results{}},
		lookup:   &stubLookup{responses: map[string]abr.Response{}},
		recorder: &memRecorder{},
	}
	f.queue = queue.New(4, logging.NewNop())
	resolver := supplier.NewResolver(f.lookup, logging.NewNop())
	f.worker = workflow.NewWorker(f.queue, f.fetcher, resolver, naming.NewAllocator(f.outDir), logging.NewNop(),
		workflow.WithRecorder(f.recorder),
		workflow.WithTakeTimeout(20*time.Millisecond),
	)
	return f
}

func (f *fixture) source(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.inDir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}

func TestProcessRenamesDocument(t *testing.T) {
	f := newFixture(t)
	src := f.source(t, "invoice1.pdf")
	f.fetcher.results["h1"] = sypht.Results{
		sypht.FieldDate:        "2024-03-01",
		sypht.FieldSupplierABN: "51 824 753 556",
	}
	f.lookup.responses["51824753556"] = tradingResponse("Acme Trading")

	result := f.worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})

	want := filepath.Join(f.outDir, "2024-03-01 Acme Trading.pdf")
	if result.Status != history.StatusRenamed || result.Err != nil {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Destination != want {
		t.Fatalf("destination = %q, want %q", result.Destination, want)
	}
	assertExists(t, want)
	assertMissing(t, src)
}

func TestProcessAppendsCounterOnCollision(t *testing.T) {
	f := newFixture(t)
	f.fetcher.results["h1"] = sypht.Results{sypht.FieldDate: "2024-03-01", sypht.FieldSupplierABN: "1"}
	f.lookup.responses["1"] = tradingResponse("Acme Trading")
	if err := os.WriteFile(filepath.Join(f.outDir, "2024-03-01 Acme Trading.pdf"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	src := f.source(t, "invoice2.pdf")
	result := f.worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})

	want := filepath.Join(f.outDir, "2024-03-01 Acme Trading 1.pdf")
	if result.Destination != want {
		t.Fatalf("destination = %q, want %q", result.Destination, want)
	}
	assertExists(t, want)
}

func TestProcessStripsSuffixFromMainName(t *testing.T) {
	f := newFixture(t)
	src := f.source(t, "bill.pdf")
	f.fetcher.results["h1"] = sypht.Results{sypht.FieldDate: "2023-11-30", sypht.FieldSupplierABN: "2"}
	f.lookup.responses["2"] = mainNameResponse("WIDGETS PTY LTD")

	result := f.worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})

	if result.Supplier != "WIDGETS" {
		t.Fatalf("supplier = %q, want WIDGETS", result.Supplier)
	}
	assertExists(t, filepath.Join(f.outDir, "2023-11-30 WIDGETS.pdf"))
}

func TestProcessLeavesFileWhenFieldsMissing(t *testing.T) {
	cases := []struct {
		name    string
		results sypht.Results
	}{
		{name: "no date", results: sypht.Results{sypht.FieldSupplierABN: "1"}},
		{name: "blank date", results: sypht.Results{sypht.FieldDate: "  ", sypht.FieldSupplierABN: "1"}},
		{name: "no abn", results: sypht.Results{sypht.FieldDate: "2024-03-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			src := f.source(t, "doc.pdf")
			f.fetcher.results["h1"] = tc.results
			f.lookup.responses["1"] = tradingResponse("Acme")

			result := f.worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})

			if result.Status != history.StatusSkipped || result.Err == nil {
				t.Fatalf("unexpected result %+v", result)
			}
			assertExists(t, src)
			if f.lookup.calls != 0 {
				t.Fatalf("registry must not be queried, got %d calls", f.lookup.calls)
			}
		})
	}
}

func TestProcessLeavesFileWhenLookupFails(t *testing.T) {
	f := newFixture(t)
	src := f.source(t, "doc.pdf")
	f.fetcher.results["h1"] = sypht.Results{sypht.FieldDate: "2024-03-01", sypht.FieldSupplierABN: "999"}

	result := f.worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})
	if result.Status != history.StatusSkipped || !errors.Is(result.Err, supplier.ErrLookupFailed) {
		t.Fatalf("unexpected result for registry exception %+v", result)
	}
	assertExists(t, src)

	f.lookup.err = errors.New("connection refused")
	result = f.worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})
	if result.Status != history.StatusFailed || !errors.Is(result.Err, supplier.ErrLookupFailed) {
		t.Fatalf("unexpected result for transport failure %+v", result)
	}
	assertExists(t, src)
}

func TestProcessLeavesFileWhenFetchFails(t *testing.T) {
	f := newFixture(t)
	src := f.source(t, "doc.pdf")
	f.fetcher.err = errors.New("503 service unavailable")

	result := f.worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})
	if result.Status != history.StatusFailed {
		t.Fatalf("unexpected result %+v", result)
	}
	assertExists(t, src)
}

func TestProcessReportsMoveFailure(t *testing.T) {
	f := newFixture(t)
	src := f.source(t, "doc.pdf")
	f.fetcher.results["h1"] = sypht.Results{sypht.FieldDate: "2024-03-01", sypht.FieldSupplierABN: "1"}
	f.lookup.responses["1"] = tradingResponse("Acme")
	worker := workflow.NewWorker(f.queue, f.fetcher, supplier.NewResolver(f.lookup, nil), naming.NewAllocator(f.outDir), nil,
		workflow.WithMoveFunc(func(string, string) error { return errors.New("read-only file system") }),
	)

	result := worker.Process(context.Background(), queue.Job{Handle: "h1", SourcePath: src})
	if result.Status != history.StatusFailed || result.Supplier != "Acme" {
		t.Fatalf("unexpected result %+v", result)
	}
	assertExists(t, src)
}

func TestWorkerLoopProcessesQueueAndRecovers(t *testing.T) {
	f := newFixture(t)
	f.fetcher.panicOn = "boom"
	f.fetcher.results["good"] = sypht.Results{sypht.FieldDate: "2024-03-01", sypht.FieldSupplierABN: "1"}
	f.lookup.responses["1"] = tradingResponse("Acme Trading")
	bad := f.source(t, "bad.pdf")
	good := f.source(t, "good.pdf")

	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.worker.Stop()

	ctx := context.Background()
	if err := f.queue.Submit(ctx, queue.Job{Handle: "boom", SourcePath: bad}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.queue.Submit(ctx, queue.Job{Handle: "good", SourcePath: good}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(f.recorder.snapshot()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("worker did not process both jobs, stats=%+v", f.worker.Stats())
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := f.worker.Stats()
	if stats.Renamed != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	assertExists(t, bad)
	assertExists(t, filepath.Join(f.outDir, "2024-03-01 Acme Trading.pdf"))

	entries := f.recorder.snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if entries[0].Status != history.StatusFailed || entries[0].JobHandle != "boom" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Status != history.StatusRenamed || entries[1].Supplier != "Acme Trading" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}

func TestWorkerStopReturnsPromptlyWhenIdle(t *testing.T) {
	f := newFixture(t)
	if err := f.worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.worker.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
	if !f.worker.Running() {
		t.Fatal("expected worker to report running")
	}

	done := make(chan struct{})
	go func() {
		f.worker.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	if f.worker.Running() {
		t.Fatal("expected worker to report stopped")
	}
	f.worker.Stop()
}
