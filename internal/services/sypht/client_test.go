package sypht_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"autoname/internal/history"
	"autoname/internal/services"
	"autoname/internal/services/sypht"
)

type fakeSypht struct {
	t           *testing.T
	tokenCalls  atomic.Int32
	uploadBody  string
	uploadName  string
	fieldSets   string
	fileID      string
	resultsJSON string
	status      int
}

func (f *fakeSypht) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "secret" {
			f.t.Errorf("unexpected basic auth: %q %q %v", id, secret, ok)
		}
		if err := r.ParseForm(); err != nil {
			f.t.Errorf("parse token form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			f.t.Errorf("unexpected grant type %q", got)
		}
		if got := r.PostForm.Get("audience"); got != "https://api.sypht.com" {
			f.t.Errorf("unexpected audience %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/fileupload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			f.t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			f.t.Errorf("unexpected authorization %q", got)
		}
		file, header, err := r.FormFile("fileToUpload")
		if err != nil {
			f.t.Errorf("missing fileToUpload: %v", err)
			return
		}
		data, _ := io.ReadAll(file)
		f.uploadBody = string(data)
		f.uploadName = header.Filename
		f.fieldSets = r.FormValue("fieldSets")
		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, "upstream unavailable")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"fileId": f.fileID})
	})
	mux.HandleFunc("/result/final/", func(w http.ResponseWriter, r *http.Request) {
		if got := strings.TrimPrefix(r.URL.Path, "/result/final/"); got != "job-1" {
			f.t.Errorf("unexpected handle %q", got)
		}
		_, _ = io.WriteString(w, f.resultsJSON)
	})
	return mux
}

func newClient(t *testing.T, server *httptest.Server) *sypht.Client {
	t.Helper()
	client, err := sypht.NewClient(sypht.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      server.URL,
		AuthURL:      server.URL,
		Audience:     "https://api.sypht.com",
		FieldSets:    []string{"document"},
	}, sypht.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestUploadSendsMultipartAndReturnsHandle(t *testing.T) {
	fake := &fakeSypht{t: t, fileID: "job-1"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := newClient(t, server)
	handle, err := client.Upload(context.Background(), "/in/invoice1.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if handle != "job-1" {
		t.Fatalf("unexpected handle %q", handle)
	}
	if fake.uploadBody != "%PDF-1.4" || fake.uploadName != "invoice1.pdf" {
		t.Fatalf("unexpected upload %q %q", fake.uploadName, fake.uploadBody)
	}
	if fake.fieldSets != `["document"]` {
		t.Fatalf("unexpected fieldSets %q", fake.fieldSets)
	}

	if _, err := client.Upload(context.Background(), "/in/b.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if calls := fake.tokenCalls.Load(); calls != 1 {
		t.Fatalf("expected token to be reused, got %d token calls", calls)
	}
}

func TestUploadMissingFileIDFails(t *testing.T) {
	fake := &fakeSypht{t: t}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	_, err := newClient(t, server).Upload(context.Background(), "a.pdf", strings.NewReader("x"))
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestUploadHTTPErrorIncludesStatus(t *testing.T) {
	fake := &fakeSypht{t: t, status: http.StatusBadGateway}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	_, err := newClient(t, server).Upload(context.Background(), "a.pdf", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "http 502") {
		t.Fatalf("expected http 502 error, got %v", err)
	}
}

func TestFetchResultsFlattensFields(t *testing.T) {
	fake := &fakeSypht{t: t, resultsJSON: `{"fileId":"job-1","results":{"fields":[
		{"name":"document.date","value":"2024-03-01"},
		{"name":"document.supplierABN","value":"51824753556"},
		{"name":"document.total","value":12.5},
		{"name":"document.dueDate","value":null}
	]}}`}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	results, err := newClient(t, server).FetchResults(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("FetchResults returned error: %v", err)
	}
	if date, ok := results.Date(); !ok || date != "2024-03-01" {
		t.Fatalf("unexpected date %q %v", date, ok)
	}
	if abn, ok := results.SupplierABN(); !ok || abn != "51824753556" {
		t.Fatalf("unexpected abn %q %v", abn, ok)
	}
	if total, ok := results.Get("document.total"); !ok || total != "12.5" {
		t.Fatalf("unexpected total %q %v", total, ok)
	}
	if _, ok := results.Get("document.dueDate"); ok {
		t.Fatal("expected null field to be absent")
	}
}

func TestFetchResultsRejectsUnfinishedExtraction(t *testing.T) {
	fake := &fakeSypht{t: t, resultsJSON: `{"fileId":"job-1","status":"PROCESSING","results":{"fields":[]}}`}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	_, err := newClient(t, server).FetchResults(context.Background(), "job-1")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if !strings.Contains(err.Error(), "PROCESSING") {
		t.Fatalf("expected status in error, got %v", err)
	}
	if services.FailureStatus(err) != history.StatusFailed {
		t.Fatalf("unfinished extraction must not be journalled as a skip")
	}
}

func TestFetchResultsAcceptsFinalisedStatus(t *testing.T) {
	fake := &fakeSypht{t: t, resultsJSON: `{"fileId":"job-1","status":"FINALISED","results":{"fields":[
		{"name":"document.date","value":"2024-03-01"}
	]}}`}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	results, err := newClient(t, server).FetchResults(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("FetchResults returned error: %v", err)
	}
	if date, ok := results.Date(); !ok || date != "2024-03-01" {
		t.Fatalf("unexpected date %q %v", date, ok)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := sypht.NewClient(sypht.Config{BaseURL: "http://x", AuthURL: "http://x"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAuthenticateRequestsToken(t *testing.T) {
	fake := &fakeSypht{t: t}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	if err := newClient(t, server).Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if calls := fake.tokenCalls.Load(); calls != 1 {
		t.Fatalf("expected one token call, got %d", calls)
	}
}

func TestAuthenticateReportsRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
	}))
	defer server.Close()

	err := newClient(t, server).Authenticate(context.Background())
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
}
