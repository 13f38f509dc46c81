package testsupport

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Document describes the fields the fake extraction service returns for an
// uploaded filename. Empty fields are reported as null.
type Document struct {
	Date string
	ABN  string
}

// Entity describes a business register record.
type Entity struct {
	TradingName string
	MainName    string
}

// FakeServices serves the Sypht and ABR endpoints the daemon talks to from a
// single httptest server.
type FakeServices struct {
	server *httptest.Server

	mu        sync.Mutex
	documents map[string]Document
	entities  map[string]Entity
	uploads   []string
	lookups   []string
}

// NewFakeServices starts a fake server and registers cleanup.
func NewFakeServices(t testing.TB) *FakeServices {
	t.Helper()

	f := &FakeServices{
		documents: make(map[string]Document),
		entities:  make(map[string]Entity),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", f.handleToken)
	mux.HandleFunc("/fileupload", f.handleUpload)
	mux.HandleFunc("/result/final/", f.handleResults)
	mux.HandleFunc("/ABRSearchByABN", f.handleSearch)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeServices) URL() string {
	return f.server.URL
}

// AddDocument registers the extraction result for an uploaded filename.
func (f *FakeServices) AddDocument(filename string, doc Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[filename] = doc
}

// AddEntity registers a business register record.
func (f *FakeServices) AddEntity(abn string, entity Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities[abn] = entity
}

// Uploads returns the filenames uploaded so far.
func (f *FakeServices) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

// Lookups returns the ABNs queried so far.
func (f *FakeServices) Lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lookups...)
}

func (f *FakeServices) handleToken(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"access_token":"fake-token","token_type":"Bearer","expires_in":3600}`)
}

func (f *FakeServices) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("fileToUpload")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, _ = io.Copy(io.Discard, file)
	_ = file.Close()

	f.mu.Lock()
	f.uploads = append(f.uploads, header.Filename)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"fileId": "job-" + header.Filename})
}

type fakeField struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

func (f *FakeServices) handleResults(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimPrefix(r.URL.Path, "/result/final/")
	filename := strings.TrimPrefix(handle, "job-")

	f.mu.Lock()
	doc, ok := f.documents[filename]
	f.mu.Unlock()
	if !ok {
		http.Error(w, "unknown file", http.StatusNotFound)
		return
	}

	fields := []fakeField{
		{Name: "document.date", Value: optional(doc.Date)},
		{Name: "document.supplierABN", Value: optional(doc.ABN)},
	}
	var body struct {
		Results struct {
			Fields []fakeField `json:"fields"`
		} `json:"results"`
	}
	body.Results.Fields = fields
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (f *FakeServices) handleSearch(w http.ResponseWriter, r *http.Request) {
	abn := r.URL.Query().Get("searchString")

	f.mu.Lock()
	f.lookups = append(f.lookups, abn)
	entity, ok := f.entities[abn]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<ABRPayloadSearchResults xmlns="http://abr.business.gov.au/ABRXMLSearch/"><response>`)
	if !ok {
		b.WriteString(`<exception><exceptionDescription>Search text is not a valid ABN or ACN</exceptionDescription>`)
		b.WriteString(`<exceptionCode>WEBSERVICES</exceptionCode></exception>`)
	} else {
		b.WriteString(`<businessEntity>`)
		if entity.MainName != "" {
			fmt.Fprintf(&b, `<mainName><organisationName>%s</organisationName></mainName>`, escape(entity.MainName))
		}
		if entity.TradingName != "" {
			fmt.Fprintf(&b, `<mainTradingName><organisationName>%s</organisationName></mainTradingName>`, escape(entity.TradingName))
		}
		b.WriteString(`</businessEntity>`)
	}
	b.WriteString(`</response></ABRPayloadSearchResults>`)
	_, _ = io.WriteString(w, b.String())
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func escape(value string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(value))
	return b.String()
}
