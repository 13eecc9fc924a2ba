package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunListHitsEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/vaults" || r.URL.Query().Get("limit") != "5" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"vaults":[],"count":0}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	if err := runList(srv.URL, 0, 5, &out); err != nil {
		t.Fatalf("runList: %v", err)
	}
	if !strings.Contains(out.String(), `"count":0`) {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRunSearchRejectsEmptyQuery(t *testing.T) {
	if err := runSearch("http://localhost:0", "v1", "", 5, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestRunUploadSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("name") != "kb" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"completed"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "kb.zip")
	if err := os.WriteFile(path, []byte("not a real zip, server does not care"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var out bytes.Buffer
	if err := runUpload(srv.URL, path, "", false, &out); err != nil {
		t.Fatalf("runUpload: %v", err)
	}
	if !strings.Contains(out.String(), "completed") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRunDeleteErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Not Found","code":404}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := runDelete(srv.URL, "missing", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("want 404 error, got %v", err)
	}
}
