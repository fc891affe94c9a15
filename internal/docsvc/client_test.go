package docsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	var created map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/documents":
			if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
				t.Fatalf("decode: %v", err)
			}
			json.NewEncoder(w).Encode(Document{ID: created["id"], Title: created["title"], Content: created["content"], Version: 1})
		case r.Method == http.MethodGet && r.URL.Path == "/api/documents/d1":
			json.NewEncoder(w).Encode(Document{ID: "d1", Title: "notes", Content: "hello", Version: 3})
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	doc, err := c.Create(context.Background(), "d1", "notes", "hello")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.Version != 1 || created["id"] != "d1" {
		t.Fatalf("create round trip: doc=%+v created=%v", doc, created)
	}

	doc, err = c.Get(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Content != "hello" || doc.Version != 3 {
		t.Fatalf("get doc = %+v", doc)
	}
}

func TestUpdateSendsOnlyPresentFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := body["title"]; ok {
			t.Fatal("title must be omitted when nil")
		}
		if body["content"] != "v2" {
			t.Fatalf("content = %q", body["content"])
		}
		json.NewEncoder(w).Encode(Document{ID: "d1", Content: "v2", Version: 4})
	}))
	defer srv.Close()

	content := "v2"
	doc, err := NewClient(srv.URL).Update(context.Background(), "d1", nil, &content)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if doc.Version != 4 {
		t.Fatalf("version = %d", doc.Version)
	}
}

func TestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such document", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Get(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found status error", err)
	}
}

func TestDeleteAcceptsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Delete(context.Background(), "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
