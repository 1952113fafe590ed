package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestListPosts_SendsAuthAndParsesResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/posts" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("order"); got != "created_at.desc" {
			t.Fatalf("unexpected order param: %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Fatalf("unexpected limit param: %s", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Fatalf("unexpected apikey header: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer anon-key" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
  {"id":"2","name":"Greg","message":"second","created_at":"2026-08-01T10:01:00Z","image":"data:image/png;base64,AA=="},
  {"id":"1","name":null,"message":"first","created_at":"2026-08-01T10:00:00Z","image":null}
]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "anon-key", ts.Client())
	posts, err := c.ListPosts(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListPosts returned error: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != "2" || posts[0].Author != "Greg" || !posts[0].HasImage() {
		t.Fatalf("unexpected first post: %+v", posts[0])
	}
	if posts[1].Author != "" || posts[1].Image != "" {
		t.Fatalf("null columns must normalize to absent: %+v", posts[1])
	}
	want := time.Date(2026, 8, 1, 10, 1, 0, 0, time.UTC)
	if !posts[0].CreatedAt.Equal(want) {
		t.Fatalf("unexpected created_at: %v", posts[0].CreatedAt)
	}
}

func TestListPosts_SurfacesBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database is resting"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "anon-key", ts.Client())
	_, err := c.ListPosts(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "database is resting") {
		t.Fatalf("backend message not surfaced: %v", err)
	}
}

func TestInsertPost_SendsRecordWithoutIDOrTimestamp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/rest/v1/posts" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Prefer"); got != "return=minimal" {
			t.Fatalf("unexpected Prefer header: %s", got)
		}

		body, _ := io.ReadAll(r.Body)
		var record map[string]any
		if err := json.Unmarshal(body, &record); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if _, has := record["id"]; has {
			t.Fatal("client must not send an id")
		}
		if _, has := record["created_at"]; has {
			t.Fatal("client must not send created_at")
		}
		if record["name"] != "Greg" || record["message"] != "hello wall" {
			t.Fatalf("unexpected record: %v", record)
		}
		if record["image"] != nil {
			t.Fatalf("image should be null when absent, got %v", record["image"])
		}

		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "anon-key", ts.Client())
	if err := c.InsertPost(context.Background(), "Greg", "hello wall", ""); err != nil {
		t.Fatalf("InsertPost returned error: %v", err)
	}
}

func TestInsertPost_SurfacesBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("row level security says no"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "anon-key", ts.Client())
	err := c.InsertPost(context.Background(), "", "hello", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "row level security says no") {
		t.Fatalf("backend message not surfaced: %v", err)
	}
}
