package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/craftsite-simple/utils"
)

func newTestGitPublisher(server *httptest.Server) *GitPublisher {
	return &GitPublisher{
		apiURL:      server.URL,
		token:       "source-token",
		deployToken: "deploy-token",
		username:    "craftsite",
		pagesDomain: "github.io",
		httpClient:  server.Client(),
	}
}

func writeRateLimit(w http.ResponseWriter, remaining int) {
	var limit gitRateLimitResponse
	limit.Resources.Core.Remaining = remaining
	limit.Resources.Core.Reset = 1767225600
	json.NewEncoder(w).Encode(limit)
}

func TestGitPublishCreatesNewRepository(t *testing.T) {
	var createdRepo, enabledPages bool
	var putPaths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rate_limit":
			writeRateLimit(w, 100)
		case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
			createdRepo = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(gitRepoResponse{HTMLURL: "https://github.com/craftsite/site-abc-1"})
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/contents/"):
			// Fresh repository: no files yet.
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/contents/"):
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			if _, hasSHA := payload["sha"]; hasSHA {
				t.Errorf("first push of %s must not carry a sha", r.URL.Path)
			}
			putPaths = append(putPaths, r.URL.Path)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/pages"):
			if got := r.Header.Get("Authorization"); got != "Bearer deploy-token" {
				t.Errorf("pages call used wrong credential: %q", got)
			}
			enabledPages = true
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	publisher := newTestGitPublisher(server)
	result, err := publisher.Publish(context.Background(), "owner-123", "template-1", "<html></html>", "")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if !createdRepo {
		t.Error("expected a repository to be created")
	}
	if !enabledPages {
		t.Error("expected public serving to be enabled for a new repository")
	}
	if len(putPaths) != 2 {
		t.Errorf("expected 2 file pushes, got %d: %v", len(putPaths), putPaths)
	}
	if result.RepoRef != "https://github.com/craftsite/site-abc-1" {
		t.Errorf("unexpected repo ref: %q", result.RepoRef)
	}
	if !strings.HasPrefix(result.PublicURL, "https://craftsite.github.io/") {
		t.Errorf("unexpected public url: %q", result.PublicURL)
	}
}

func TestGitPublishUpdatesExistingRepository(t *testing.T) {
	var sawSHA bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rate_limit":
			writeRateLimit(w, 100)
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/contents/"):
			json.NewEncoder(w).Encode(gitContentResponse{SHA: "abc123"})
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/contents/"):
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["sha"] == "abc123" {
				sawSHA = true
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
			t.Error("update must not create a new repository")
			w.WriteHeader(http.StatusBadRequest)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/pages"):
			t.Error("update must not re-enable public serving")
			w.WriteHeader(http.StatusBadRequest)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	publisher := newTestGitPublisher(server)
	result, err := publisher.Publish(context.Background(), "owner-123", "template-1", "<html></html>", "https://github.com/craftsite/site-abc-1")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if !sawSHA {
		t.Error("expected update pushes to carry the current file sha")
	}
	if result.RepoRef != "https://github.com/craftsite/site-abc-1" {
		t.Errorf("unexpected repo ref: %q", result.RepoRef)
	}
}

func TestGitPublishRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRateLimit(w, 0)
	}))
	defer server.Close()

	publisher := newTestGitPublisher(server)
	_, err := publisher.Publish(context.Background(), "owner-123", "template-1", "<html></html>", "")
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if utils.KindOf(err) != utils.ErrRateLimit {
		t.Fatalf("expected rate limit kind, got %v", utils.KindOf(err))
	}
	if !strings.Contains(err.Error(), "resets at") {
		t.Errorf("expected reset time in message, got %q", err.Error())
	}
}

func TestGitTeardownToleratesMissingRepository(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rate_limit" {
			writeRateLimit(w, 100)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	publisher := newTestGitPublisher(server)
	if err := publisher.Teardown(context.Background(), "https://github.com/craftsite/site-abc-1"); err != nil {
		t.Fatalf("expected missing repository to be tolerated, got %v", err)
	}
}

func TestParseRepoRef(t *testing.T) {
	owner, repo, err := parseRepoRef("https://github.com/craftsite/site-abc-1.git")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if owner != "craftsite" || repo != "site-abc-1" {
		t.Fatalf("unexpected parse result: %s/%s", owner, repo)
	}

	if _, _, err := parseRepoRef("https://github.com/"); err == nil {
		t.Fatal("expected error for ref without owner and repo")
	}
}
