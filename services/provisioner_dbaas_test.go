package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/craftsite-simple/utils"
)

func newTestDBaaSProvisioner(server *httptest.Server) *DBaaSProvisioner {
	return &DBaaSProvisioner{
		baseURL:      server.URL,
		apiKey:       "test-key",
		httpClient:   server.Client(),
		pollInterval: time.Millisecond,
		maxPolls:     5,
	}
}

func TestDBaaSProvisionWaitsForReady(t *testing.T) {
	var polls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/databases":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(dbaasDatabase{Name: "ecom-abc-def", State: "creating"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/databases/ecom-abc-def":
			polls++
			db := dbaasDatabase{Name: "ecom-abc-def", State: "creating"}
			if polls >= 2 {
				db.State = "ready"
				db.ConnectionString = "postgres://tenant:pw@host:5432/ecom-abc-def"
			}
			json.NewEncoder(w).Encode(db)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provisioner := newTestDBaaSProvisioner(server)
	ref, err := provisioner.Provision(context.Background(), "ecom-abc-def")
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if ref != "postgres://tenant:pw@host:5432/ecom-abc-def" {
		t.Fatalf("unexpected connection ref: %q", ref)
	}
	if polls < 2 {
		t.Fatalf("expected at least 2 polls, got %d", polls)
	}
}

func TestDBaaSProvisionConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	provisioner := newTestDBaaSProvisioner(server)
	_, err := provisioner.Provision(context.Background(), "ecom-abc-def")
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if utils.KindOf(err) != utils.ErrConflict {
		t.Fatalf("expected conflict kind, got %v", utils.KindOf(err))
	}
}

func TestDBaaSProvisionTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		default:
		}
		json.NewEncoder(w).Encode(dbaasDatabase{Name: "ecom-abc-def", State: "creating"})
	}))
	defer server.Close()

	provisioner := newTestDBaaSProvisioner(server)
	provisioner.maxPolls = 2

	_, err := provisioner.Provision(context.Background(), "ecom-abc-def")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if utils.KindOf(err) != utils.ErrTimeout {
		t.Fatalf("expected timeout kind, got %v", utils.KindOf(err))
	}
}

func TestDBaaSProvisionRequiresAPIKey(t *testing.T) {
	provisioner := &DBaaSProvisioner{httpClient: http.DefaultClient}
	_, err := provisioner.Provision(context.Background(), "ecom-abc-def")
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if utils.KindOf(err) != utils.ErrConfiguration {
		t.Fatalf("expected configuration kind, got %v", utils.KindOf(err))
	}
}

func TestDBaaSTeardownToleratesMissingDatabase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provisioner := newTestDBaaSProvisioner(server)
	if err := provisioner.Teardown(context.Background(), "ecom-abc-def"); err != nil {
		t.Fatalf("expected missing database to be tolerated, got %v", err)
	}
}
