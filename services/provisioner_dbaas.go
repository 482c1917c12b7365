package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/utils"
)

const (
	dbaasPollInterval = 3 * time.Second
	dbaasMaxPolls     = 20
)

// DBaaSProvisioner provisions tenant databases through a hosted
// database-as-a-service HTTP API.
type DBaaSProvisioner struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	pollInterval time.Duration
	maxPolls     int
}

// NewDBaaSProvisioner creates a provisioner against the configured DBaaS API.
func NewDBaaSProvisioner() *DBaaSProvisioner {
	return &DBaaSProvisioner{
		baseURL:      config.GetEnv("DBAAS_API_URL", "https://api.dbaas.example.com"),
		apiKey:       os.Getenv("DBAAS_API_KEY"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: dbaasPollInterval,
		maxPolls:     dbaasMaxPolls,
	}
}

type dbaasCreateRequest struct {
	Name string `json:"name"`
}

type dbaasDatabase struct {
	Name             string `json:"name"`
	State            string `json:"state"`
	ConnectionString string `json:"connectionString"`
}

type dbaasErrorResponse struct {
	Message string `json:"message"`
}

// Provision creates the tenant database and waits for it to leave the
// transient "creating" state.
func (p *DBaaSProvisioner) Provision(ctx context.Context, tenantKey string) (string, error) {
	if p.apiKey == "" {
		return "", utils.NewError(utils.ErrConfiguration, "DBAAS_API_KEY is not set in environment variables")
	}

	log.Printf("Creating tenant database: %s", tenantKey)

	body, _ := json.Marshal(dbaasCreateRequest{Name: tenantKey})
	resp, err := p.doRequest(ctx, http.MethodPost, "/v1/databases", bytes.NewReader(body))
	if err != nil {
		return "", utils.WrapError(utils.ErrProvisioning, "failed to reach provisioning service", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusAccepted:
		// continue below
	case http.StatusConflict:
		return "", utils.NewError(utils.ErrConflict, fmt.Sprintf("database %s already exists", tenantKey))
	default:
		return "", utils.NewError(utils.ErrProvisioning, fmt.Sprintf("provisioning service rejected create: %s", readUpstreamMessage(resp.Body)))
	}

	var created dbaasDatabase
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", utils.WrapError(utils.ErrProvisioning, "invalid provisioning response", err)
	}

	// Poll at a fixed interval until the database is ready. The number of
	// polls is bounded; past it the request fails rather than hangs.
	for attempt := 0; created.State == "creating"; attempt++ {
		if attempt >= p.maxPolls {
			return "", utils.NewError(utils.ErrTimeout, fmt.Sprintf("database %s still creating after %d polls", tenantKey, p.maxPolls))
		}
		select {
		case <-ctx.Done():
			return "", utils.WrapError(utils.ErrTimeout, "provisioning cancelled", ctx.Err())
		case <-time.After(p.pollInterval):
		}

		fresh, err := p.getDatabase(ctx, tenantKey)
		if err != nil {
			return "", err
		}
		created = *fresh
	}

	if created.ConnectionString == "" {
		return "", utils.NewError(utils.ErrProvisioning, fmt.Sprintf("database %s became ready without a connection string", tenantKey))
	}

	log.Printf("✅ Tenant database ready: %s", tenantKey)
	return created.ConnectionString, nil
}

// Teardown drops the tenant database. Not-found means it is already gone.
func (p *DBaaSProvisioner) Teardown(ctx context.Context, tenantKey string) error {
	if p.apiKey == "" {
		return utils.NewError(utils.ErrConfiguration, "DBAAS_API_KEY is not set in environment variables")
	}

	log.Printf("Deleting tenant database: %s", tenantKey)

	resp, err := p.doRequest(ctx, http.MethodDelete, "/v1/databases/"+tenantKey, nil)
	if err != nil {
		return utils.WrapError(utils.ErrProvisioning, "failed to reach provisioning service", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		log.Printf("Tenant database %s already removed", tenantKey)
		return nil
	default:
		return utils.NewError(utils.ErrProvisioning, fmt.Sprintf("provisioning service rejected delete: %s", readUpstreamMessage(resp.Body)))
	}
}

func (p *DBaaSProvisioner) getDatabase(ctx context.Context, tenantKey string) (*dbaasDatabase, error) {
	resp, err := p.doRequest(ctx, http.MethodGet, "/v1/databases/"+tenantKey, nil)
	if err != nil {
		return nil, utils.WrapError(utils.ErrProvisioning, "failed to reach provisioning service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewError(utils.ErrProvisioning, fmt.Sprintf("provisioning service rejected status read: %s", readUpstreamMessage(resp.Body)))
	}

	var db dbaasDatabase
	if err := json.NewDecoder(resp.Body).Decode(&db); err != nil {
		return nil, utils.WrapError(utils.ErrProvisioning, "invalid provisioning response", err)
	}
	return &db, nil
}

func (p *DBaaSProvisioner) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return p.httpClient.Do(req)
}

// readUpstreamMessage extracts a short human-readable summary from an error
// response without leaking the raw payload.
func readUpstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no detail provided"
	}
	var upstream dbaasErrorResponse
	if json.Unmarshal(raw, &upstream) == nil && upstream.Message != "" {
		return upstream.Message
	}
	return "upstream error"
}
