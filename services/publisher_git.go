package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/utils"
)

// pagesWorkflow is pushed alongside the site document so the hosting
// provider rebuilds the public site on every push to main.
const pagesWorkflow = `name: Deploy to Pages

on:
  push:
    branches: [ main ]

permissions:
  contents: read
  pages: write
  id-token: write

jobs:
  build-and-deploy:
    runs-on: ubuntu-latest
    environment:
      name: github-pages
      url: ${{ steps.deployment.outputs.page_url }}
    steps:
    - uses: actions/checkout@v4
    - name: Setup Pages
      uses: actions/configure-pages@v5
    - name: Upload artifact
      uses: actions/upload-pages-artifact@v3
      with:
        path: .
    - name: Deploy to Pages
      id: deployment
      uses: actions/deploy-pages@v4
`

// GitPublisher publishes site content as a repository on a git hosting
// provider and serves it through the provider's static pages product.
type GitPublisher struct {
	apiURL      string
	token       string
	deployToken string
	username    string
	pagesDomain string
	httpClient  *http.Client
}

// NewGitPublisher creates a publisher against the configured git hosting API.
func NewGitPublisher() *GitPublisher {
	return &GitPublisher{
		apiURL:      config.GetEnv("GIT_API_URL", "https://api.github.com"),
		token:       os.Getenv("GIT_TOKEN"),
		deployToken: os.Getenv("DEPLOY_TOKEN"),
		username:    os.Getenv("GIT_USERNAME"),
		pagesDomain: config.GetEnv("GIT_PAGES_DOMAIN", "github.io"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type gitRepoResponse struct {
	HTMLURL string `json:"html_url"`
}

type gitContentResponse struct {
	SHA string `json:"sha"`
}

type gitRateLimitResponse struct {
	Resources struct {
		Core struct {
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}

// Publish pushes the site document and pages workflow. With an empty
// existingTarget a fresh repository is created and public serving enabled;
// otherwise the named repository is updated in place.
func (p *GitPublisher) Publish(ctx context.Context, ownerID, templateID, content, existingTarget string) (*PublishResult, error) {
	if p.token == "" {
		return nil, utils.NewError(utils.ErrConfiguration, "GIT_TOKEN is not set in environment variables")
	}

	if err := p.checkRateLimit(ctx); err != nil {
		return nil, err
	}

	var owner, repo, repoRef string
	isNew := existingTarget == ""

	if isNew {
		owner = p.username
		repo = utils.GeneratePublishTargetName(ownerID)
		log.Printf("Creating site repository: %s", repo)

		created, err := p.createRepo(ctx, repo)
		if err != nil {
			return nil, err
		}
		repoRef = created.HTMLURL
		if repoRef == "" {
			repoRef = fmt.Sprintf("https://github.com/%s/%s", owner, repo)
		}
	} else {
		var err error
		owner, repo, err = parseRepoRef(existingTarget)
		if err != nil {
			return nil, err
		}
		repoRef = existingTarget
		log.Printf("Updating site repository: %s/%s", owner, repo)
	}

	// Updating a file requires its current revision marker; a missing file
	// means this is the first push of that path.
	sha, err := p.getFileSHA(ctx, owner, repo, "index.html")
	if err != nil {
		return nil, err
	}
	message := "Initial site commit"
	if sha != "" {
		message = "Update site content"
	}
	if err := p.putFile(ctx, owner, repo, "index.html", message, content, sha); err != nil {
		return nil, err
	}

	workflowSHA, err := p.getFileSHA(ctx, owner, repo, ".github/workflows/pages.yml")
	if err != nil {
		return nil, err
	}
	workflowMessage := "Add pages workflow"
	if workflowSHA != "" {
		workflowMessage = "Update pages workflow"
	}
	if err := p.putFile(ctx, owner, repo, ".github/workflows/pages.yml", workflowMessage, pagesWorkflow, workflowSHA); err != nil {
		return nil, err
	}

	if isNew {
		if err := p.enablePages(ctx, owner, repo); err != nil {
			return nil, err
		}
	}

	publicURL := fmt.Sprintf("https://%s.%s/%s/", strings.ToLower(owner), p.pagesDomain, repo)
	log.Printf("✅ Site published: %s", publicURL)

	return &PublishResult{RepoRef: repoRef, PublicURL: publicURL}, nil
}

// Teardown deletes the site repository. Not-found means it is already gone.
func (p *GitPublisher) Teardown(ctx context.Context, repoRef string) error {
	if p.token == "" {
		return utils.NewError(utils.ErrConfiguration, "GIT_TOKEN is not set in environment variables")
	}

	if err := p.checkRateLimit(ctx); err != nil {
		return err
	}

	owner, repo, err := parseRepoRef(repoRef)
	if err != nil {
		return err
	}

	log.Printf("Deleting site repository: %s/%s", owner, repo)

	resp, err := p.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/repos/%s/%s", owner, repo), nil)
	if err != nil {
		return utils.WrapError(utils.ErrPublish, "failed to reach hosting service", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		log.Printf("Site repository %s/%s already removed", owner, repo)
		return nil
	default:
		return utils.NewError(utils.ErrPublish, fmt.Sprintf("hosting service rejected delete (status %d)", resp.StatusCode))
	}
}

func (p *GitPublisher) checkRateLimit(ctx context.Context) error {
	resp, err := p.doRequest(ctx, http.MethodGet, "/rate_limit", nil)
	if err != nil {
		return utils.WrapError(utils.ErrPublish, "failed to reach hosting service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return utils.NewError(utils.ErrPublish, fmt.Sprintf("hosting service rejected rate-limit check (status %d)", resp.StatusCode))
	}

	var limit gitRateLimitResponse
	if err := json.NewDecoder(resp.Body).Decode(&limit); err != nil {
		return utils.WrapError(utils.ErrPublish, "invalid rate-limit response", err)
	}

	if limit.Resources.Core.Remaining == 0 {
		reset := time.Unix(limit.Resources.Core.Reset, 0).UTC().Format(time.RFC3339)
		return utils.NewError(utils.ErrRateLimit, fmt.Sprintf("hosting API rate limit exceeded, resets at %s", reset))
	}
	return nil
}

func (p *GitPublisher) createRepo(ctx context.Context, name string) (*gitRepoResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"name":    name,
		"private": false,
	})
	resp, err := p.doRequest(ctx, http.MethodPost, "/user/repos", bytes.NewReader(body))
	if err != nil {
		return nil, utils.WrapError(utils.ErrPublish, "failed to reach hosting service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, utils.NewError(utils.ErrPublish, fmt.Sprintf("failed to create repository %s (status %d)", name, resp.StatusCode))
	}

	var repo gitRepoResponse
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return nil, utils.WrapError(utils.ErrPublish, "invalid repository response", err)
	}
	return &repo, nil
}

// getFileSHA returns the current revision marker for a file, or empty when
// the file does not exist yet.
func (p *GitPublisher) getFileSHA(ctx context.Context, owner, repo, path string) (string, error) {
	resp, err := p.doRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path), nil)
	if err != nil {
		return "", utils.WrapError(utils.ErrPublish, "failed to reach hosting service", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var content gitContentResponse
		if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
			return "", utils.WrapError(utils.ErrPublish, "invalid content response", err)
		}
		return content.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", utils.NewError(utils.ErrPublish, fmt.Sprintf("failed to fetch %s (status %d)", path, resp.StatusCode))
	}
}

func (p *GitPublisher) putFile(ctx context.Context, owner, repo, path, message, content, sha string) error {
	payload := map[string]interface{}{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, _ := json.Marshal(payload)

	resp, err := p.doRequest(ctx, http.MethodPut, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path), bytes.NewReader(body))
	if err != nil {
		return utils.WrapError(utils.ErrPublish, "failed to reach hosting service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return utils.NewError(utils.ErrPublish, fmt.Sprintf("failed to push %s (status %d)", path, resp.StatusCode))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// enablePages turns on public serving for a freshly created repository,
// authenticated with the deployment credential rather than the source one.
// A conflict means it is already enabled, which is fine.
func (p *GitPublisher) enablePages(ctx context.Context, owner, repo string) error {
	if p.deployToken == "" {
		return utils.NewError(utils.ErrConfiguration, "DEPLOY_TOKEN is not set in environment variables")
	}

	body, _ := json.Marshal(map[string]interface{}{
		"source": map[string]string{"branch": "main", "path": "/"},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/repos/%s/%s/pages", p.apiURL, owner, repo), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.deployToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return utils.WrapError(utils.ErrPublish, "failed to reach hosting service", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK, http.StatusConflict:
		return nil
	default:
		return utils.NewError(utils.ErrPublish, fmt.Sprintf("failed to enable public serving (status %d)", resp.StatusCode))
	}
}

func (p *GitPublisher) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return p.httpClient.Do(req)
}

// parseRepoRef extracts owner and repository name from a repo ref URL.
func parseRepoRef(repoRef string) (string, string, error) {
	parsed, err := url.Parse(repoRef)
	if err != nil {
		return "", "", utils.NewError(utils.ErrValidation, fmt.Sprintf("invalid repository reference: %s", repoRef))
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", utils.NewError(utils.ErrValidation, fmt.Sprintf("invalid repository reference: %s", repoRef))
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
