// Package github implements the source-tree provider against the GitHub
// REST API. The engine itself is agnostic to where manifest bytes come
// from; this client is one provider, local filesystem paths are another.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides read access to GitHub repository content.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a content client. token may be empty for public
// repositories, at the cost of a much lower rate limit.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.github.com",
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint
// (GitHub Enterprise, tests).
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// TreeItem is one entry of a repository file tree.
type TreeItem struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
}

// ListTree returns the full recursive file tree of a repository at ref.
// If ref is empty the repository's default branch is used.
func (c *Client) ListTree(ctx context.Context, owner, repo, ref string) ([]TreeItem, error) {
	if ref == "" {
		var err error
		if ref, err = c.defaultBranch(ctx, owner, repo); err != nil {
			return nil, err
		}
	}

	u := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.baseURL, owner, repo, url.PathEscape(ref))
	var tree struct {
		Tree      []TreeItem `json:"tree"`
		Truncated bool       `json:"truncated"`
	}
	if err := c.getJSON(ctx, u, &tree); err != nil {
		return nil, err
	}
	return tree.Tree, nil
}

// ReadFile returns the decoded contents of one file at ref.
func (c *Client) ReadFile(ctx context.Context, owner, repo, path, ref string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, escapePath(path))
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}

	var file struct {
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	if err := c.getJSON(ctx, u, &file); err != nil {
		return "", err
	}

	if file.Encoding != "base64" {
		return file.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(decoded), nil
}

func (c *Client) defaultBranch(ctx context.Context, owner, repo string) (string, error) {
	var info struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo), &info); err != nil {
		return "", err
	}
	return info.DefaultBranch, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
