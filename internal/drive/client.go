// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package drive is a path-addressed client for a Microsoft Graph drive.
// It offers list/download/upload/move/exists plus idempotent recursive
// folder creation; every call acquires a fresh bearer token from the
// token source first.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/pdiddy/note-engine/pkg/types"
)

// graphBase is the Graph API root. Tests point clients at an httptest
// server instead.
var graphBase = "https://graph.microsoft.com/v1.0"

// Client talks to one drive on behalf of one account.
type Client struct {
	httpClient *http.Client
	tokens     oauth2.TokenSource
	baseURL    string
	userAgent  string
}

// NewClient returns a drive client that authenticates each request
// through tokens.
func NewClient(tokens oauth2.TokenSource, cfg types.DriveConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		baseURL:    graphBase,
		userAgent:  cfg.UserAgent,
	}
}

// apiPath maps a slash-delimited logical path onto the Graph drive
// addressing scheme. The empty path is the drive root; anything else
// becomes a colon-delimited path reference. Pure, no network.
func apiPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "/drive/root"
	}
	return "/drive/root:/" + p + ":"
}

// parentRefPath is the parentReference.path form used by Move. Unlike
// apiPath it carries no trailing colon.
func parentRefPath(folder string) string {
	folder = strings.TrimPrefix(folder, "/")
	if folder == "" {
		return "/drive/root"
	}
	return "/drive/root:/" + folder
}

// splitPath separates the parent folder from the final segment.
func splitPath(p string) (parent, name string) {
	p = strings.TrimPrefix(p, "/")
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

// listPage is one page of a children listing.
type listPage struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// ListFiles lists the folder's children, following continuation links
// until absent and concatenating pages in provider order. Any non-2xx
// page fetch fails the whole listing; no partial result is returned.
func (c *Client) ListFiles(ctx context.Context, folderPath string) ([]Item, error) {
	next := c.baseURL + apiPath(folderPath) + "/children"

	var items []Item
	for next != "" {
		resp, err := c.do(ctx, http.MethodGet, next, nil, "")
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, remoteErr("list", folderPath, resp)
		}

		var page listPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding listing of %q: %w", folderPath, err)
		}

		for _, raw := range page.Value {
			var it Item
			if err := json.Unmarshal(raw, &it); err != nil {
				return nil, fmt.Errorf("decoding listing entry: %w", err)
			}
			it.Raw = raw
			items = append(items, it)
		}

		next = page.NextLink
		if next != "" && !strings.HasPrefix(next, "http") {
			next = c.baseURL + next
		}
	}
	return items, nil
}

// Download fetches the full content of the file at filePath. A missing
// path is a *NotFoundError; any other non-2xx status is a *RemoteError.
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+apiPath(filePath)+"/content", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, &NotFoundError{Path: filePath}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, remoteErr("download", filePath, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading content of %q: %w", filePath, err)
	}
	return data, nil
}

// Upload writes content to filePath as a full-content PUT, creating
// missing ancestor folders first. Uploads overwrite by path.
func (c *Client) Upload(ctx context.Context, filePath string, content []byte, contentType string) error {
	parent, _ := splitPath(filePath)
	if parent != "" {
		if err := c.ensureFolder(ctx, parent); err != nil {
			return err
		}
	}

	resp, err := c.do(ctx, http.MethodPut, c.baseURL+apiPath(filePath)+"/content", bytes.NewReader(content), contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteErr("upload", filePath, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Move relocates the item at sourcePath to destPath in one atomic
// metadata PATCH, creating the destination's parent folder first.
func (c *Client) Move(ctx context.Context, sourcePath, destPath string) error {
	destParent, destName := splitPath(destPath)
	if destParent != "" {
		if err := c.ensureFolder(ctx, destParent); err != nil {
			return err
		}
	}

	payload := map[string]any{
		"parentReference": map[string]string{"path": parentRefPath(destParent)},
		"name":            destName,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling move payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPatch, c.baseURL+apiPath(sourcePath), bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteErr("move", sourcePath, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Exists probes the path's metadata. It is an existence probe, not an
// error channel: true only on an exact 200, and every other HTTP status
// (404 included) is (false, nil). Only transport-level failures return
// an error.
func (c *Client) Exists(ctx context.Context, p string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+apiPath(p), nil, "")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK, nil
}

// ensureFolder creates the folder and any missing ancestors, walking
// cumulative prefixes root to leaf. A 409 from the provider means the
// folder already exists and is treated as success, which keeps creation
// safe under duplicate invocation.
func (c *Client) ensureFolder(ctx context.Context, folderPath string) error {
	folderPath = strings.TrimPrefix(folderPath, "/")
	if folderPath == "" {
		return nil
	}

	if ok, err := c.Exists(ctx, folderPath); err != nil {
		return fmt.Errorf("probing folder %q: %w", folderPath, err)
	} else if ok {
		return nil
	}

	prefix := ""
	for _, seg := range strings.Split(folderPath, "/") {
		if seg == "" {
			continue
		}
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + "/" + seg
		}

		ok, err := c.Exists(ctx, prefix)
		if err != nil {
			return fmt.Errorf("probing folder %q: %w", prefix, err)
		}
		if ok {
			continue
		}
		if err := c.createFolder(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

// createFolder issues a single create-folder request for folderPath,
// whose parent must already exist.
func (c *Client) createFolder(ctx context.Context, folderPath string) error {
	parent, name := splitPath(folderPath)

	payload := map[string]any{
		"name":                              name,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "rename",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling folder payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+apiPath(parent)+"/children", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 means the folder already exists: success, not an error.
	if resp.StatusCode == http.StatusConflict {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteErr("create folder", folderPath, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// do builds and executes one authenticated request. Token acquisition
// happens before the call; an auth failure surfaces as *msauth.AuthError
// from the token source.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Response, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	tok.SetAuthHeader(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive request %s %s: %w", method, url, err)
	}
	return resp, nil
}

// remoteErr drains the response body into a *RemoteError.
func remoteErr(op, p string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return &RemoteError{
		Op:         op,
		Path:       p,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
