/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the nwserver score-library API. The editor uses it
// read-only: listing shared score projects and pulling their latest search
// index snapshot for offline merging.
type Client struct {
	BaseURL string
	Token   string // bearer token, see FetchToken
	client  *http.Client
}

// NewClient normalizes baseURL (trailing slashes stripped) and returns a
// client. Pass an empty token and call FetchToken to obtain one.
func NewClient(baseURL string, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("nwserver %s %s: %s", method, u.Path, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// FetchToken requests a bearer token for subject and stores it on the client.
// ttl is clamped server-side; zero means the server default.
func (c *Client) FetchToken(ctx context.Context, subject string, ttl time.Duration) error {
	req := map[string]any{"subject": subject}
	if ttl > 0 {
		req["ttl_seconds"] = int64(ttl / time.Second)
	}
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", req, &resp); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// ScoreProject is the listing projection of one shared score project.
type ScoreProject struct {
	ID        int64     `json:"id"`
	StableID  string    `json:"stable_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListProjects returns the shared score projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]ScoreProject, error) {
	var list []ScoreProject
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// IndexSnapshot is the server's latest published search-index state for one
// project. Snapshot holds the decoded JSON document (score titles, line and
// lyric rows) as stored in index_snapshots.
type IndexSnapshot struct {
	ProjectID int64  `json:"project_id"`
	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
	Snapshot  any    `json:"snapshot"`
}

// GetIndexSnapshot fetches the newest index snapshot for a project.
func (c *Client) GetIndexSnapshot(ctx context.Context, projectID int64) (*IndexSnapshot, error) {
	var snap IndexSnapshot
	path := fmt.Sprintf("/api/projects/%d/index", projectID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
