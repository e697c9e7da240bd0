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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientTokenAndProjectList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/token":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			var req struct {
				Subject string `json:"subject"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Subject != "editor" {
				t.Errorf("subject = %q, want editor", req.Subject)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"token":      "tok-1",
				"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
			})
		case "/api/projects":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
				t.Errorf("auth header = %q", got)
			}
			writeJSON(w, http.StatusOK, []ScoreProject{
				{ID: 7, StableID: "b9c1", Name: "Folk Tunes", Version: 3},
			})
		case "/api/projects/7/index":
			writeJSON(w, http.StatusOK, map[string]any{
				"project_id": 7,
				"version":    3,
				"created_at": "2025-06-01T12:00:00Z",
				"snapshot":   map[string]any{"scores": []any{"s1"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL+"/", "")
	if err := c.FetchToken(ctx, "editor", time.Hour); err != nil {
		t.Fatalf("FetchToken: %v", err)
	}
	if c.Token != "tok-1" {
		t.Fatalf("token not stored: %q", c.Token)
	}

	list, err := c.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Folk Tunes" || list[0].ID != 7 {
		t.Fatalf("projects = %+v", list)
	}

	snap, err := c.GetIndexSnapshot(ctx, 7)
	if err != nil {
		t.Fatalf("GetIndexSnapshot: %v", err)
	}
	if snap.ProjectID != 7 || snap.Version != 3 || snap.Snapshot == nil {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale")
	if _, err := c.ListProjects(context.Background()); err == nil {
		t.Fatalf("expected error on 401")
	}
}
