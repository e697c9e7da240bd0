/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Types can restrict to kinds like: title, line,
// lyrics, label. LineFrom/To are inclusive; both zero means unset.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text     string
	ScoreID  string
	Types    []string
	LineFrom int
	LineTo   int
	Limit    int
	Offset   int
}

// SearchResult represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text
// is used. LineNo is -1 for score-level rows such as titles.
type SearchResult struct {
	DocID   int64
	Type    string
	ScoreID string
	LineNo  int
	Snippet string
}

// Search performs full-text search with optional filters over the embedded
// index. When q.Text is empty, it falls back to a non-FTS scan over
// documents with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT d.doc_id, d.type, d.score_id, COALESCE(d.line_no,-1), snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.doc_id, d.type, d.score_id, COALESCE(d.line_no,-1), ''\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND d.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if s := strings.TrimSpace(q.ScoreID); s != "" {
		sb.WriteString(" AND d.score_id = ?\n")
		args = append(args, s)
	}
	if (q.LineFrom > 0 || q.LineTo > 0) && q.LineTo >= q.LineFrom {
		sb.WriteString(" AND d.line_no BETWEEN ? AND ?\n")
		args = append(args, q.LineFrom, q.LineTo)
	}
	if useFTS {
		sb.WriteString(" ORDER BY bm25(fts_documents), d.doc_id\n")
	} else {
		sb.WriteString(" ORDER BY d.doc_id\n")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		// snippet() over a contentless FTS table yields NULL.
		var snip sql.NullString
		if err := rows.Scan(&r.DocID, &r.Type, &r.ScoreID, &r.LineNo, &snip); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Snippet = snip.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
