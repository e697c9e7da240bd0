/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"notewright/internal/storage"
)

// SearchPG executes a search over the Postgres documents table using tsvector
// and filters and returns results mapped to storage.SearchResult to ease
// parity checks against the local SQLite index.
func SearchPG(ctx context.Context, db *sql.DB, projectID int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		b.WriteString("SELECT d.id AS doc_id, d.doc_type AS type, COALESCE(d.score_id,'') AS score_id, COALESCE(d.line_no,-1) AS line_no, ")
		b.WriteString("COALESCE(ts_headline('simple', COALESCE(d.raw_text,''), plainto_tsquery('simple', $1), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') AS snippet ")
		b.WriteString("FROM documents d WHERE d.project_id = $2 AND d.search_vector @@ plainto_tsquery('simple', $1) ")
		args = append(args, q.Text, projectID)
	} else {
		b.WriteString("SELECT d.id AS doc_id, d.doc_type AS type, COALESCE(d.score_id,'') AS score_id, COALESCE(d.line_no,-1) AS line_no, '' AS snippet ")
		b.WriteString("FROM documents d WHERE d.project_id = $1 ")
		args = append(args, projectID)
	}

	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// Types filter
	if len(q.Types) > 0 {
		b.WriteString(" AND d.doc_type = ANY (" + place(q.Types) + ") ")
	}
	// Score filter
	if s := strings.TrimSpace(q.ScoreID); s != "" {
		b.WriteString(" AND d.score_id = " + place(s) + " ")
	}
	// Line range; both zero means unset, matching the SQLite side.
	if (q.LineFrom > 0 || q.LineTo > 0) && q.LineTo >= q.LineFrom {
		b.WriteString(" AND d.line_no BETWEEN " + place(q.LineFrom) + " AND " + place(q.LineTo) + " ")
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY d.line_no NULLS LAST, d.id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.DocID, &r.Type, &r.ScoreID, &r.LineNo, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
