// Package sqlite provides SQLite implementations of the repository interfaces
// for single-node deployments. Timestamps are stored as unix microseconds and
// feed windows as JSON arrays.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"feedhub/internal/observability/metrics"
)

// maxParams bounds the number of bound parameters in one IN list.
const maxParams = 500

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func toArgs[T any](items []T) []interface{} {
	args := make([]interface{}, len(items))
	for i, v := range items {
		args[i] = v
	}
	return args
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

func scanIDs(rows *sql.Rows, op string, into []int64) ([]int64, error) {
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		into = append(into, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows.Err: %w", op, err)
	}
	return into, nil
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}
