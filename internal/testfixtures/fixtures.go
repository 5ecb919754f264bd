// Package testfixtures provides in-memory repositories and sinks with the
// same semantics as the pgx implementations, for service and adapter tests.
package testfixtures

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Epoch is the default "now" of fixture clocks: Monday 2 March 2026, 09:00 UTC.
var Epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newID() string { return uuid.NewString() }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// paginate applies the repositories' page defaults (page 1, 20 per page).
func paginate[T any](items []T, page, size int) ([]T, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	total := len(items)
	from := (page - 1) * size
	if from >= total {
		return nil, total
	}
	return items[from:min(from+size, total)], total
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
