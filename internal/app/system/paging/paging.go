// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// Defaults used when Configure is not called.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	mu           sync.RWMutex
	defaultLimit = DefaultLimit
	maxLimit     = MaxLimit
)

// Configure sets the default and maximum page sizes. Values < 1 are
// ignored. Call it during startup before handlers are registered.
func Configure(def, max int) {
	mu.Lock()
	defer mu.Unlock()
	if def > 0 {
		defaultLimit = def
	}
	if max > 0 {
		maxLimit = max
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	defaultLimit = DefaultLimit
	maxLimit = MaxLimit
}

// Limits returns the current default and maximum page sizes.
func Limits() (def, max int) {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLimit, maxLimit
}

// Parse reads the 1-based "page" and "limit" query parameters.
//
// A missing page is 1 and a missing limit is the default. A value that
// is not a whole number >= 1 is a validation error, and so is a page
// whose offset does not fit in an int64. Limits above the maximum are
// clamped.
func Parse(r *http.Request) (models.Page, error) {
	def, max := Limits()

	page, err := positive(query.Get(r, "page"), 1)
	if err != nil {
		return models.Page{}, apperr.Validation("page must be a whole number >= 1")
	}
	limit, err := positive(query.Get(r, "limit"), def)
	if err != nil {
		return models.Page{}, apperr.Validation("limit must be a whole number >= 1")
	}
	if limit > max {
		limit = max
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return models.Page{}, apperr.Validation("page is out of range")
	}
	return models.Page{Page: page, Limit: limit}, nil
}

func positive(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
