// Package store persists generated briefs and serves them back by slug.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/joelkehle/intelbrief/internal/research"
)

var (
	ErrNotFound   = errors.New("brief not found")
	ErrSlugExists = errors.New("slug already exists")
)

const (
	maxSlugAttempts = 3
	maxSlugBaseLen  = 48
)

// Store saves briefs under a fresh slug. A slug is written at most once.
type Store interface {
	Save(ctx context.Context, brief research.Brief) (string, error)
	GetBySlug(ctx context.Context, slug string, bypassCache bool) (research.Brief, error)
}

// NewSlug returns "<kebab-company>-<8 hex>", e.g. "muller-automation-1f0c9e2a".
func NewSlug(company string) string {
	return slugBase(company) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func slugBase(company string) string {
	base := strings.ReplaceAll(research.NormalizeName(company), " ", "-")
	if r := []rune(base); len(r) > maxSlugBaseLen {
		base = strings.TrimRight(string(r[:maxSlugBaseLen]), "-")
	}
	if base == "" {
		return "company"
	}
	return base
}
