package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/pipeline"
)

// ErrMultipleRecords is returned by single-row lookups matching more than one
// row. GORM itself has no such error.
var ErrMultipleRecords = errors.New("multiple records found")

// DefaultRedirects translates storage errors into domain kinds. They apply
// to every operation after its own and the repository-wide redirects.
func DefaultRedirects() []pipeline.Redirect {
	return []pipeline.Redirect{
		pipeline.RedirectOn(gorm.ErrRecordNotFound, shared.ErrNotFound),
		pipeline.RedirectOn(ErrMultipleRecords, shared.ErrMultipleResults),
	}
}

// lookupMissed reports whether err means a single-row lookup found nothing
// usable, which optional lookups turn into a nil result.
func lookupMissed(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrMultipleRecords)
}
