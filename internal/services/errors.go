package services

import (
	"errors"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/store"
)

// lookupErr converts a store lookup failure into the error taxonomy.
func lookupErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return apperr.Wrap(err, "failed to load "+what)
}

func writeErr(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict(what + " already exists")
	}
	return apperr.Wrap(err, "failed to save "+what)
}
