// Package service implements the recipebox use cases on top of the store.
//
// Every method that touches user-owned data takes the caller's
// domain.Principal as an explicit argument and reaches the store only
// through store.Owned, so nothing outside the principal's collection can be
// read or changed from here.
package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

// Client-facing messages shared by several services.
const (
	msgNotFound        = "Not found."
	msgNotProvided     = "Authentication credentials were not provided."
	msgInvalidPK       = `Invalid pk "%d" - object does not exist.`
	msgInvalidInteger  = "A valid integer is required."
	msgInternalFailure = "A server error occurred."
)

// owned scopes s to p, rejecting anonymous callers.
func owned(s store.Store, p domain.Principal) (*store.OwnedStore, error) {
	if p.Anonymous() {
		return nil, domainerrors.Unauthorized(msgNotProvided)
	}
	o, err := store.Owned(s, p)
	if err != nil {
		return nil, domainerrors.Unauthorized(msgNotProvided).WithCause(err)
	}
	return o, nil
}

// translate turns store failures into domain errors. Anything unrecognised
// becomes an internal error that keeps err as its cause for logging.
func translate(err error) error {
	var derr *domainerrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &derr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(msgNotFound).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Conflict("Resource already exists.").WithCause(err)
	case errors.Is(err, store.ErrInvalidReference), errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation("Invalid input.").WithCause(err)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, msgInternalFailure)
}

// ParseIDList parses id filters given as comma-separated lists, repeated
// values, or both: ["1,2", "3"] yields [1 2 3]. Empty values are ignored.
// Any other token that is not an integer fails with a field error on field.
func ParseIDList(field string, values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		for _, tok := range strings.Split(v, ",") {
			n, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
			if err != nil {
				return nil, domainerrors.FieldError(field, msgInvalidInteger)
			}
			ids = append(ids, n)
		}
	}
	return ids, nil
}

// missingLinks records one message per unresolved id under field.
func missingLinks(fields *domainerrors.FieldErrors, field string, missing []int64) {
	for _, id := range missing {
		fields.Add(field, fmt.Sprintf(msgInvalidPK, id))
	}
}

// trimmed returns a copy of *s with surrounding space removed, or nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
