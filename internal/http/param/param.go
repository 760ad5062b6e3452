// Package param decodes request parameters shared by the API handlers.
package param

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ID parses the named chi URL parameter as a uuid.
func ID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}

	return id, nil
}

// Date reads an optional YYYY-MM-DD query value.
func Date(q url.Values, key string) (*time.Time, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}

	return &t, nil
}

// UUID reads an optional uuid query value.
func UUID(q url.Values, key string) (*uuid.UUID, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}

	return &id, nil
}

// Int reads an optional integer query value, returning def when it is missing.
func Int(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return n, nil
}

func Bool(q url.Values, key string) bool {
	b, _ := strconv.ParseBool(q.Get(key))
	return b
}

// OptionalID renders an absent id as JSON null.
func OptionalID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}

	return &id.UUID
}

// NullID is the inverse of OptionalID.
func NullID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}

	return uuid.NullUUID{UUID: *id, Valid: true}
}
