package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/google/uuid"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePageParams reads page, size, sortBy and sortDir. Clamping to the
// catalog limits happens in the services.
func ParsePageParams(r *http.Request) (pagination.PageParams, error) {
	page, err := ParseQueryInt(r, "page", 0, 0, 1_000_000)
	if err != nil {
		return pagination.PageParams{}, err
	}
	size, err := ParseQueryInt(r, "size", 0, 0, 1_000)
	if err != nil {
		return pagination.PageParams{}, err
	}
	dir := strings.TrimSpace(r.URL.Query().Get("sortDir"))
	if dir != "" && !strings.EqualFold(dir, "asc") && !strings.EqualFold(dir, "desc") {
		return pagination.PageParams{}, pkgerrors.New(pkgerrors.CodeValidation, "sortDir must be asc or desc").WithDetails(map[string]any{"field": "sortDir"})
	}
	return pagination.PageParams{
		Page:      page,
		Size:      size,
		SortBy:    SanitizeString(r.URL.Query().Get("sortBy"), 64),
		Direction: dir,
	}, nil
}

// ParseCursorParams reads limit and cursor for keyset listings.
func ParseCursorParams(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// ParseUUID validates an identifier taken from the path or the query string.
func ParseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+field).WithDetails(map[string]string{field: "must be a valid uuid"})
	}
	return id, nil
}
