package pagination

import "strings"

// PageParams carries zero-based page pagination inputs with an optional sort.
type PageParams struct {
	Page      int
	Size      int
	SortBy    string
	Direction string
}

// Page is the response shape for page-based listings.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
}

// Normalize clamps page/size and lowercases the direction.
func (p PageParams) Normalize(defaultSize, maxSize int) PageParams {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	p.SortBy = strings.TrimSpace(p.SortBy)
	if strings.EqualFold(strings.TrimSpace(p.Direction), "desc") {
		p.Direction = "desc"
	} else {
		p.Direction = "asc"
	}
	return p
}

// Offset is the number of rows to skip.
func (p PageParams) Offset() int {
	return p.Page * p.Size
}

// NewPage assembles a Page from one slice of rows plus the total count.
func NewPage[T any](content []T, params PageParams, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if params.Size > 0 {
		pages = int((total + int64(params.Size) - 1) / int64(params.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          params.Page,
		Size:          params.Size,
		TotalElements: total,
		TotalPages:    pages,
		Last:          params.Page >= pages-1,
	}
}

// MapPage converts the content of a page while keeping its metadata.
func MapPage[T, U any](in Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(in.Content))
	for _, item := range in.Content {
		out = append(out, fn(item))
	}
	return Page[U]{
		Content:       out,
		Page:          in.Page,
		Size:          in.Size,
		TotalElements: in.TotalElements,
		TotalPages:    in.TotalPages,
		Last:          in.Last,
	}
}
