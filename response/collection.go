package response

import (
	"net/http"
	"strconv"
)

const (
	DefaultPaginationOffset = 0
	DefaultPaginationLimit  = 50
)

// PostResponse is the body of mutating endpoints.
type PostResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewPostResponse(success bool, message string, data any) PostResponse {
	return PostResponse{
		Success: success,
		Message: message,
		Data:    data,
	}
}

// CollectionResponse is the envelope of listing endpoints.
type CollectionResponse[T any] struct {
	Items      []T         `json:"items"`
	Total      int         `json:"total"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func NewCollectionResponse[T any](items []T, pagination *Pagination) CollectionResponse[T] {
	return CollectionResponse[T]{
		Items:      items,
		Total:      len(items),
		Pagination: pagination,
	}
}

type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// NewPaginationFromRequest reads offset/limit query parameters, silently
// falling back to the defaults on missing or invalid values.
func NewPaginationFromRequest(r *http.Request) Pagination {
	offset := DefaultPaginationOffset
	limit := DefaultPaginationLimit

	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		if val, err := strconv.Atoi(offsetParam); err == nil && val >= 0 {
			offset = val
		}
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if val, err := strconv.Atoi(limitParam); err == nil && val > 0 {
			limit = val
		}
	}

	return Pagination{Offset: offset, Limit: limit}
}
