package dto

import "encoding/json"

// Page — страница результатов с производными полями навигации.
type Page[T any] struct {
	Items      []T
	TotalCount int
	Page       int
	Size       int
}

// TotalPages — ceil(TotalCount/Size) при Size > 0, иначе 0.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.TotalCount + p.Size - 1) / p.Size
}

// HasNextPage — текущая страница не последняя.
func (p Page[T]) HasNextPage() bool {
	return p.Page < p.TotalPages()
}

// HasPreviousPage — текущая страница не первая.
func (p Page[T]) HasPreviousPage() bool {
	return p.Page > 1
}

// MarshalJSON добавляет производные поля в JSON.
func (p Page[T]) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(struct {
		Items           []T  `json:"items"`
		TotalCount      int  `json:"totalCount"`
		Page            int  `json:"page"`
		Size            int  `json:"size"`
		TotalPages      int  `json:"totalPages"`
		HasNextPage     bool `json:"hasNextPage"`
		HasPreviousPage bool `json:"hasPreviousPage"`
	}{
		Items:           items,
		TotalCount:      p.TotalCount,
		Page:            p.Page,
		Size:            p.Size,
		TotalPages:      p.TotalPages(),
		HasNextPage:     p.HasNextPage(),
		HasPreviousPage: p.HasPreviousPage(),
	})
}
