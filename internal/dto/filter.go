package dto

import "strings"

// Значения фильтра по умолчанию и допустимые границы.
const (
	DefaultPage      = 1
	DefaultSize      = 10
	MaxSize          = 100
	DefaultSortBy    = "id"
	DefaultDirection = "asc"
)

// Filter — параметры выборки списка Funko.
type Filter struct {
	// Nombre — подстрока названия
	Nombre *string
	// Categoria — подстрока имени категории
	Categoria *string
	// MaxPrecio — максимальная цена включительно
	MaxPrecio *float64
	Page      int
	Size      int
	// SortBy — id, nombre, precio, createdat, categoria
	SortBy string
	// Direction — asc или desc
	Direction string
}

// NewFilter возвращает фильтр со значениями по умолчанию.
func NewFilter() Filter {
	return Filter{
		Page:      DefaultPage,
		Size:      DefaultSize,
		SortBy:    DefaultSortBy,
		Direction: DefaultDirection,
	}
}

// Normalize приводит фильтр к допустимым значениям: page >= 1,
// 1 <= size <= MaxSize, ключ сортировки и направление в нижнем регистре.
// Вызывается слоем представления до передачи фильтра в сервис.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Size < 1 {
		f.Size = DefaultSize
	}
	if f.Size > MaxSize {
		f.Size = MaxSize
	}
	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if f.SortBy == "" {
		f.SortBy = DefaultSortBy
	}
	f.Direction = strings.ToLower(strings.TrimSpace(f.Direction))
	if f.Direction != "desc" {
		f.Direction = DefaultDirection
	}
	if f.Nombre != nil && strings.TrimSpace(*f.Nombre) == "" {
		f.Nombre = nil
	}
	if f.Categoria != nil && strings.TrimSpace(*f.Categoria) == "" {
		f.Categoria = nil
	}
	return f
}

// Desc сообщает, что сортировка по убыванию (без учёта регистра).
func (f Filter) Desc() bool {
	return strings.EqualFold(f.Direction, "desc")
}
