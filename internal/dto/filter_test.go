package dto

import "testing"

func TestNewFilter(t *testing.T) {
	f := NewFilter()
	if f.Page != 1 || f.Size != 10 || f.SortBy != "id" || f.Direction != "asc" {
		t.Errorf("NewFilter() = %+v", f)
	}
	if f.Nombre != nil || f.Categoria != nil || f.MaxPrecio != nil {
		t.Errorf("NewFilter() содержит фильтры: %+v", f)
	}
}

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Filter
		want Filter
	}{
		{
			name: "нулевые значения",
			in:   Filter{},
			want: Filter{Page: 1, Size: 10, SortBy: "id", Direction: "asc"},
		},
		{
			name: "отрицательные страница и размер",
			in:   Filter{Page: -3, Size: -1, SortBy: "precio", Direction: "DESC"},
			want: Filter{Page: 1, Size: 10, SortBy: "precio", Direction: "desc"},
		},
		{
			name: "слишком большой размер",
			in:   Filter{Page: 2, Size: 1000, SortBy: " Nombre ", Direction: "sideways"},
			want: Filter{Page: 2, Size: 100, SortBy: "nombre", Direction: "asc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.Page != tt.want.Page || got.Size != tt.want.Size ||
				got.SortBy != tt.want.SortBy || got.Direction != tt.want.Direction {
				t.Errorf("Normalize() = %+v, хотели %+v", got, tt.want)
			}
		})
	}
}

func TestFilter_NormalizeDropsBlankText(t *testing.T) {
	blank := "  "
	name := "pika"
	f := Filter{Nombre: &name, Categoria: &blank}.Normalize()
	if f.Nombre == nil || *f.Nombre != "pika" {
		t.Errorf("Nombre = %v, хотели pika", f.Nombre)
	}
	if f.Categoria != nil {
		t.Errorf("Categoria = %q, хотели nil", *f.Categoria)
	}
}

func TestFilter_Desc(t *testing.T) {
	for dir, want := range map[string]bool{"desc": true, "DESC": true, "asc": false, "": false} {
		if got := (Filter{Direction: dir}).Desc(); got != want {
			t.Errorf("Desc(%q) = %v, хотели %v", dir, got, want)
		}
	}
}
