package repository

import (
	"strings"
	"testing"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestBuildFunkoWhere(t *testing.T) {
	tests := []struct {
		name      string
		q         FunkoQuery
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "без фильтров",
			q:         FunkoQuery{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "пустая строка названия игнорируется",
			q:         FunkoQuery{Name: strPtr("")},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "только название",
			q:         FunkoQuery{Name: strPtr("pika")},
			wantWhere: `WHERE f.name ILIKE $1 ESCAPE '\'`,
			wantArgs:  []any{"%pika%"},
		},
		{
			name:      "категория и цена",
			q:         FunkoQuery{Category: strPtr("wow"), MaxPrice: floatPtr(20)},
			wantWhere: `WHERE c.name ILIKE $1 ESCAPE '\' AND f.price <= $2`,
			wantArgs:  []any{"%wow%", 20.0},
		},
		{
			name:      "все фильтры",
			q:         FunkoQuery{Name: strPtr("man"), Category: strPtr("MAR"), MaxPrice: floatPtr(15.5)},
			wantWhere: `WHERE f.name ILIKE $1 ESCAPE '\' AND c.name ILIKE $2 ESCAPE '\' AND f.price <= $3`,
			wantArgs:  []any{"%man%", "%MAR%", 15.5},
		},
		{
			name:      "спецсимволы LIKE экранируются",
			q:         FunkoQuery{Name: strPtr(`50%_off\`)},
			wantWhere: `WHERE f.name ILIKE $1 ESCAPE '\'`,
			wantArgs:  []any{`%50\%\_off\\%`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildFunkoWhere(tt.q)
			if where != tt.wantWhere {
				t.Errorf("where = %q, хотели %q", where, tt.wantWhere)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, хотели %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, хотели %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestFunkoOrderBy(t *testing.T) {
	tests := []struct {
		sortBy string
		desc   bool
		want   string
	}{
		{"", false, "f.id ASC"},
		{"id", true, "f.id DESC"},
		{"unknown", false, "f.id ASC"},
		{"nombre", false, "f.name ASC, f.id ASC"},
		{"NOMBRE", true, "f.name DESC, f.id ASC"},
		{"precio", true, "f.price DESC, f.id ASC"},
		{"createdat", false, "f.created_at ASC, f.id ASC"},
		{"categoria", true, "c.name DESC, f.id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			if got := funkoOrderBy(tt.sortBy, tt.desc); got != tt.want {
				t.Errorf("funkoOrderBy(%q, %v) = %q, хотели %q", tt.sortBy, tt.desc, got, tt.want)
			}
		})
	}
}

func TestFunkoOrderBy_NoUserInput(t *testing.T) {
	// Ключ сортировки не попадает в SQL как есть
	got := funkoOrderBy("f.id; DROP TABLE funkos", false)
	if strings.Contains(got, "DROP") {
		t.Errorf("funkoOrderBy пропустил пользовательский ввод: %q", got)
	}
}
