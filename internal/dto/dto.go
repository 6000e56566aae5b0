// Пакет dto — структуры запросов и ответов каталога, фильтр списка
// и постраничный конверт. Проверка запросов — ozzo-validation.
package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Сообщения проверки, показываемые пользователю.
const (
	msgNombreRequired    = "El nombre es obligatorio"
	msgNombreLength      = "El nombre debe tener entre 2 y 100 caracteres"
	msgCategoriaRequired = "La categoría es obligatoria"
	msgCategoriaLength   = "La categoría debe tener entre 2 y 100 caracteres"
	msgPrecioRange       = "El precio debe estar entre 0.01 y 9999.99"
)

// Границы цены.
const (
	MinPrecio = 0.01
	MaxPrecio = 9999.99
)

// CategoryRequest — тело запроса создания и обновления категории.
type CategoryRequest struct {
	Nombre string `json:"nombre"`
}

// Normalize возвращает копию запроса с обрезанными пробелами.
func (r CategoryRequest) Normalize() CategoryRequest {
	r.Nombre = strings.TrimSpace(r.Nombre)
	return r
}

// Validate проверяет поля запроса после Normalize: длина считается
// по тому значению, которое будет сохранено.
func (r CategoryRequest) Validate() error {
	r = r.Normalize()
	return validation.ValidateStruct(&r,
		validation.Field(&r.Nombre,
			validation.Required.Error(msgNombreRequired),
			validation.RuneLength(2, 100).Error(msgNombreLength),
		),
	)
}

// FunkoRequest — тело запроса создания и полной замены Funko.
type FunkoRequest struct {
	Nombre    string  `json:"nombre"`
	Categoria string  `json:"categoria"`
	Precio    float64 `json:"precio"`
	Imagen    *string `json:"imagen,omitempty"`
}

// Normalize возвращает копию запроса с обрезанными пробелами.
func (r FunkoRequest) Normalize() FunkoRequest {
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Categoria = strings.TrimSpace(r.Categoria)
	r.Imagen = trimmedPtr(r.Imagen)
	return r
}

// Validate проверяет поля запроса после Normalize.
func (r FunkoRequest) Validate() error {
	r = r.Normalize()
	return validation.ValidateStruct(&r,
		validation.Field(&r.Nombre,
			validation.Required.Error(msgNombreRequired),
			validation.RuneLength(2, 100).Error(msgNombreLength),
		),
		validation.Field(&r.Categoria,
			validation.Required.Error(msgCategoriaRequired),
			validation.RuneLength(2, 100).Error(msgCategoriaLength),
		),
		validation.Field(&r.Precio, priceRules()...),
	)
}

// FunkoPatchRequest — частичное обновление Funko. Отсутствующие (nil)
// поля не меняются, присутствующие проверяются по тем же правилам.
type FunkoPatchRequest struct {
	Nombre    *string  `json:"nombre,omitempty"`
	Categoria *string  `json:"categoria,omitempty"`
	Precio    *float64 `json:"precio,omitempty"`
	Imagen    *string  `json:"imagen,omitempty"`
}

// Normalize возвращает копию запроса с обрезанными пробелами
// в присутствующих полях.
func (r FunkoPatchRequest) Normalize() FunkoPatchRequest {
	r.Nombre = trimmedPtr(r.Nombre)
	r.Categoria = trimmedPtr(r.Categoria)
	r.Imagen = trimmedPtr(r.Imagen)
	return r
}

// Validate проверяет присутствующие поля запроса после Normalize.
func (r FunkoPatchRequest) Validate() error {
	r = r.Normalize()
	return validation.ValidateStruct(&r,
		validation.Field(&r.Nombre, validation.When(r.Nombre != nil,
			validation.Required.Error(msgNombreLength),
			validation.RuneLength(2, 100).Error(msgNombreLength),
		)),
		validation.Field(&r.Categoria, validation.When(r.Categoria != nil,
			validation.Required.Error(msgCategoriaLength),
			validation.RuneLength(2, 100).Error(msgCategoriaLength),
		)),
		validation.Field(&r.Precio, validation.When(r.Precio != nil, priceRules()...)),
	)
}

// IsEmpty сообщает, что запрос не содержит ни одного поля.
func (r FunkoPatchRequest) IsEmpty() bool {
	return r.Nombre == nil && r.Categoria == nil && r.Precio == nil && r.Imagen == nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// priceRules — цена обязательна (0 не допускается) и лежит в [0.01, 9999.99].
func priceRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(msgPrecioRange),
		validation.Min(MinPrecio).Error(msgPrecioRange),
		validation.Max(MaxPrecio).Error(msgPrecioRange),
	}
}

// CategoryResponse — категория в ответе.
type CategoryResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

// FunkoResponse — Funko в ответе; категория представлена именем.
type FunkoResponse struct {
	ID        int64   `json:"id"`
	Nombre    string  `json:"nombre"`
	Categoria string  `json:"categoria"`
	Precio    float64 `json:"precio"`
	Imagen    string  `json:"imagen"`
}

// CatalogSnapshot — выгрузка каталога целиком.
type CatalogSnapshot struct {
	Categories []CategoryResponse `json:"categories"`
	Funkos     []FunkoResponse    `json:"funkos"`
}
