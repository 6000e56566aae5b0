// Пакет mapper — преобразования между сущностями каталога и DTO.
package mapper

import (
	"strings"

	"github.com/bigkaa/funkoworld/internal/domain/model"
	"github.com/bigkaa/funkoworld/internal/dto"
)

// ToCategoryResponse преобразует категорию в ответ.
func ToCategoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID, Nombre: c.Name}
}

// ToCategoryResponses преобразует список категорий.
func ToCategoryResponses(list []*model.Category) []dto.CategoryResponse {
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ToCategoryResponse(c))
	}
	return out
}

// ToCategory создаёт новую категорию из запроса.
func ToCategory(req dto.CategoryRequest) *model.Category {
	return &model.Category{Name: strings.TrimSpace(req.Nombre)}
}

// ToFunkoResponse преобразует Funko в ответ; категория — по имени.
func ToFunkoResponse(f *model.Funko) dto.FunkoResponse {
	image := f.Image
	if image == "" {
		image = model.DefaultImage
	}
	return dto.FunkoResponse{
		ID:        f.ID,
		Nombre:    f.Name,
		Categoria: f.CategoryName(),
		Precio:    f.Price,
		Imagen:    image,
	}
}

// ToFunkoResponses преобразует список Funko.
func ToFunkoResponses(list []*model.Funko) []dto.FunkoResponse {
	out := make([]dto.FunkoResponse, 0, len(list))
	for _, f := range list {
		out = append(out, ToFunkoResponse(f))
	}
	return out
}

// ToFunko создаёт Funko из запроса с уже найденной категорией.
// Без изображения в запросе ставится изображение по умолчанию.
func ToFunko(req dto.FunkoRequest, category *model.Category) *model.Funko {
	image := model.DefaultImage
	if req.Imagen != nil && strings.TrimSpace(*req.Imagen) != "" {
		image = strings.TrimSpace(*req.Imagen)
	}
	return &model.Funko{
		Name:       strings.TrimSpace(req.Nombre),
		Price:      req.Precio,
		Image:      image,
		CategoryID: category.ID,
		Category:   category,
	}
}

// ApplyPatch применяет к Funko только присутствующие поля запроса.
// category передаётся, если в запросе было поле categoria.
func ApplyPatch(f *model.Funko, req dto.FunkoPatchRequest, category *model.Category) {
	if req.Nombre != nil {
		f.Name = strings.TrimSpace(*req.Nombre)
	}
	if req.Precio != nil {
		f.Price = *req.Precio
	}
	if req.Imagen != nil && strings.TrimSpace(*req.Imagen) != "" {
		f.Image = strings.TrimSpace(*req.Imagen)
	}
	if category != nil {
		f.CategoryID = category.ID
		f.Category = category
	}
}
