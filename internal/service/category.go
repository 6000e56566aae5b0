// category.go — сервис категорий каталога.
// Чтение по id кэшируется (ключ Category_<id>), изменения инвалидируют запись.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/funkoworld/internal/cache"
	"github.com/bigkaa/funkoworld/internal/dto"
	"github.com/bigkaa/funkoworld/internal/mapper"
	"github.com/bigkaa/funkoworld/internal/repository"
)

// CategoryService — сервис управления категориями.
type CategoryService struct {
	repo   repository.CategoryRepository
	cache  *readCache
	logger *slog.Logger
}

// NewCategoryService создаёт сервис категорий. store может быть nil —
// тогда чтение идёт напрямую из БД.
func NewCategoryService(
	repo repository.CategoryRepository,
	store cache.Store,
	ttl time.Duration,
	logger *slog.Logger,
) *CategoryService {
	logger = logger.With(slog.String("component", "category_service"))
	return &CategoryService{
		repo:   repo,
		cache:  newReadCache(store, ttl, logger),
		logger: logger,
	}
}

// GetByID возвращает категорию по id.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*dto.CategoryResponse, error) {
	key := categoryKeyPrefix + id
	if cached, ok := cachedGet[dto.CategoryResponse](ctx, s.cache, key); ok {
		s.logger.Debug("Категория из кэша", slog.String("id", id))
		return cached, nil
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение категории: %w", err)
	}
	if c == nil {
		return nil, notFound("No se encontró la categoría con id: %s.", id)
	}

	resp := mapper.ToCategoryResponse(c)
	s.cache.set(ctx, key, resp)
	return &resp, nil
}

// GetAll возвращает все категории; кэш не используется.
func (s *CategoryService) GetAll(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка категорий: %w", err)
	}
	return mapper.ToCategoryResponses(list), nil
}

// Create создаёт категорию. Имя уникально без учёта регистра.
func (s *CategoryService) Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	req = req.Normalize()
	if err := ValidationFailed(req.Validate()); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, req.Nombre)
	if err != nil {
		return nil, fmt.Errorf("проверка имени категории: %w", err)
	}
	if existing != nil {
		return nil, conflict("La categoría: %s ya existe.", req.Nombre)
	}

	// Уникальный индекс в БД — окончательная проверка при гонке
	created, err := s.repo.Create(ctx, mapper.ToCategory(req))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("La categoría: %s ya existe.", req.Nombre)
		}
		return nil, fmt.Errorf("создание категории: %w", err)
	}

	s.logger.Info("Категория создана",
		slog.String("id", created.ID),
		slog.String("name", created.Name),
	)
	resp := mapper.ToCategoryResponse(created)
	return &resp, nil
}

// Update переименовывает категорию.
func (s *CategoryService) Update(ctx context.Context, id string, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	req = req.Normalize()
	if err := ValidationFailed(req.Validate()); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, req.Nombre)
	if err != nil {
		return nil, fmt.Errorf("проверка имени категории: %w", err)
	}
	if existing != nil && existing.ID != id {
		return nil, conflict("Ya existe otra categoría con el nombre: %s.", req.Nombre)
	}

	updated, err := s.repo.Update(ctx, id, mapper.ToCategory(req).Name)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("Ya existe otra categoría con el nombre: %s.", req.Nombre)
		}
		return nil, fmt.Errorf("обновление категории: %w", err)
	}
	if updated == nil {
		return nil, notFound("No se encontró la categoría con id: %s.", id)
	}

	s.cache.invalidate(ctx, categoryKeyPrefix+id)
	s.logger.Info("Категория обновлена", slog.String("id", id), slog.String("name", updated.Name))

	resp := mapper.ToCategoryResponse(updated)
	return &resp, nil
}

// Delete удаляет категорию и возвращает её. Категорию с Funko удалить нельзя.
func (s *CategoryService) Delete(ctx context.Context, id string) (*dto.CategoryResponse, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return nil, conflict("La categoría con id: %s tiene Funkos asociados.", id)
		}
		return nil, fmt.Errorf("удаление категории: %w", err)
	}
	if deleted == nil {
		return nil, notFound("No se encontró la categoría con id: %s.", id)
	}

	s.cache.invalidate(ctx, categoryKeyPrefix+id)
	s.logger.Info("Категория удалена", slog.String("id", id))

	resp := mapper.ToCategoryResponse(deleted)
	return &resp, nil
}

// Snapshot возвращает все категории из согласованного снимка только для чтения.
func (s *CategoryService) Snapshot(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("снимок категорий: %w", err)
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for i := range list {
		out = append(out, mapper.ToCategoryResponse(&list[i]))
	}
	return out, nil
}
