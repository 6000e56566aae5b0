// funko.go — сервис Funko: кэшируемое чтение, фильтрация со страницами,
// CRUD с разрешением категории по имени и работа с изображениями.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/funkoworld/internal/cache"
	"github.com/bigkaa/funkoworld/internal/domain/model"
	"github.com/bigkaa/funkoworld/internal/dto"
	"github.com/bigkaa/funkoworld/internal/mapper"
	"github.com/bigkaa/funkoworld/internal/repository"
	"github.com/bigkaa/funkoworld/internal/storage"
)

// ImageStore — хранилище изображений Funko.
type ImageStore interface {
	SaveFile(u *storage.Upload, folder string) (string, error)
	DeleteFile(p string) error
}

// FunkoService — сервис каталога Funko.
type FunkoService struct {
	repo       repository.FunkoRepository
	categories repository.CategoryRepository
	images     ImageStore
	cache      *readCache
	logger     *slog.Logger
	now        func() time.Time
}

// NewFunkoService создаёт сервис Funko. store и images могут быть nil:
// без кэша чтение идёт из БД, без хранилища загрузка изображений недоступна.
func NewFunkoService(
	repo repository.FunkoRepository,
	categories repository.CategoryRepository,
	images ImageStore,
	store cache.Store,
	ttl time.Duration,
	logger *slog.Logger,
) *FunkoService {
	logger = logger.With(slog.String("component", "funko_service"))
	return &FunkoService{
		repo:       repo,
		categories: categories,
		images:     images,
		cache:      newReadCache(store, ttl, logger),
		logger:     logger,
		now:        time.Now,
	}
}

func funkoKey(id int64) string {
	return funkoKeyPrefix + strconv.FormatInt(id, 10)
}

// GetByID возвращает Funko по id.
func (s *FunkoService) GetByID(ctx context.Context, id int64) (*dto.FunkoResponse, error) {
	key := funkoKey(id)
	if cached, ok := cachedGet[dto.FunkoResponse](ctx, s.cache, key); ok {
		s.logger.Debug("Funko из кэша", slog.Int64("id", id))
		return cached, nil
	}

	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение Funko: %w", err)
	}
	if f == nil {
		return nil, notFound("No se encontró el Funko con id: %d.", id)
	}

	resp := mapper.ToFunkoResponse(f)
	s.cache.set(ctx, key, resp)
	return &resp, nil
}

// GetAll возвращает страницу Funko по фильтру. Фильтр нормализуется.
func (s *FunkoService) GetAll(ctx context.Context, filter dto.Filter) (dto.Page[dto.FunkoResponse], error) {
	filter = filter.Normalize()
	list, total, err := s.repo.GetAll(ctx, toFunkoQuery(filter))
	if err != nil {
		return dto.Page[dto.FunkoResponse]{}, fmt.Errorf("получение списка Funko: %w", err)
	}
	return dto.Page[dto.FunkoResponse]{
		Items:      mapper.ToFunkoResponses(list),
		TotalCount: total,
		Page:       filter.Page,
		Size:       filter.Size,
	}, nil
}

func toFunkoQuery(f dto.Filter) repository.FunkoQuery {
	return repository.FunkoQuery{
		Name:     f.Nombre,
		Category: f.Categoria,
		MaxPrice: f.MaxPrecio,
		Page:     f.Page,
		Size:     f.Size,
		SortBy:   f.SortBy,
		Desc:     f.Desc(),
	}
}

// resolveCategory находит категорию по имени; отсутствие — Conflict.
func (s *FunkoService) resolveCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	c, err := s.categories.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("поиск категории: %w", err)
	}
	if c == nil {
		return nil, conflict("La categoría: %s no existe.", name)
	}
	return c, nil
}

// categoryWriteError переводит нарушение ссылки на категорию при записи
// (категория удалена после resolveCategory) в Conflict.
func categoryWriteError(op, category string, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return conflict("La categoría: %s no existe.", category)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create создаёт Funko в существующей категории.
func (s *FunkoService) Create(ctx context.Context, req dto.FunkoRequest) (*dto.FunkoResponse, error) {
	req = req.Normalize()
	if err := ValidationFailed(req.Validate()); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, req.Categoria)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, mapper.ToFunko(req, category))
	if err != nil {
		return nil, categoryWriteError("создание Funko", category.Name, err)
	}

	s.logger.Info("Funko создан",
		slog.Int64("id", created.ID),
		slog.String("name", created.Name),
		slog.String("category", created.CategoryName()),
	)
	resp := mapper.ToFunkoResponse(created)
	return &resp, nil
}

// Update полностью заменяет Funko. Без imagen ставится изображение по умолчанию.
func (s *FunkoService) Update(ctx context.Context, id int64, req dto.FunkoRequest) (*dto.FunkoResponse, error) {
	req = req.Normalize()
	if err := ValidationFailed(req.Validate()); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, req.Categoria)
	if err != nil {
		return nil, err
	}

	replacement := mapper.ToFunko(req, category)
	replacement.ID = id
	replacement.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, replacement)
	if err != nil {
		return nil, categoryWriteError("обновление Funko", category.Name, err)
	}
	if updated == nil {
		return nil, notFound("No se encontró el Funko con id: %d.", id)
	}

	s.cache.invalidate(ctx, funkoKey(id))
	s.logger.Info("Funko обновлён", slog.Int64("id", id))

	resp := mapper.ToFunkoResponse(updated)
	return &resp, nil
}

// Patch меняет только присутствующие поля.
func (s *FunkoService) Patch(ctx context.Context, id int64, req dto.FunkoPatchRequest) (*dto.FunkoResponse, error) {
	req = req.Normalize()
	if err := ValidationFailed(req.Validate()); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение Funko: %w", err)
	}
	if existing == nil {
		return nil, notFound("No se encontró el Funko con id: %d.", id)
	}

	var category *model.Category
	if req.Categoria != nil {
		if category, err = s.resolveCategory(ctx, *req.Categoria); err != nil {
			return nil, err
		}
	}

	mapper.ApplyPatch(existing, req, category)
	existing.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, categoryWriteError("обновление Funko", existing.CategoryName(), err)
	}
	if updated == nil {
		return nil, notFound("No se encontró el Funko con id: %d.", id)
	}

	s.cache.invalidate(ctx, funkoKey(id))
	s.logger.Info("Funko изменён", slog.Int64("id", id))

	resp := mapper.ToFunkoResponse(updated)
	return &resp, nil
}

// Delete удаляет Funko и его загруженное изображение.
func (s *FunkoService) Delete(ctx context.Context, id int64) (*dto.FunkoResponse, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("удаление Funko: %w", err)
	}
	if deleted == nil {
		return nil, notFound("No se encontró el Funko con id: %d.", id)
	}

	s.cache.invalidate(ctx, funkoKey(id))
	s.DiscardImage(deleted.Image)
	s.logger.Info("Funko удалён", slog.Int64("id", id))

	resp := mapper.ToFunkoResponse(deleted)
	return &resp, nil
}

// SaveImage сохраняет загруженное изображение и возвращает его публичный путь.
func (s *FunkoService) SaveImage(u *storage.Upload) (string, error) {
	if s.images == nil {
		return "", &Error{Kind: KindStorage, Message: "Almacenamiento no disponible"}
	}
	p, err := s.images.SaveFile(u, storage.DefaultFolder)
	if err != nil {
		return "", storageFailure(err)
	}
	return p, nil
}

// DiscardImage удаляет файл изображения. Изображение по умолчанию
// и пустой путь пропускаются; ошибка удаления только логируется.
func (s *FunkoService) DiscardImage(p string) {
	if s.images == nil || p == "" || p == model.DefaultImage {
		return
	}
	if err := s.images.DeleteFile(p); err != nil {
		s.logger.Warn("Не удалось удалить изображение",
			slog.String("path", p),
			slog.String("error", err.Error()),
		)
	}
}

// CreateWithImage создаёт Funko; если передан файл, он сохраняется
// и становится изображением. При ошибке создания файл удаляется.
func (s *FunkoService) CreateWithImage(ctx context.Context, req dto.FunkoRequest, u *storage.Upload) (*dto.FunkoResponse, error) {
	if u == nil {
		return s.Create(ctx, req)
	}
	if err := ValidationFailed(req.Validate()); err != nil {
		return nil, err
	}

	p, err := s.SaveImage(u)
	if err != nil {
		return nil, err
	}
	req.Imagen = &p

	resp, err := s.Create(ctx, req)
	if err != nil {
		s.DiscardImage(p)
		return nil, err
	}
	return resp, nil
}

// UpdateWithImage заменяет Funko; если передан файл, он становится новым
// изображением, а прежнее удаляется после успешного обновления.
func (s *FunkoService) UpdateWithImage(ctx context.Context, id int64, req dto.FunkoRequest, u *storage.Upload) (*dto.FunkoResponse, error) {
	if u == nil {
		return s.Update(ctx, id, req)
	}
	if err := ValidationFailed(req.Validate()); err != nil {
		return nil, err
	}

	previous, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение Funko: %w", err)
	}
	if previous == nil {
		return nil, notFound("No se encontró el Funko con id: %d.", id)
	}

	p, err := s.SaveImage(u)
	if err != nil {
		return nil, err
	}
	req.Imagen = &p

	resp, err := s.Update(ctx, id, req)
	if err != nil {
		s.DiscardImage(p)
		return nil, err
	}
	if previous.Image != p {
		s.DiscardImage(previous.Image)
	}
	return resp, nil
}

// UpdateImage заменяет только изображение Funko загруженным файлом.
func (s *FunkoService) UpdateImage(ctx context.Context, id int64, u *storage.Upload) (*dto.FunkoResponse, error) {
	if u == nil {
		return nil, BadRequest("No se ha proporcionado ningún archivo.")
	}

	previous, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение Funko: %w", err)
	}
	if previous == nil {
		return nil, notFound("No se encontró el Funko con id: %d.", id)
	}
	oldImage := previous.Image

	p, err := s.SaveImage(u)
	if err != nil {
		return nil, err
	}

	resp, err := s.Patch(ctx, id, dto.FunkoPatchRequest{Imagen: &p})
	if err != nil {
		s.DiscardImage(p)
		return nil, err
	}
	s.DiscardImage(oldImage)
	return resp, nil
}

// Snapshot возвращает все Funko из согласованного снимка только для чтения.
// Кэш не читается и не заполняется.
func (s *FunkoService) Snapshot(ctx context.Context) ([]dto.FunkoResponse, error) {
	list, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("снимок Funko: %w", err)
	}
	out := make([]dto.FunkoResponse, 0, len(list))
	for i := range list {
		out = append(out, mapper.ToFunkoResponse(&list[i]))
	}
	return out, nil
}
