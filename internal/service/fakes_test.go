package service

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/funkoworld/internal/domain/model"
	"github.com/bigkaa/funkoworld/internal/repository"
	"github.com/bigkaa/funkoworld/internal/storage"
)

// --- In-memory каталог для unit-тестов сервисов ---

// fakeCatalog — общее хранилище категорий и Funko.
type fakeCatalog struct {
	mu         sync.Mutex
	categories map[string]model.Category
	funkos     map[int64]model.Funko
	nextID     int64

	funkoGets int
	failWith  error
	// failWrite возвращается из Create и Update Funko
	failWrite error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		categories: make(map[string]model.Category),
		funkos:     make(map[int64]model.Funko),
		nextID:     1,
	}
}

// addCategory добавляет категорию напрямую, минуя сервис.
func (c *fakeCatalog) addCategory(name string) model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat := model.Category{ID: uuid.NewString(), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	c.categories[cat.ID] = cat
	return cat
}

// addFunko добавляет Funko напрямую, минуя сервис.
func (c *fakeCatalog) addFunko(name string, price float64, category model.Category) model.Funko {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := model.Funko{
		ID:         c.nextID,
		Name:       name,
		Price:      price,
		Image:      model.DefaultImage,
		CategoryID: category.ID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	c.nextID++
	c.funkos[f.ID] = f
	return f
}

// withCategory возвращает копию Funko со связанной категорией.
func (c *fakeCatalog) withCategory(f model.Funko) *model.Funko {
	cat := c.categories[f.CategoryID]
	f.Category = &cat
	return &f
}

type fakeCategoryRepo struct{ c *fakeCatalog }

func (r fakeCategoryRepo) GetByName(_ context.Context, name string) (*model.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.failWith != nil {
		return nil, r.c.failWith
	}
	for _, cat := range r.c.categories {
		if strings.EqualFold(cat.Name, name) {
			return &cat, nil
		}
	}
	return nil, nil
}

func (r fakeCategoryRepo) GetByID(_ context.Context, id string) (*model.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.failWith != nil {
		return nil, r.c.failWith
	}
	cat, ok := r.c.categories[id]
	if !ok {
		return nil, nil
	}
	return &cat, nil
}

func (r fakeCategoryRepo) GetAll(_ context.Context) ([]*model.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	out := make([]*model.Category, 0, len(r.c.categories))
	for _, cat := range r.c.categories {
		out = append(out, &cat)
	}
	slices.SortFunc(out, func(a, b *model.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r fakeCategoryRepo) Create(_ context.Context, cat *model.Category) (*model.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	for _, existing := range r.c.categories {
		if strings.EqualFold(existing.Name, cat.Name) {
			return nil, fmt.Errorf("%w: категория %s уже существует", repository.ErrConflict, cat.Name)
		}
	}
	created := *cat
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.c.categories[created.ID] = created
	return &created, nil
}

func (r fakeCategoryRepo) Update(_ context.Context, id, name string) (*model.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	cat, ok := r.c.categories[id]
	if !ok {
		return nil, nil
	}
	cat.Name = name
	cat.UpdatedAt = time.Now()
	r.c.categories[id] = cat
	return &cat, nil
}

func (r fakeCategoryRepo) Delete(_ context.Context, id string) (*model.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	cat, ok := r.c.categories[id]
	if !ok {
		return nil, nil
	}
	for _, f := range r.c.funkos {
		if f.CategoryID == id {
			return nil, fmt.Errorf("%w: категория %s используется", repository.ErrInUse, id)
		}
	}
	delete(r.c.categories, id)
	return &cat, nil
}

func (r fakeCategoryRepo) Snapshot(ctx context.Context) ([]model.Category, error) {
	list, _ := r.GetAll(ctx)
	out := make([]model.Category, 0, len(list))
	for _, cat := range list {
		out = append(out, *cat)
	}
	return out, nil
}

type fakeFunkoRepo struct{ c *fakeCatalog }

func (r fakeFunkoRepo) GetByID(_ context.Context, id int64) (*model.Funko, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	r.c.funkoGets++
	if r.c.failWith != nil {
		return nil, r.c.failWith
	}
	f, ok := r.c.funkos[id]
	if !ok {
		return nil, nil
	}
	return r.c.withCategory(f), nil
}

func (r fakeFunkoRepo) GetAll(_ context.Context, q repository.FunkoQuery) ([]*model.Funko, int, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.failWith != nil {
		return nil, 0, r.c.failWith
	}

	var matched []*model.Funko
	for _, f := range r.c.funkos {
		full := r.c.withCategory(f)
		if q.Name != nil && !containsFold(full.Name, *q.Name) {
			continue
		}
		if q.Category != nil && !containsFold(full.CategoryName(), *q.Category) {
			continue
		}
		if q.MaxPrice != nil && full.Price > *q.MaxPrice {
			continue
		}
		matched = append(matched, full)
	}
	slices.SortFunc(matched, func(a, b *model.Funko) int {
		var res int
		switch q.SortBy {
		case repository.SortByName:
			res = cmp.Compare(a.Name, b.Name)
		case repository.SortByPrice:
			res = cmp.Compare(a.Price, b.Price)
		case repository.SortByCreatedAt:
			res = a.CreatedAt.Compare(b.CreatedAt)
		case repository.SortByCategory:
			res = cmp.Compare(a.CategoryName(), b.CategoryName())
		default:
			res = cmp.Compare(a.ID, b.ID)
		}
		if q.Desc {
			res = -res
		}
		if res == 0 {
			res = cmp.Compare(a.ID, b.ID)
		}
		return res
	})

	total := len(matched)
	start := min((q.Page-1)*q.Size, total)
	end := min(start+q.Size, total)
	return matched[start:end], total, nil
}

func (r fakeFunkoRepo) Create(_ context.Context, f *model.Funko) (*model.Funko, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.failWrite != nil {
		return nil, r.c.failWrite
	}
	created := *f
	created.Category = nil
	created.ID = r.c.nextID
	r.c.nextID++
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.c.funkos[created.ID] = created
	return r.c.withCategory(created), nil
}

func (r fakeFunkoRepo) Update(_ context.Context, f *model.Funko) (*model.Funko, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.failWrite != nil {
		return nil, r.c.failWrite
	}
	existing, ok := r.c.funkos[f.ID]
	if !ok {
		return nil, nil
	}
	updated := *f
	updated.Category = nil
	updated.CreatedAt = existing.CreatedAt
	r.c.funkos[f.ID] = updated
	return r.c.withCategory(updated), nil
}

func (r fakeFunkoRepo) Delete(_ context.Context, id int64) (*model.Funko, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	f, ok := r.c.funkos[id]
	if !ok {
		return nil, nil
	}
	delete(r.c.funkos, id)
	return r.c.withCategory(f), nil
}

func (r fakeFunkoRepo) Snapshot(_ context.Context) ([]model.Funko, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	out := make([]model.Funko, 0, len(r.c.funkos))
	for _, f := range r.c.funkos {
		out = append(out, *r.c.withCategory(f))
	}
	slices.SortFunc(out, func(a, b model.Funko) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// --- Пользователи ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := r.users[key]; ok {
		return fmt.Errorf("%w: пользователь %s уже существует", repository.ErrConflict, u.Email)
	}
	u.ID = int64(len(r.users) + 1)
	r.users[key] = *u
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

// --- Хранилище изображений ---

// fakeImages — ImageStore в памяти: путь → содержимое.
type fakeImages struct {
	mu      sync.Mutex
	files   map[string][]byte
	n       int
	saveErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{files: make(map[string][]byte)}
}

func (f *fakeImages) SaveFile(u *storage.Upload, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(u.Content)
	if err != nil {
		return "", err
	}
	f.n++
	p := fmt.Sprintf("/uploads/%s/%d_%s", folder, f.n, u.Filename)
	f.files[p] = data
	return p, nil
}

func (f *fakeImages) DeleteFile(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, p)
	return nil
}

func (f *fakeImages) has(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[p]
	return ok
}

// --- Кэш с ошибками ---

// brokenStore — кэш, все операции которого завершаются ошибкой.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("кэш недоступен")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("кэш недоступен")
}

func (brokenStore) Delete(context.Context, string) error {
	return fmt.Errorf("кэш недоступен")
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
