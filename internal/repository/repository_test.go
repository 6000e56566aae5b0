package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/funkoworld/internal/config"
	"github.com/bigkaa/funkoworld/internal/database"
	"github.com/bigkaa/funkoworld/internal/domain/model"
)

const (
	wowCategoryID     = "3f4e3c98-1e96-487b-9494-28e44e233633"
	pokemonCategoryID = "722f9661-8631-419b-8903-34e9e0339d01"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции
// (включая начальные данные каталога).
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("funkoworld_test"),
		postgres.WithUsername("funkoworld"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("FW_DB_HOST", host)
	t.Setenv("FW_DB_PORT", port.Port())
	t.Setenv("FW_DB_NAME", "funkoworld_test")
	t.Setenv("FW_DB_USER", "funkoworld")
	t.Setenv("FW_DB_PASSWORD", "test-password")
	t.Setenv("FW_SESSION_SECRET", "integration-session-secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := database.Migrate(pool, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	return pool
}

// --- CategoryRepository ---

func TestCategoryCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool)

	created, err := repo.Create(ctx, &model.Category{Name: "DISNEY"})
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if created.ID == "" {
		t.Fatal("ID не назначен")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("временные метки не установлены")
	}

	byName, err := repo.GetByName(ctx, "disney")
	if err != nil {
		t.Fatalf("GetByName() ошибка: %v", err)
	}
	if byName == nil || byName.ID != created.ID {
		t.Fatalf("GetByName(disney) = %+v, хотели id %s", byName, created.ID)
	}

	time.Sleep(10 * time.Millisecond)
	updated, err := repo.Update(ctx, created.ID, "Disney Classics")
	if err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	if updated.Name != "Disney Classics" {
		t.Errorf("Name = %q, хотели Disney Classics", updated.Name)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt не обновлён")
	}

	deleted, err := repo.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if deleted == nil || deleted.ID != created.ID {
		t.Fatalf("Delete() = %+v, хотели удалённую категорию", deleted)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() после удаления = %+v, хотели nil", got)
	}
}

func TestCategoryAbsentIsNil(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool)

	for _, id := range []string{"00000000-0000-0000-0000-000000000000", "not-a-uuid"} {
		if c, err := repo.GetByID(ctx, id); c != nil || err != nil {
			t.Errorf("GetByID(%q) = (%v, %v), хотели (nil, nil)", id, c, err)
		}
		if c, err := repo.Update(ctx, id, "X"); c != nil || err != nil {
			t.Errorf("Update(%q) = (%v, %v), хотели (nil, nil)", id, c, err)
		}
		if c, err := repo.Delete(ctx, id); c != nil || err != nil {
			t.Errorf("Delete(%q) = (%v, %v), хотели (nil, nil)", id, c, err)
		}
	}
	if c, err := repo.GetByName(ctx, "nonexistent"); c != nil || err != nil {
		t.Errorf("GetByName() = (%v, %v), хотели (nil, nil)", c, err)
	}
}

func TestCategoryUniqueNameIgnoresCase(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool)

	_, err := repo.Create(ctx, &model.Category{Name: "Pokemon"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Create(Pokemon) ошибка = %v, хотели ErrConflict", err)
	}

	_, err = repo.Update(ctx, wowCategoryID, "marvel")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Update(marvel) ошибка = %v, хотели ErrConflict", err)
	}
}

func TestCategoryDeleteInUse(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewCategoryRepository(pool)

	_, err := repo.Delete(context.Background(), wowCategoryID)
	if !errors.Is(err, ErrInUse) {
		t.Fatalf("Delete(WOW) ошибка = %v, хотели ErrInUse", err)
	}
}

func TestCategorySnapshot(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool)

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() ошибка: %v", err)
	}
	if len(snap) != 4 {
		t.Fatalf("len(Snapshot()) = %d, хотели 4", len(snap))
	}

	// Изменение снимка не затрагивает хранилище
	snap[0].Name = "CHANGED"
	again, err := repo.GetByID(ctx, snap[0].ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if again.Name == "CHANGED" {
		t.Error("изменение снимка попало в хранилище")
	}

	// Внутри транзакции снимок выполняется в ней же
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() ошибка: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	inTx, err := NewCategoryRepository(tx).Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() в транзакции ошибка: %v", err)
	}
	if len(inTx) != 4 {
		t.Errorf("len(Snapshot()) в транзакции = %d, хотели 4", len(inTx))
	}
}

// --- FunkoRepository ---

func TestFunkoCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewFunkoRepository(pool)

	created, err := repo.Create(ctx, &model.Funko{
		Name:       "Bulbasaur",
		Price:      11.5,
		Image:      model.DefaultImage,
		CategoryID: pokemonCategoryID,
	})
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if created.ID <= 10 {
		t.Errorf("ID = %d, хотели новый id > 10", created.ID)
	}
	if created.Category == nil || created.Category.Name != "POKEMON" {
		t.Fatalf("Category не загружена: %+v", created.Category)
	}

	created.Name = "Ivysaur"
	created.Price = 13
	created.CategoryID = wowCategoryID
	created.UpdatedAt = time.Now().UTC()
	updated, err := repo.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	if updated.Name != "Ivysaur" || updated.Price != 13 || updated.CategoryName() != "WOW" {
		t.Errorf("Update() = %+v", updated)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID() = (%v, %v)", got, err)
	}
	if got.CategoryName() != "WOW" {
		t.Errorf("CategoryName() = %q, хотели WOW", got.CategoryName())
	}

	deleted, err := repo.Delete(ctx, created.ID)
	if err != nil || deleted == nil {
		t.Fatalf("Delete() = (%v, %v)", deleted, err)
	}
	if deleted.CategoryName() != "WOW" {
		t.Errorf("удалённый Funko без категории: %+v", deleted)
	}

	if f, err := repo.GetByID(ctx, created.ID); f != nil || err != nil {
		t.Errorf("GetByID() после удаления = (%v, %v), хотели (nil, nil)", f, err)
	}
	if f, err := repo.Delete(ctx, created.ID); f != nil || err != nil {
		t.Errorf("повторный Delete() = (%v, %v), хотели (nil, nil)", f, err)
	}
	if f, err := repo.Update(ctx, created); f != nil || err != nil {
		t.Errorf("Update() удалённого = (%v, %v), хотели (nil, nil)", f, err)
	}
}

func TestFunkoCreateUnknownCategory(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewFunkoRepository(pool)

	_, err := repo.Create(context.Background(), &model.Funko{
		Name:       "Ghost",
		Price:      1,
		Image:      model.DefaultImage,
		CategoryID: "00000000-0000-0000-0000-000000000000",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Create() ошибка = %v, хотели ErrConflict", err)
	}
}

func TestFunkoGetAll(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewFunkoRepository(pool)

	tests := []struct {
		name      string
		q         FunkoQuery
		wantTotal int
		wantIDs   []int64
	}{
		{
			name:      "первая страница по умолчанию",
			q:         FunkoQuery{Page: 1, Size: 3},
			wantTotal: 10,
			wantIDs:   []int64{1, 2, 3},
		},
		{
			name:      "последняя неполная страница",
			q:         FunkoQuery{Page: 4, Size: 3},
			wantTotal: 10,
			wantIDs:   []int64{10},
		},
		{
			name:      "максимальная цена исключает Arthas",
			q:         FunkoQuery{MaxPrice: floatPtr(20), Category: strPtr("wow"), Page: 1, Size: 10},
			wantTotal: 1,
			wantIDs:   []int64{6},
		},
		{
			name:      "категория без учёта регистра",
			q:         FunkoQuery{Category: strPtr("wow"), Page: 1, Size: 10},
			wantTotal: 3,
			wantIDs:   []int64{5, 6, 7},
		},
		{
			name:      "подстрока названия",
			q:         FunkoQuery{Name: strPtr("MAN"), Page: 1, Size: 10},
			wantTotal: 2,
			wantIDs:   []int64{3, 4},
		},
		{
			name:      "сортировка по цене по убыванию, равные по id",
			q:         FunkoQuery{SortBy: SortByPrice, Desc: true, Page: 1, Size: 4},
			wantTotal: 10,
			wantIDs:   []int64{5, 7, 6, 10},
		},
		{
			name:      "сортировка по категории, равные по id",
			q:         FunkoQuery{SortBy: SortByCategory, Page: 1, Size: 3},
			wantTotal: 10,
			wantIDs:   []int64{3, 4, 1},
		},
		{
			name:      "страница за пределами",
			q:         FunkoQuery{Page: 5, Size: 10},
			wantTotal: 10,
			wantIDs:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := repo.GetAll(ctx, tt.q)
			if err != nil {
				t.Fatalf("GetAll() ошибка: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, хотели %d", total, tt.wantTotal)
			}
			if len(items) != len(tt.wantIDs) {
				t.Fatalf("len(items) = %d, хотели %d", len(items), len(tt.wantIDs))
			}
			for i, f := range items {
				if f.ID != tt.wantIDs[i] {
					t.Errorf("items[%d].ID = %d, хотели %d", i, f.ID, tt.wantIDs[i])
				}
				if f.Category == nil {
					t.Errorf("items[%d] без категории", i)
				}
			}
		})
	}
}

func TestFunkoSnapshot(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewFunkoRepository(pool)

	snap, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() ошибка: %v", err)
	}
	if len(snap) != 10 {
		t.Fatalf("len(Snapshot()) = %d, хотели 10", len(snap))
	}
	if snap[0].Name != "Pikachu" || snap[0].CategoryName() != "POKEMON" {
		t.Errorf("snap[0] = %+v", snap[0])
	}
}

// --- UserRepository ---

func TestUserRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	u := &model.User{Email: "admin@admin.com", Name: "Admin", PasswordHash: "hash", Role: "Admin"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if u.ID == 0 {
		t.Error("ID не назначен")
	}

	dup := &model.User{Email: "ADMIN@admin.com", Name: "Other", PasswordHash: "hash", Role: "User"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create(дубликат) ошибка = %v, хотели ErrConflict", err)
	}

	got, err := repo.GetByEmail(ctx, "Admin@Admin.com")
	if err != nil || got == nil {
		t.Fatalf("GetByEmail() = (%v, %v)", got, err)
	}
	if got.Role != "Admin" {
		t.Errorf("Role = %q, хотели Admin", got.Role)
	}

	if missing, err := repo.GetByEmail(ctx, "nobody@example.com"); missing != nil || err != nil {
		t.Errorf("GetByEmail(nobody) = (%v, %v), хотели (nil, nil)", missing, err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count() = (%d, %v), хотели (1, nil)", n, err)
	}
}
