// auth.go — локальная аутентификация: проверка пароля (bcrypt),
// начальные учётные записи и выпуск JWT (RS256) для REST API.
// Публичный ключ подписи публикуется в JWKS через jwkset.
package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/funkoworld/internal/domain/model"
	"github.com/bigkaa/funkoworld/internal/domain/rbac"
	"github.com/bigkaa/funkoworld/internal/repository"
)

// ErrInvalidCredentials — неверный email или пароль.
var ErrInvalidCredentials = errors.New("Credenciales inválidas.")

// SeedUser — учётная запись, создаваемая при старте, если её нет.
type SeedUser struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// DefaultSeedUsers — администратор и обычный пользователь.
var DefaultSeedUsers = []SeedUser{
	{Email: "admin@admin.com", Name: "Admin", Password: "Admin123", Role: rbac.RoleAdmin},
	{Email: "user@user.com", Name: "User", Password: "User123", Role: rbac.RoleUser},
}

// TokenClaims — claims выпускаемого токена доступа.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// Token — выпущенный токен доступа.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService — аутентификация пользователей и выпуск токенов.
type AuthService struct {
	users  repository.UserRepository
	key    *rsa.PrivateKey
	kid    string
	jwks   jwkset.Storage
	issuer string
	ttl    time.Duration
	cost   int
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService создаёт сервис и генерирует ключ подписи RSA-2048.
// Ключ живёт в памяти процесса: после перезапуска выданные токены
// перестают проходить проверку.
func NewAuthService(
	ctx context.Context,
	users repository.UserRepository,
	issuer string,
	ttl time.Duration,
	logger *slog.Logger,
) (*AuthService, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("генерация ключа подписи: %w", err)
	}
	kid := uuid.NewString()

	jwk, err := jwkset.NewJWKFromKey(&key.PublicKey, jwkset.JWKOptions{
		Metadata: jwkset.JWKMetadataOptions{
			ALG: jwkset.AlgRS256,
			KID: kid,
			USE: jwkset.UseSig,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWK: %w", err)
	}
	storage := jwkset.NewMemoryStorage()
	if err := storage.KeyWrite(ctx, jwk); err != nil {
		return nil, fmt.Errorf("запись JWK: %w", err)
	}

	return &AuthService{
		users:  users,
		key:    key,
		kid:    kid,
		jwks:   storage,
		issuer: issuer,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		logger: logger.With(slog.String("component", "auth_service")),
		now:    time.Now,
	}, nil
}

// Issuer возвращает issuer выпускаемых токенов.
func (s *AuthService) Issuer() string { return s.issuer }

// Keyfunc возвращает keyfunc для проверки подписи выпущенных токенов.
func (s *AuthService) Keyfunc() (keyfunc.Keyfunc, error) {
	k, err := keyfunc.New(keyfunc.Options{Storage: s.jwks})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}
	return k, nil
}

// JWKS возвращает публичный набор ключей в формате JWK Set.
func (s *AuthService) JWKS(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.jwks.JSONPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("публикация JWKS: %w", err)
	}
	return raw, nil
}

// Authenticate проверяет email и пароль.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	if u == nil {
		s.logger.Info("Вход отклонён: пользователь не найден", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("Вход отклонён: неверный пароль", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueToken выпускает токен доступа RS256 для пользователя.
func (s *AuthService) IssueToken(u *model.User) (*Token, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid
	signed, err := token.SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("подпись токена: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: exp}, nil
}

// EnsureSeedUsers создаёт отсутствующие учётные записи.
func (s *AuthService) EnsureSeedUsers(ctx context.Context, seeds []SeedUser) error {
	for _, seed := range seeds {
		if !rbac.IsValidRole(seed.Role) {
			return fmt.Errorf("недопустимая роль %q для %s", seed.Role, seed.Email)
		}
		existing, err := s.users.GetByEmail(ctx, seed.Email)
		if err != nil {
			return fmt.Errorf("поиск пользователя %s: %w", seed.Email, err)
		}
		if existing != nil {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), s.cost)
		if err != nil {
			return fmt.Errorf("хэширование пароля %s: %w", seed.Email, err)
		}
		u := &model.User{
			Email:        seed.Email,
			Name:         seed.Name,
			PasswordHash: string(hash),
			Role:         seed.Role,
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return fmt.Errorf("создание пользователя %s: %w", seed.Email, err)
		}
		s.logger.Info("Создан пользователь",
			slog.String("email", seed.Email),
			slog.String("role", seed.Role),
		)
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("подсчёт пользователей: %w", err)
	}
	s.logger.Info("Учётные записи готовы", slog.Int("users", total))
	return nil
}
