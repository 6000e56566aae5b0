// Пакет auth — сессии веб-интерфейса каталога.
// Сессия хранится целиком в cookie, зашифрованном AES-256-GCM:
// пользователь и роль, недавно просмотренные Funko, flash-сообщение
// и CSRF-токен.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/bigkaa/funkoworld/internal/domain/rbac"
)

// SessionCookieName — имя cookie с зашифрованной сессией.
const SessionCookieName = "funkoworld_session"

// RecentLimit — сколько недавно просмотренных Funko хранится в сессии.
const RecentLimit = 3

// Виды flash-сообщений.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// RecentFunko — недавно просмотренный Funko.
type RecentFunko struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// Flash — одноразовое сообщение, показываемое после redirect.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionData — данные сессии в cookie. Анонимная сессия имеет пустой Email.
type SessionData struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	// Role — Admin или User
	Role string `json:"role,omitempty"`
	// ExpiresAt — момент истечения сессии (Unix timestamp)
	ExpiresAt int64         `json:"expires_at"`
	CSRFToken string        `json:"csrf"`
	Recent    []RecentFunko `json:"recent,omitempty"`
	Flash     *Flash        `json:"flash,omitempty"`
}

// IsAuthenticated сообщает, что в сессии есть вошедший пользователь.
func (s *SessionData) IsAuthenticated() bool {
	return s != nil && s.Email != ""
}

// IsAdmin сообщает, что пользователь имеет роль Admin.
func (s *SessionData) IsAdmin() bool {
	return s.IsAuthenticated() && rbac.Satisfies(s.Role, rbac.RoleAdmin)
}

// IsExpired проверяет, истекла ли сессия.
func (s *SessionData) IsExpired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// AddRecent помещает Funko в начало списка недавно просмотренных.
// Повтор переносится в начало, длина списка не больше RecentLimit.
func (s *SessionData) AddRecent(id int64, nombre string) {
	s.Recent = slices.DeleteFunc(s.Recent, func(r RecentFunko) bool { return r.ID == id })
	s.Recent = slices.Insert(s.Recent, 0, RecentFunko{ID: id, Nombre: nombre})
	if len(s.Recent) > RecentLimit {
		s.Recent = s.Recent[:RecentLimit]
	}
}

// SetFlash запоминает сообщение для следующей страницы.
func (s *SessionData) SetFlash(kind, message string) {
	s.Flash = &Flash{Kind: kind, Message: message}
}

// PopFlash возвращает и удаляет flash-сообщение.
func (s *SessionData) PopFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}

// ValidCSRF сравнивает токен формы с токеном сессии за постоянное время.
func (s *SessionData) ValidCSRF(token string) bool {
	if s == nil || s.CSRFToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(token)) == 1
}

// SessionManager шифрует SessionData в cookie и обратно.
type SessionManager struct {
	gcm    cipher.AEAD
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager создаёт менеджер сессий. Секрет в base64 длиной
// 32 байта используется как ключ напрямую, иначе ключ — SHA-256 от строки.
func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("секрет сессии не задан")
	}
	keyBytes, err := base64.StdEncoding.DecodeString(secret)
	if err != nil || len(keyBytes) != 32 {
		sum := sha256.Sum256([]byte(secret))
		keyBytes = sum[:]
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &SessionManager{gcm: gcm, ttl: ttl, secure: secure, now: time.Now}, nil
}

// NewSession создаёт анонимную сессию с новым CSRF-токеном.
func (sm *SessionManager) NewSession() (*SessionData, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	return &SessionData{
		ExpiresAt: sm.now().Add(sm.ttl).Unix(),
		CSRFToken: token,
	}, nil
}

// SignIn записывает пользователя в сессию, выдаёт новый CSRF-токен
// и продлевает срок действия. Недавно просмотренные сохраняются.
func (sm *SessionManager) SignIn(s *SessionData, email, name, role string) error {
	token, err := randomToken()
	if err != nil {
		return err
	}
	s.Email, s.Name, s.Role = email, name, role
	s.CSRFToken = token
	s.ExpiresAt = sm.now().Add(sm.ttl).Unix()
	return nil
}

// Encrypt шифрует SessionData и возвращает base64-строку.
func (sm *SessionManager) Encrypt(data *SessionData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, sm.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// nonce предшествует шифротексту
	ciphertext := sm.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в SessionData.
func (sm *SessionManager) Decrypt(encrypted string) (*SessionData, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := sm.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := sm.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return &data, nil
}

// Load извлекает сессию из cookie запроса. Возвращает nil, nil, если
// cookie нет или сессия истекла.
func (sm *SessionManager) Load(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	data, err := sm.Decrypt(cookie.Value)
	if err != nil {
		return nil, err
	}
	if data.IsExpired(sm.now()) {
		return nil, nil
	}
	return data, nil
}

// Save записывает сессию в cookie ответа. Срок cookie совпадает со сроком сессии.
func (sm *SessionManager) Save(w http.ResponseWriter, data *SessionData) error {
	encrypted, err := sm.Encrypt(data)
	if err != nil {
		return err
	}

	maxAge := int(data.ExpiresAt - sm.now().Unix())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear удаляет cookie сессии.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
