// Пакет storage — проверка и сохранение загруженных изображений на диск.
// Файл проверяется до записи; запись идёт через временный файл
// с атомарным переименованием. Наружу отдаётся публичный путь
// вида /{uploadPath}/{folder}/{filename}.
package storage

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultFolder — подкаталог для изображений Funko.
const DefaultFolder = "funkos"

//go:embed default.png
var defaultImage []byte

var uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fw_uploads_total",
	Help: "Количество загрузок изображений по результату (saved, rejected, failed).",
}, []string{"result"})

// Error — ошибка проверки или записи файла. Message показывается пользователю.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Upload — загруженный файл: метаданные из запроса и содержимое.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Config — параметры хранилища.
type Config struct {
	// Root — корневой каталог на диске
	Root string
	// UploadPath — публичный префикс (без слэшей), он же подкаталог Root
	UploadPath string
	// MaxFileSize — максимальный размер файла в байтах
	MaxFileSize int64
	// AllowedExtensions — расширения с точкой в нижнем регистре
	AllowedExtensions []string
	// AllowedContentTypes — допустимые MIME-типы (сравнение по подтипу)
	AllowedContentTypes []string
}

// FileStorage — хранилище загруженных изображений.
type FileStorage struct {
	rootPath     string
	uploadPath   string
	maxFileSize  int64
	extensions   []string
	contentTypes []string
	logger       *slog.Logger
	now          func() time.Time
}

// New создаёт хранилище, создаёт каталог {Root}/{UploadPath} и кладёт
// в него изображение по умолчанию, если его ещё нет.
func New(cfg Config, logger *slog.Logger) (*FileStorage, error) {
	uploadPath := strings.Trim(cfg.UploadPath, "/")
	rootPath := filepath.Join(cfg.Root, uploadPath)
	if err := os.MkdirAll(rootPath, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог загрузок %s: %w", rootPath, err)
	}

	defaultPath := filepath.Join(rootPath, "default.png")
	if _, err := os.Stat(defaultPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(defaultPath, defaultImage, 0o640); err != nil {
			return nil, fmt.Errorf("не удалось записать изображение по умолчанию: %w", err)
		}
	}

	fs := &FileStorage{
		rootPath:     rootPath,
		uploadPath:   uploadPath,
		maxFileSize:  cfg.MaxFileSize,
		extensions:   cfg.AllowedExtensions,
		contentTypes: cfg.AllowedContentTypes,
		logger:       logger.With(slog.String("component", "storage")),
		now:          time.Now,
	}
	fs.logger.Info("Хранилище файлов инициализировано", slog.String("path", rootPath))
	return fs, nil
}

// Validate проверяет файл по порядку: наличие и размер, лимит размера,
// расширение, Content-Type, имя файла. Возвращает первую найденную ошибку.
func (fs *FileStorage) Validate(u *Upload) error {
	if u == nil || u.Content == nil || u.Size <= 0 {
		return &Error{Message: "Archivo vacío"}
	}
	if u.Size > fs.maxFileSize {
		return &Error{Message: fmt.Sprintf("Archivo demasiado grande. Tamaño máximo: %d bytes", fs.maxFileSize)}
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	if !slices.Contains(fs.extensions, ext) {
		return &Error{Message: fmt.Sprintf("Extensión no permitida: %s", ext)}
	}

	contentType := strings.ToLower(u.ContentType)
	if contentType == "" || !slices.ContainsFunc(fs.contentTypes, func(ct string) bool {
		return strings.Contains(contentType, subtype(ct))
	}) {
		return &Error{Message: fmt.Sprintf("Tipo de contenido no permitido: %s", contentType)}
	}

	if strings.Contains(u.Filename, "..") || strings.ContainsAny(u.Filename, `/\`) {
		return &Error{Message: "Nombre de archivo no válido"}
	}
	return nil
}

// SaveFile проверяет файл и сохраняет его в подкаталог folder.
// Возвращает публичный путь сохранённого файла.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (fs *FileStorage) SaveFile(u *Upload, folder string) (string, error) {
	if err := fs.Validate(u); err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		fs.logger.Warn("Файл отклонён", slog.String("error", err.Error()))
		return "", err
	}

	filename := fs.generateFilename(u.Filename)
	folderPath := filepath.Join(fs.rootPath, folder)
	if err := os.MkdirAll(folderPath, 0o750); err != nil {
		return "", fs.failed("Error guardando archivo", err)
	}

	fullPath := filepath.Join(folderPath, filename)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fs.failed("Error guardando archivo", err)
	}

	// Читаем не больше лимита +1 байт: заявленный размер может не совпадать с содержимым
	written, err := io.Copy(f, io.LimitReader(u.Content, fs.maxFileSize+1))
	if err == nil && written > fs.maxFileSize {
		err = fmt.Errorf("содержимое больше %d байт", fs.maxFileSize)
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, fullPath)
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fs.failed("Error guardando archivo", err)
	}

	relative := fs.RelativePath(filename, folder)
	uploadsTotal.WithLabelValues("saved").Inc()
	fs.logger.Info("Файл сохранён",
		slog.String("path", relative),
		slog.Int64("size", written),
	)
	return relative, nil
}

// DeleteFile удаляет файл по публичному пути. Пустой путь и отсутствующий
// файл — не ошибка.
func (fs *FileStorage) DeleteFile(p string) error {
	if p == "" {
		return nil
	}

	full, ok := fs.resolve(p)
	if !ok {
		return &Error{Message: "Ruta de archivo no válida"}
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		fs.logger.Error("Ошибка удаления файла",
			slog.String("path", p),
			slog.String("error", err.Error()),
		)
		return &Error{Message: "Error eliminando archivo", Err: err}
	}
	fs.logger.Info("Файл удалён", slog.String("path", p))
	return nil
}

// FileExists проверяет существование файла по публичному пути.
func (fs *FileStorage) FileExists(p string) bool {
	if p == "" {
		return false
	}
	full, ok := fs.resolve(p)
	if !ok {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

// FullPath переводит публичный путь в путь на диске. Известные префиксы
// (/storage/, /storage, /{uploadPath}/) отбрасываются.
func (fs *FileStorage) FullPath(p string) string {
	full, _ := fs.resolve(p)
	return full
}

// RelativePath строит публичный путь файла filename в подкаталоге folder.
func (fs *FileStorage) RelativePath(filename, folder string) string {
	if folder == "" {
		folder = DefaultFolder
	}
	return "/" + path.Join(fs.uploadPath, folder, filename)
}

// Handler отдаёт файлы из каталога загрузок. Монтируется на /{uploadPath}/.
func (fs *FileStorage) Handler() http.Handler {
	return http.StripPrefix("/"+fs.uploadPath+"/", http.FileServer(http.Dir(fs.rootPath)))
}

// UploadPath возвращает публичный префикс хранилища.
func (fs *FileStorage) UploadPath() string { return fs.uploadPath }

// resolve возвращает путь на диске и false, если путь выходит за корень.
func (fs *FileStorage) resolve(p string) (string, bool) {
	clean := p
	prefix := "/" + fs.uploadPath + "/"
	switch {
	case hasPrefixFold(p, "/storage/"):
		clean = p[len("/storage/"):]
	case hasPrefixFold(p, "/storage"):
		clean = strings.TrimLeft(p[len("/storage"):], "/")
	case hasPrefixFold(p, prefix):
		clean = p[len(prefix):]
	}

	full := filepath.Join(fs.rootPath, filepath.FromSlash(clean))
	rel, err := filepath.Rel(fs.rootPath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return full, false
	}
	return full, true
}

func (fs *FileStorage) failed(msg string, err error) error {
	uploadsTotal.WithLabelValues("failed").Inc()
	fs.logger.Error("Ошибка записи файла", slog.String("error", err.Error()))
	return &Error{Message: msg, Err: err}
}

// generateFilename генерирует имя файла для хранения.
// Формат: {yyyyMMddHHmmss}_{8 hex}_{имя}{.ext}, пробелы и дефисы в имени → "_".
// Пример: 20260221150405_a1b2c3d4_iron_man.png
func (fs *FileStorage) generateFilename(original string) string {
	ext := filepath.Ext(original)
	name := strings.TrimSuffix(original, ext)
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)

	ts := fs.now().UTC().Format("20060102150405")
	uid := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s%s", ts, uid, name, strings.ToLower(ext))
}

func subtype(contentType string) string {
	if _, sub, ok := strings.Cut(contentType, "/"); ok {
		return sub
	}
	return contentType
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
