// Пакет static — встроенные статические ресурсы веб-интерфейса (CSS).
// Файлы встраиваются в бинарник через //go:embed и раздаются на /static/.
package static

import (
	"embed"
	"net/http"
)

//go:embed css/site.css
var content embed.FS

// FileSystem возвращает http.FileSystem для запросов к /static/*.
// Файлы доступны по путям вида /static/css/site.css.
func FileSystem() http.FileSystem {
	return http.FS(content)
}
