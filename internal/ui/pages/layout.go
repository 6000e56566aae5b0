// Пакет pages — HTML-страницы веб-интерфейса каталога в виде templ-компонентов.
package pages

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/funkoworld/internal/ui/auth"
)

// Nav — данные шапки страницы: текущий пользователь и CSRF-токен для форм.
type Nav struct {
	Email     string
	Name      string
	IsAdmin   bool
	CSRFToken string
}

// NavFromSession строит Nav из сессии. nil-сессия даёт анонимную шапку.
func NavFromSession(s *auth.SessionData) Nav {
	if s == nil {
		return Nav{}
	}
	return Nav{Email: s.Email, Name: s.Name, IsAdmin: s.IsAdmin(), CSRFToken: s.CSRFToken}
}

// htmlWriter пишет HTML и запоминает первую ошибку записи.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

// text пишет экранированный текст или значение атрибута.
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// url пишет безопасный URL, экранированный для атрибута.
func (hw *htmlWriter) url(s string) {
	hw.raw(templ.EscapeString(string(templ.URL(s))))
}

func (hw *htmlWriter) int(n int64) {
	hw.raw(strconv.FormatInt(n, 10))
}

func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err == nil && c != nil {
		hw.err = c.Render(ctx, hw.w)
	}
}

// csrfField пишет скрытое поле с CSRF-токеном.
func (hw *htmlWriter) csrfField(nav Nav) {
	hw.raw(`<input type="hidden" name="csrf_token" value="`)
	hw.text(nav.CSRFToken)
	hw.raw(`">`)
}

// Layout — общий каркас страницы с шапкой и flash-сообщением.
func Layout(title string, nav Nav, flash *auth.Flash, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="es"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(title)
		hw.raw(` - FunkoWorld</title><link rel="stylesheet" href="/static/css/site.css"></head><body>`)

		hw.raw(`<header class="topbar"><a class="brand" href="/funkos">FunkoWorld</a><nav>`)
		if nav.IsAdmin {
			hw.raw(`<a href="/funkos/create">Nuevo Funko</a>`)
		}
		if nav.Email != "" {
			hw.raw(`<span class="user">`)
			hw.text(nav.Email)
			hw.raw(`</span><form method="post" action="/logout" class="inline">`)
			hw.csrfField(nav)
			hw.raw(`<button type="submit">Cerrar sesión</button></form>`)
		} else {
			hw.raw(`<a href="/login">Iniciar sesión</a>`)
		}
		hw.raw(`</nav></header><main>`)

		if flash != nil {
			hw.raw(`<div class="flash flash-`)
			hw.text(flash.Kind)
			hw.raw(`">`)
			hw.text(flash.Message)
			hw.raw(`</div>`)
		}
		hw.component(ctx, body)
		hw.raw(`</main></body></html>`)
		return hw.err
	})
}

// ErrorPage — страница ошибки (404, 403, 500).
func ErrorPage(nav Nav, status int, message string) templ.Component {
	title := "Error " + strconv.Itoa(status)
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="error"><h1>`)
		hw.text(title)
		hw.raw(`</h1><p>`)
		hw.text(message)
		hw.raw(`</p><a href="/funkos">Volver al catálogo</a></section>`)
		return hw.err
	})
	return Layout(title, nav, nil, body)
}
