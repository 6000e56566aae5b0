package pages

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/funkoworld/internal/dto"
)

// FormData — данные формы создания или редактирования Funko.
// Значения полей хранятся строками, чтобы вернуть пользователю введённое.
type FormData struct {
	Nav        Nav
	Title      string
	Action     string
	Nombre     string
	Categoria  string
	Precio     string
	Imagen     string
	Categories []dto.CategoryResponse
	// Errors — ошибки по полям (nombre, categoria, precio)
	Errors map[string]string
	// Message — общая ошибка формы (конфликт, хранилище)
	Message string
}

// FunkoForm — форма Funko с загрузкой изображения.
func FunkoForm(data FormData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="form"><h1>`)
		hw.text(data.Title)
		hw.raw(`</h1>`)
		if data.Message != "" {
			hw.raw(`<div class="flash flash-error">`)
			hw.text(data.Message)
			hw.raw(`</div>`)
		}

		hw.raw(`<form method="post" enctype="multipart/form-data" action="`)
		hw.url(data.Action)
		hw.raw(`">`)
		hw.csrfField(data.Nav)

		hw.raw(`<label>Nombre <input type="text" name="nombre" value="`)
		hw.text(data.Nombre)
		hw.raw(`"></label>`)
		writeFieldError(hw, data.Errors["nombre"])

		hw.raw(`<label>Categoría <select name="categoria"><option value="">--</option>`)
		for _, c := range data.Categories {
			hw.raw(`<option value="`)
			hw.text(c.Nombre)
			hw.raw(`"`)
			if strings.EqualFold(c.Nombre, data.Categoria) {
				hw.raw(` selected`)
			}
			hw.raw(`>`)
			hw.text(c.Nombre)
			hw.raw(`</option>`)
		}
		hw.raw(`</select></label>`)
		writeFieldError(hw, data.Errors["categoria"])

		hw.raw(`<label>Precio <input type="number" step="0.01" name="precio" value="`)
		hw.text(data.Precio)
		hw.raw(`"></label>`)
		writeFieldError(hw, data.Errors["precio"])

		if data.Imagen != "" {
			hw.raw(`<img class="thumb" alt="" src="`)
			hw.url(data.Imagen)
			hw.raw(`">`)
		}
		hw.raw(`<input type="hidden" name="imagen" value="`)
		hw.text(data.Imagen)
		hw.raw(`"><label>Imagen <input type="file" name="file" accept="image/*"></label>`)

		hw.raw(`<button type="submit">Guardar</button> <a href="/funkos">Cancelar</a></form></section>`)
		return hw.err
	})
	return Layout(data.Title, data.Nav, nil, body)
}

func writeFieldError(hw *htmlWriter, msg string) {
	if msg == "" {
		return
	}
	hw.raw(`<span class="field-error">`)
	hw.text(msg)
	hw.raw(`</span>`)
}

// LoginData — данные страницы входа.
type LoginData struct {
	Nav       Nav
	Email     string
	ReturnURL string
	Error     string
}

// Login — форма входа.
func Login(data LoginData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="form login"><h1>Iniciar sesión</h1>`)
		if data.Error != "" {
			hw.raw(`<div class="flash flash-error">`)
			hw.text(data.Error)
			hw.raw(`</div>`)
		}
		hw.raw(`<form method="post" action="/login">`)
		hw.csrfField(data.Nav)
		hw.raw(`<input type="hidden" name="returnUrl" value="`)
		hw.text(data.ReturnURL)
		hw.raw(`"><label>Email <input type="email" name="email" value="`)
		hw.text(data.Email)
		hw.raw(`"></label><label>Contraseña <input type="password" name="password"></label>`)
		hw.raw(`<button type="submit">Entrar</button></form></section>`)
		return hw.err
	})
	return Layout("Iniciar sesión", data.Nav, nil, body)
}
