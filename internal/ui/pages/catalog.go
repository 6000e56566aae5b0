package pages

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/funkoworld/internal/dto"
	"github.com/bigkaa/funkoworld/internal/ui/auth"
)

// IndexData — данные страницы каталога.
type IndexData struct {
	Nav    Nav
	Flash  *auth.Flash
	Search string
	Page   dto.Page[dto.FunkoResponse]
	Recent []auth.RecentFunko
}

// Index — каталог с поиском по названию, постраничной навигацией
// и списком недавно просмотренных.
func Index(data IndexData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="catalog"><h1>Catálogo</h1>`)
		hw.raw(`<form method="get" action="/funkos" class="search"><input type="text" name="search" placeholder="Buscar por nombre" value="`)
		hw.text(data.Search)
		hw.raw(`"><button type="submit">Buscar</button></form>`)

		if len(data.Page.Items) == 0 {
			hw.raw(`<p class="empty">No se encontraron Funkos.</p>`)
		} else {
			hw.raw(`<table class="funkos"><thead><tr><th></th><th>Nombre</th><th>Categoría</th><th>Precio</th><th></th></tr></thead><tbody>`)
			for _, f := range data.Page.Items {
				hw.raw(`<tr><td><img class="thumb" alt="" src="`)
				hw.url(f.Imagen)
				hw.raw(`"></td><td><a href="/funkos/`)
				hw.int(f.ID)
				hw.raw(`">`)
				hw.text(f.Nombre)
				hw.raw(`</a></td><td>`)
				hw.text(f.Categoria)
				hw.raw(`</td><td>`)
				hw.text(formatPrecio(f.Precio))
				hw.raw(`</td><td>`)
				if data.Nav.IsAdmin {
					hw.raw(`<a href="/funkos/`)
					hw.int(f.ID)
					hw.raw(`/update">Editar</a> <form method="post" class="inline" action="/funkos/`)
					hw.int(f.ID)
					hw.raw(`/delete">`)
					hw.csrfField(data.Nav)
					hw.raw(`<button type="submit" class="danger">Eliminar</button></form>`)
				}
				hw.raw(`</td></tr>`)
			}
			hw.raw(`</tbody></table>`)
		}

		writePager(hw, data.Search, data.Page)
		hw.raw(`</section>`)

		if len(data.Recent) > 0 {
			hw.raw(`<aside class="recent"><h2>Vistos recientemente</h2><ul>`)
			for _, r := range data.Recent {
				hw.raw(`<li><a href="/funkos/`)
				hw.int(r.ID)
				hw.raw(`">`)
				hw.text(r.Nombre)
				hw.raw(`</a></li>`)
			}
			hw.raw(`</ul></aside>`)
		}
		return hw.err
	})
	return Layout("Catálogo", data.Nav, data.Flash, body)
}

// writePager пишет ссылки на соседние страницы с сохранением поиска.
func writePager(hw *htmlWriter, search string, page dto.Page[dto.FunkoResponse]) {
	if page.TotalPages() <= 1 {
		return
	}
	link := func(n int) string {
		q := url.Values{}
		if search != "" {
			q.Set("search", search)
		}
		q.Set("page", strconv.Itoa(n))
		return "/funkos?" + q.Encode()
	}

	hw.raw(`<nav class="pager">`)
	if page.HasPreviousPage() {
		hw.raw(`<a href="`)
		hw.url(link(page.Page - 1))
		hw.raw(`">Anterior</a>`)
	}
	hw.raw(`<span>Página `)
	hw.int(int64(page.Page))
	hw.raw(` de `)
	hw.int(int64(page.TotalPages()))
	hw.raw(`</span>`)
	if page.HasNextPage() {
		hw.raw(`<a href="`)
		hw.url(link(page.Page + 1))
		hw.raw(`">Siguiente</a>`)
	}
	hw.raw(`</nav>`)
}

// DetailsData — данные страницы Funko.
type DetailsData struct {
	Nav   Nav
	Flash *auth.Flash
	Funko dto.FunkoResponse
}

// Details — карточка Funko.
func Details(data DetailsData) templ.Component {
	f := data.Funko
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<article class="details"><img alt="" src="`)
		hw.url(f.Imagen)
		hw.raw(`"><h1>`)
		hw.text(f.Nombre)
		hw.raw(`</h1><dl><dt>Categoría</dt><dd>`)
		hw.text(f.Categoria)
		hw.raw(`</dd><dt>Precio</dt><dd>`)
		hw.text(formatPrecio(f.Precio))
		hw.raw(`</dd></dl>`)
		if data.Nav.IsAdmin {
			hw.raw(`<a href="/funkos/`)
			hw.int(f.ID)
			hw.raw(`/update">Editar</a> <form method="post" class="inline" action="/funkos/`)
			hw.int(f.ID)
			hw.raw(`/delete">`)
			hw.csrfField(data.Nav)
			hw.raw(`<button type="submit" class="danger">Eliminar</button></form>`)
		}
		hw.raw(`<p><a href="/funkos">Volver al catálogo</a></p></article>`)
		return hw.err
	})
	return Layout(f.Nombre, data.Nav, data.Flash, body)
}

func formatPrecio(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + " €"
}
