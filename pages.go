package mathhub

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/pkg/errors"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/internal/version"
	"github.com/mathhub-edu/mathhub/view"
)

//go:embed web/templates/*.html
var templateFS embed.FS

//go:embed web/static
var staticFS embed.FS

// Formula is an entry of the formula reference
type Formula struct {
	Name string
	Expr string
}

var formulas = []Formula{
	{"Quadratic formula", "x = (-b ± √(b² - 4ac)) / 2a"},
	{"Pythagorean theorem", "a² + b² = c²"},
	{"Area of a circle", "A = πr²"},
	{"Slope", "m = (y₂ - y₁) / (x₂ - x₁)"},
	{"Distance", "d = √((x₂ - x₁)² + (y₂ - y₁)²)"},
	{"Compound interest", "A = P(1 + r/n)^(nt)"},
}

// Game is an entry of the games list
type Game struct {
	Name string
	URL  string
}

var games = []Game{
	{"2048", "https://play2048.co/"},
	{"Slope", "https://slopegame.io/"},
	{"Chess", "https://lichess.org/"},
	{"Tetris", "https://tetris.com/play-tetris"},
}

type pages struct {
	index      *template.Template
	standalone *template.Template
	secret     *template.Template
}

type indexData struct {
	View       view.View
	Renderable bool
	Auth       gate.AuthState
	Formulas   []Formula
	Games      []Game
	Version    string
}

func loadPages() (*pages, error) {
	parse := func(name string) (*template.Template, error) {
		t, err := template.ParseFS(templateFS, "web/templates/layout.html", "web/templates/"+name)
		return t, errors.Wrapf(err, "could not parse template '%s'", name)
	}
	p := &pages{}
	var err error
	if p.index, err = parse("index.html"); err != nil {
		return nil, err
	}
	if p.standalone, err = parse("standalone.html"); err != nil {
		return nil, err
	}
	if p.secret, err = parse("secret.html"); err != nil {
		return nil, err
	}
	return p, nil
}

func render(c *fiber.Ctx, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrap(err, "could not render page")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (s *Server) registerPages() {
	static, _ := fs.Sub(staticFS, "web/static")
	s.server.Use(
		"/static", filesystem.New(
			filesystem.Config{
				Root:   http.FS(static),
				MaxAge: 3600,
			},
		),
	)

	s.server.Get(
		"/", func(c *fiber.Ctx) error {
			bs, v := s.visit(c)
			st := s.state(bs, v, false)
			return render(
				c, s.pages.index, indexData{
					View:       st.View,
					Renderable: st.Renderable,
					Auth:       st.Auth,
					Formulas:   formulas,
					Games:      games,
					Version:    version.VERSION,
				},
			)
		},
	)
	s.server.Get(
		"/standalone", func(c *fiber.Ctx) error {
			return render(c, s.pages.standalone, nil)
		},
	)
	s.server.Get(
		secretPagePath, func(c *fiber.Ctx) error {
			return render(c, s.pages.secret, nil)
		},
	)
}
