// Package ui serves the HTML prediction form and the admin pages.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mcules/student-success/internal/activity"
	"github.com/mcules/student-success/internal/auth"
	"github.com/mcules/student-success/internal/dataset"
	"github.com/mcules/student-success/internal/i18n"
	"github.com/mcules/student-success/internal/logging"
	"github.com/mcules/student-success/internal/model"
	"github.com/mcules/student-success/internal/predict"
	"github.com/mcules/student-success/internal/state"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"form.html", "result.html", "sample.html", "history.html", "status.html", "missing.html", "error.html"}

// Runtime exposes the loaded files and their status.
type Runtime interface {
	Model() (*model.Model, error)
	Dataset() (*dataset.Dataset, error)
	Ready() bool
	Resources() []state.Resource
}

type Options struct {
	Auth         *auth.Authenticator
	Activity     *activity.Log
	SampleRows   int
	HistoryLimit int
	Logger       *zap.Logger
}

type Handler struct {
	rt           Runtime
	svc          *predict.Service
	auth         *auth.Authenticator
	activity     *activity.Log
	sampleRows   int
	historyLimit int
	log          *zap.Logger
	pages        map[string]*template.Template
}

func New(rt Runtime, svc *predict.Service, opts Options) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	h := &Handler{
		rt:           rt,
		svc:          svc,
		auth:         opts.Auth,
		activity:     opts.Activity,
		sampleRows:   opts.SampleRows,
		historyLimit: opts.HistoryLimit,
		log:          opts.Logger,
		pages:        pages,
	}
	if h.auth == nil {
		h.auth = auth.New(auth.Config{}, nil)
	}
	if h.sampleRows <= 0 {
		h.sampleRows = 5
	}
	if h.historyLimit <= 0 {
		h.historyLimit = 50
	}
	h.log = logging.OrNop(h.log)
	return h, nil
}

var funcs = template.FuncMap{
	"pct":  func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
	"ts":   func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
	"ms":   func(v float64) string { return fmt.Sprintf("%.2f ms", v) },
	"join": strings.Join,
}

// parsePages pairs the layout with every page so each page can define its
// own "content" block.
func parsePages() (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if out[name], err = clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return out, nil
}

// Routes returns the UI router. Admin pages sit behind Basic auth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(rememberLanguage)

	r.Get("/", h.form)
	r.Post("/predict", h.predict)
	r.Post("/report", h.downloadReport)
	r.Get("/predictions/{id}", h.prediction)
	r.Get("/predictions/{id}/report", h.storedReport)
	r.Get("/sample", h.sample)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireAdmin)
		r.Get("/history", h.history)
		r.Get("/history/export", h.export)
		r.Get("/status", h.status)
	})
	return r
}

// rememberLanguage stores an explicit ?lang= choice in a cookie.
func rememberLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("lang"); q != "" {
			tag := i18n.Match(q, "", "")
			http.SetCookie(w, &http.Cookie{
				Name:     i18n.CookieName,
				Value:    i18n.NewPrinter(tag).Code(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   365 * 24 * 3600,
			})
		}
		next.ServeHTTP(w, r)
	})
}

type viewModel struct {
	T     i18n.Printer
	Title string
	Path  string
	Admin bool
	Data  any
}

func (h *Handler) newViewModel(r *http.Request, titleKey string) viewModel {
	p := i18n.NewPrinter(i18n.FromRequest(r))
	return viewModel{
		T:     p,
		Title: p.T(titleKey),
		Path:  r.URL.Path,
		Admin: h.auth.AdminEnabled(),
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, vm viewModel) {
	tpl, ok := h.pages[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tpl.ExecuteTemplate(w, "layout.html", vm); err != nil {
		h.log.Error("render page failed", zap.String("page", page), zap.Error(err))
	}
}

// renderError shows the generic error page.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.log.Error("ui request failed", zap.String("path", r.URL.Path), zap.Error(err))
	h.render(w, status, "error.html", h.newViewModel(r, "title"))
}

// missing renders the page shown until the model and dataset are loaded.
func (h *Handler) missing(w http.ResponseWriter, r *http.Request) {
	vm := h.newViewModel(r, "missing.title")
	vm.Data = h.rt.Resources()
	h.render(w, http.StatusServiceUnavailable, "missing.html", vm)
}
