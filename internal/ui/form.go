package ui

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/i18n"
	"github.com/mcules/student-success/internal/outcome"
	"github.com/mcules/student-success/internal/predict"
	"github.com/mcules/student-success/internal/report"
	"github.com/mcules/student-success/internal/student"
)

type formOption struct {
	Value    string
	Label    string
	Selected bool
}

type formField struct {
	Name    string
	Label   string
	Help    string
	Kind    string
	Value   string
	Min     string
	Max     string
	Step    string
	Error   string
	Options []formOption
}

type formGroup struct {
	Title  string
	Fields []formField
}

type formData struct {
	Groups  []formGroup
	Invalid bool
	Failed  bool
}

// buildForm lays the catalog out in its three groups, filled with values and
// annotated with per-field errors.
func buildForm(p i18n.Printer, fields []student.FieldSpec, values, errs map[string]string) []formGroup {
	groups := make([]formGroup, 0, len(student.Groups))
	for _, g := range student.Groups {
		group := formGroup{Title: p.T("group." + string(g))}
		for _, f := range fields {
			if f.Group != g {
				continue
			}
			value, ok := values[f.Name]
			if !ok {
				value = student.FormatValue(f, f.Default)
			}
			ff := formField{
				Name:  f.Name,
				Label: p.Field(f.Name, f.Label),
				Help:  f.Help,
				Kind:  string(f.Kind),
				Value: value,
				Min:   student.FormatValue(f, f.Min),
				Max:   student.FormatValue(f, f.Max),
				Step:  "1",
				Error: errs[f.Name],
			}
			if f.Kind == student.KindFloat {
				ff.Step = "0.1"
			}
			for _, o := range f.Options {
				ff.Options = append(ff.Options, formOption{Value: o.Value, Label: p.Option(o.Label), Selected: o.Value == value})
			}
			group.Fields = append(group.Fields, ff)
		}
		groups = append(groups, group)
	}
	return groups
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	if !h.rt.Ready() {
		h.missing(w, r)
		return
	}
	d, err := h.rt.Dataset()
	if err != nil {
		h.missing(w, r)
		return
	}
	vm := h.newViewModel(r, "title")
	vm.Data = formData{Groups: buildForm(vm.T, student.FieldsWith(d.Options()), nil, nil)}
	h.render(w, http.StatusOK, "form.html", vm)
}

func formValues(r *http.Request) map[string]string {
	out := make(map[string]string)
	for _, f := range student.Fields() {
		if v, ok := r.PostForm[f.Name]; ok && len(v) > 0 {
			out[f.Name] = v[0]
		}
	}
	return out
}

type resultData struct {
	Result          predict.Result
	Headline        string
	Recommendations []string
	Values          map[string]string
	Stored          bool
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	if !h.rt.Ready() {
		h.missing(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, err)
		return
	}
	d, err := h.rt.Dataset()
	if err != nil {
		h.missing(w, r)
		return
	}
	values := formValues(r)
	fields := student.FieldsWith(d.Options())

	rec, err := student.Parse(values, d.Options())
	var verrs student.ValidationErrors
	if errors.As(err, &verrs) {
		vm := h.newViewModel(r, "title")
		vm.Data = formData{Groups: buildForm(vm.T, fields, values, verrs.ByField()), Invalid: true}
		h.render(w, http.StatusUnprocessableEntity, "form.html", vm)
		return
	}
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := h.svc.Predict(r.Context(), rec)
	if err != nil {
		h.log.Warn("form prediction failed", zap.Error(err))
		vm := h.newViewModel(r, "title")
		vm.Data = formData{Groups: buildForm(vm.T, fields, values, nil), Failed: true}
		h.render(w, http.StatusInternalServerError, "form.html", vm)
		return
	}
	h.showResult(w, r, res, h.svc.HistoryEnabled())
}

func (h *Handler) showResult(w http.ResponseWriter, r *http.Request, res predict.Result, stored bool) {
	vm := h.newViewModel(r, "result")
	vm.Data = resultData{
		Result:          res,
		Headline:        vm.T.Headline(res.Outcome),
		Recommendations: vm.T.Recommendations(res.Outcome),
		Values:          res.Input.Values(),
		Stored:          stored,
	}
	h.render(w, http.StatusOK, "result.html", vm)
}

func (h *Handler) prediction(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) || errors.Is(err, predict.ErrHistoryDisabled) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.showResult(w, r, res, true)
}

func writeReport(w http.ResponseWriter, rec student.Record, kind outcome.Kind) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.TextFileName+`"`)
	_, _ = io.WriteString(w, report.Text(rec, kind))
}

func (h *Handler) storedReport(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) || errors.Is(err, predict.ErrHistoryDisabled) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeReport(w, res.Input, res.Outcome)
}

var reportKinds = map[outcome.Kind]bool{
	outcome.Dropout: true, outcome.Enrolled: true, outcome.Graduate: true,
	outcome.AtRisk: true, outcome.NotAtRisk: true,
}

// downloadReport renders the report from the values echoed back by the
// result page, so it works without a history store.
func (h *Handler) downloadReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	kind := outcome.Kind(r.PostForm.Get("outcome"))
	if !reportKinds[kind] {
		http.Error(w, "unknown outcome", http.StatusBadRequest)
		return
	}
	var opts student.Options
	if d, err := h.rt.Dataset(); err == nil {
		opts = d.Options()
	}
	rec, err := student.Parse(formValues(r), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeReport(w, rec, kind)
}
