// Package api serves the JSON prediction API under /api/v1.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mcules/student-success/internal/dataset"
	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/httpx"
	"github.com/mcules/student-success/internal/logging"
	"github.com/mcules/student-success/internal/model"
	"github.com/mcules/student-success/internal/predict"
	"github.com/mcules/student-success/internal/report"
	"github.com/mcules/student-success/internal/state"
	"github.com/mcules/student-success/internal/student"
)

const maxBodyBytes = 64 << 10

// Runtime exposes the loaded model and dataset.
type Runtime interface {
	Model() (*model.Model, error)
	Dataset() (*dataset.Dataset, error)
}

type Handler struct {
	rt  Runtime
	svc *predict.Service
	log *zap.Logger
}

func New(rt Runtime, svc *predict.Service, log *zap.Logger) *Handler {
	log = logging.OrNop(log)
	return &Handler{rt: rt, svc: svc, log: log}
}

// Routes returns the router mounted at /api/v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/predict", h.predict)
	r.Get("/schema", h.schema)
	r.Get("/predictions/{id}", h.prediction)
	r.Get("/predictions/{id}/report", h.report)
	return r
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	values, err := student.DecodeValues(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, err.Error(), nil)
		return
	}

	d, err := h.rt.Dataset()
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	rec, err := student.Parse(values, d.Options())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	res, err := h.svc.Predict(r.Context(), rec)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

type schemaResponse struct {
	Fields       []student.FieldSpec `json:"fields"`
	Derived      []string            `json:"derived"`
	Alignment    features.Mode       `json:"alignment"`
	Model        *modelInfo          `json:"model,omitempty"`
	DatasetReady bool                `json:"dataset_ready"`
}

type modelInfo struct {
	Version  string          `json:"version"`
	Kind     string          `json:"kind"`
	Task     string          `json:"task"`
	Classes  []string        `json:"classes"`
	Features features.Schema `json:"features"`
}

func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	resp := schemaResponse{
		Fields:    student.Fields(),
		Derived:   []string{student.ColRatio1stSem, student.ColRatio2ndSem},
		Alignment: h.svc.Mode(),
	}
	if d, err := h.rt.Dataset(); err == nil {
		resp.Fields = student.FieldsWith(d.Options())
		resp.DatasetReady = true
	}
	if m, err := h.rt.Model(); err == nil {
		resp.Model = &modelInfo{
			Version:  m.Version(),
			Kind:     m.Kind(),
			Task:     string(m.Task()),
			Classes:  m.Classes(),
			Features: m.Schema(),
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) prediction(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.TextFileName+`"`)
	_, _ = io.WriteString(w, report.Text(res.Input, res.Outcome))
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var verrs student.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeValidation, "invalid student data", verrs)
	case errors.Is(err, state.ErrNotReady):
		httpx.WriteError(w, http.StatusServiceUnavailable, httpx.CodeNotReady, "model or dataset is not loaded", nil)
	case errors.Is(err, history.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "prediction not found", nil)
	case errors.Is(err, predict.ErrHistoryDisabled):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, err.Error(), nil)
	case errors.Is(err, features.ErrWidthMismatch),
		errors.Is(err, features.ErrMissingColumn),
		errors.Is(err, features.ErrUnknownCategory),
		errors.Is(err, features.ErrSchemaUnnamed):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeModelInput, err.Error(), nil)
	default:
		h.log.Error("api request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", httpx.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error", nil)
	}
}
