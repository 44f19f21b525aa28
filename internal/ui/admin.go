package ui

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mcules/student-success/internal/activity"
	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/metrics"
	"github.com/mcules/student-success/internal/predict"
	"github.com/mcules/student-success/internal/report"
	"github.com/mcules/student-success/internal/state"
)

type sampleData struct {
	Header []string
	Rows   [][]string
	Total  int
}

func (h *Handler) sample(w http.ResponseWriter, r *http.Request) {
	d, err := h.rt.Dataset()
	if err != nil {
		h.missing(w, r)
		return
	}
	n := h.sampleRows
	if v, err := strconv.Atoi(r.URL.Query().Get("rows")); err == nil && v > 0 && v <= 100 {
		n = v
	}
	vm := h.newViewModel(r, "sample")
	vm.Data = sampleData{Header: d.Header, Rows: d.Head(n), Total: d.Len()}
	h.render(w, http.StatusOK, "sample.html", vm)
}

type historyRow struct {
	history.Entry
	Confidence float64
}

type historyData struct {
	Enabled bool
	Rows    []historyRow
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	vm := h.newViewModel(r, "history")
	data := historyData{Enabled: h.svc.HistoryEnabled()}
	if data.Enabled {
		entries, err := h.svc.Recent(r.Context(), h.historyLimit)
		if err != nil {
			h.renderError(w, r, http.StatusInternalServerError, err)
			return
		}
		for _, e := range entries {
			row := historyRow{Entry: e}
			if e.Class >= 0 && e.Class < len(e.Probabilities) {
				row.Confidence = e.Probabilities[e.Class]
			}
			data.Rows = append(data.Rows, row)
		}
	}
	vm.Data = data
	h.render(w, http.StatusOK, "history.html", vm)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Recent(r.Context(), 0)
	if errors.Is(err, predict.ErrHistoryDisabled) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	data, err := report.XLSX(entries)
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.XLSXFileName+`"`)
	_, _ = w.Write(data)
}

type modelStatus struct {
	Version string
	Kind    string
	Task    string
	Width   int
	Named   bool
	Classes []string
}

type statusData struct {
	Ready     bool
	Resources []state.Resource
	Model     *modelStatus
	Alignment features.Mode
	Latency   []metrics.Entry
	Activity  []activity.Event
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	data := statusData{
		Ready:     h.rt.Ready(),
		Resources: h.rt.Resources(),
		Alignment: h.svc.Mode(),
		Latency:   h.svc.Latency().Snapshot(),
		Activity:  h.activity.List(),
	}
	if m, err := h.rt.Model(); err == nil {
		s := m.Schema()
		data.Model = &modelStatus{
			Version: m.Version(),
			Kind:    m.Kind(),
			Task:    string(m.Task()),
			Width:   s.NFeatures,
			Named:   s.Named(),
			Classes: m.Classes(),
		}
	}
	vm := h.newViewModel(r, "status")
	vm.Data = data
	h.render(w, http.StatusOK, "status.html", vm)
}
