package ui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/student-success/internal/activity"
	"github.com/mcules/student-success/internal/auth"
	"github.com/mcules/student-success/internal/dataset"
	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/model"
	"github.com/mcules/student-success/internal/outcome"
	"github.com/mcules/student-success/internal/predict"
	"github.com/mcules/student-success/internal/state"
	"github.com/mcules/student-success/internal/student"
)

const fixtureCSV = `Course,Mothers_qualification,Fathers_qualification,Mothers_occupation,Fathers_occupation,Target
9119,1,1,5,5,Graduate
171,19,3,9,7,Dropout
`

type fakeRuntime struct {
	m *model.Model
	d *dataset.Dataset
}

func (f fakeRuntime) Model() (*model.Model, error) {
	if f.m == nil {
		return nil, state.ErrNotReady
	}
	return f.m, nil
}

func (f fakeRuntime) Dataset() (*dataset.Dataset, error) {
	if f.d == nil {
		return nil, state.ErrNotReady
	}
	return f.d, nil
}

func (f fakeRuntime) Ready() bool { return f.m != nil && f.d != nil }

func (f fakeRuntime) Resources() []state.Resource {
	res := []state.Resource{
		{Name: state.ResourceModel, Path: "modelku.json", State: state.StateReady},
		{Name: state.ResourceDataset, Path: "data_agum.csv", State: state.StateReady},
	}
	if f.m == nil {
		res[0].State, res[0].Error = state.StateError, "open modelku.json: no such file or directory"
	}
	if f.d == nil {
		res[1].State, res[1].Error = state.StateError, "open data_agum.csv: no such file or directory"
	}
	return res
}

func readyRuntime(t *testing.T) fakeRuntime {
	t.Helper()
	d, err := dataset.ReadCSV(strings.NewReader(fixtureCSV))
	require.NoError(t, err)
	m, err := model.New(model.Artifact{
		Format:   model.Format,
		Name:     "ui",
		Version:  "1",
		Task:     outcome.TaskMulticlass,
		Classes:  []string{"Dropout", "Enrolled", "Graduate"},
		Features: features.Schema{NFeatures: 2, Columns: []string{student.ColAdmissionGrade, student.ColGender}},
		Estimator: model.Estimator{Kind: model.KindLogistic, Logistic: &model.LogisticParams{
			Coef:      [][]float64{{-0.1, 0}, {0, 0}, {0.1, 0}},
			Intercept: []float64{12, 0, -12},
		}},
	})
	require.NoError(t, err)
	return fakeRuntime{m: m, d: d}
}

type setup struct {
	rt          fakeRuntime
	history     bool
	adminPass   string
	activityLog *activity.Log
}

func newServer(t *testing.T, s setup) *httptest.Server {
	t.Helper()
	var popts predict.Options
	if s.history {
		store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		popts.History = store
	}
	popts.Activity = s.activityLog

	var acfg auth.Config
	if s.adminPass != "" {
		hash, err := auth.HashPassword(s.adminPass)
		require.NoError(t, err)
		acfg.AdminPasswordHash = hash
	}
	h, err := New(s.rt, predict.NewService(s.rt, popts), Options{
		Auth:     auth.New(acfg, nil),
		Activity: s.activityLog,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func getURL(t *testing.T, u string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, u, nil)
	require.NoError(t, err)
	return get(t, req)
}

func postForm(t *testing.T, u string, v url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, u, strings.NewReader(v.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return get(t, req)
}

func TestForm(t *testing.T) {
	srv := newServer(t, setup{rt: readyRuntime(t)})
	resp, body := getURL(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Academic Information")
	assert.Contains(t, body, "Personal Information")
	assert.Contains(t, body, "Academic Performance")
	assert.Contains(t, body, `<option value="9119"`)
	assert.Contains(t, body, `name="Admission_grade" type="number" value="120.0"`)
	assert.NotContains(t, body, "/history", "admin links hidden when admin is disabled")
}

func TestForm_MissingFiles(t *testing.T) {
	srv := newServer(t, setup{rt: fakeRuntime{}})
	resp, body := getURL(t, srv.URL+"/")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "Required files are missing or cannot be loaded.")
	assert.Contains(t, body, "modelku.json")
	assert.Contains(t, body, "data_agum.csv")
}

func TestForm_Indonesian(t *testing.T) {
	srv := newServer(t, setup{rt: readyRuntime(t)})
	resp, body := getURL(t, srv.URL+"/?lang=id")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Prediksi Keberhasilan Mahasiswa")
	assert.Contains(t, body, "Program Studi")

	var lang string
	for _, c := range resp.Cookies() {
		if c.Name == "lang" {
			lang = c.Value
		}
	}
	assert.Equal(t, "id", lang)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9")
	_, body = get(t, req)
	assert.Contains(t, body, "Informasi Akademik")
}

func TestPredict_ShowsResult(t *testing.T) {
	act := activity.New(10)
	srv := newServer(t, setup{rt: readyRuntime(t), activityLog: act})

	resp, body := postForm(t, srv.URL+"/predict", url.Values{"Admission_grade": {"150"}, "Course": {"171"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "The student is predicted to Graduate")
	assert.Contains(t, body, "Continue excellent performance")
	assert.Contains(t, body, `action="/report"`)
	assert.Contains(t, body, `name="Course" value="171"`)
	assert.Contains(t, body, "The model does not use these form fields:")
	assert.Contains(t, body, "Mothers_qualification")
	assert.Equal(t, 1, act.Count(activity.EventPrediction))
}

func TestPredict_ValidationRerendersForm(t *testing.T) {
	srv := newServer(t, setup{rt: readyRuntime(t)})
	resp, body := postForm(t, srv.URL+"/predict", url.Values{"Admission_grade": {"500"}, "Age_at_enrollment": {"12"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please correct the highlighted fields.")
	assert.Contains(t, body, `value="500"`)
	assert.Equal(t, 2, strings.Count(body, `class="field-error"`))
}

func TestPredict_StoredResultLinksReport(t *testing.T) {
	srv := newServer(t, setup{rt: readyRuntime(t), history: true})
	_, body := postForm(t, srv.URL+"/predict", url.Values{"Admission_grade": {"95"}})
	assert.Contains(t, body, "The student is predicted to Dropout")

	i := strings.Index(body, `href="/predictions/`)
	require.Positive(t, i)
	link := body[i+len(`href="`):]
	link = link[:strings.Index(link, `"`)]
	require.True(t, strings.HasSuffix(link, "/report"))

	resp, report := getURL(t, srv.URL+link)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "student_prediction_report.txt")
	assert.Contains(t, report, "Prediction: Dropout")

	resp, page := getURL(t, srv.URL+strings.TrimSuffix(link, "/report"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "The student is predicted to Dropout")

	resp, _ = getURL(t, srv.URL+"/predictions/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadReport_FromForm(t *testing.T) {
	srv := newServer(t, setup{rt: readyRuntime(t)})
	v := url.Values{"Admission_grade": {"150"}, "Course": {"9119"}, "outcome": {"graduate"}}
	resp, body := postForm(t, srv.URL+"/report", v)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "Prediction: Graduate"))

	v.Set("outcome", "transferred")
	resp, _ = postForm(t, srv.URL+"/report", v)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSample(t *testing.T) {
	srv := newServer(t, setup{rt: readyRuntime(t)})
	resp, body := getURL(t, srv.URL+"/sample?rows=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<th>Mothers_qualification</th>")
	assert.Contains(t, body, "<td>9119</td>")
	assert.NotContains(t, body, "<td>171</td>")
}

func TestAdminPages(t *testing.T) {
	srv := newServer(t, setup{rt: fakeRuntime{}})
	resp, _ := getURL(t, srv.URL+"/status")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "disabled without a password hash")

	act := activity.New(10)
	srv = newServer(t, setup{rt: readyRuntime(t), history: true, adminPass: "s3cret", activityLog: act})
	resp, _ = getURL(t, srv.URL+"/status")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	postForm(t, srv.URL+"/predict", url.Values{"Admission_grade": {"150"}})

	authed := func(path string) (*http.Response, string) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		req.SetBasicAuth("admin", "s3cret")
		return get(t, req)
	}

	resp, body := authed("/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ui@1")
	assert.Contains(t, body, "strict")
	assert.Contains(t, body, "prediction")

	resp, body = authed("/history")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Graduate")
	assert.Contains(t, body, "/history/export")

	resp, body = authed("/history/export")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "prediction_history.xlsx")
	assert.True(t, strings.HasPrefix(body, "PK"), "xlsx is a zip archive")
}
