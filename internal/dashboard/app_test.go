package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dashkit/domain/callback"
	"dashkit/internal/config"
	"dashkit/internal/errors"
	"dashkit/internal/handy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockFaultSink struct {
	mock.Mock
}

func (m *MockFaultSink) RecordFault(ctx context.Context, fault *callback.Fault) error {
	args := m.Called(ctx, fault)
	return args.Error(0)
}

func newTestApp(t *testing.T, cfg config.DashboardConfig, opts ...AppOption) *App {
	t.Helper()
	if cfg.StaticDir == "" {
		cfg.StaticDir = t.TempDir()
	}
	if cfg.Title == "" {
		cfg.Title = "Test"
	}
	return New(cfg, opts...)
}

func post(t *testing.T, app *App, req UpdateRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/_dash-update-component", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	app.Handler().ServeHTTP(w, r)
	return w
}

func get(app *App, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func echoChanges(_ context.Context, in *callback.Inputs) (any, error) {
	return map[string]any{"name": in.String("name"), "changes": GetChanges(in)}, nil
}

func nameRequest(value string) UpdateRequest {
	return UpdateRequest{
		Output: "out.children",
		Inputs: []UpdateValue{{ID: "name", Property: "value", Value: value}},
	}
}

func TestUpdate_SkipsInitialThenReportsChanges(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	_, err := app.Do(On("name"), SetContent("out"), echoChanges, nil)
	require.NoError(t, err)

	w := post(t, app, nameRequest("a"))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = post(t, app, nameRequest("b"))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	out := body["response"].(map[string]any)["out"].(map[string]any)["children"].(map[string]any)
	assert.Equal(t, "b", out["name"])
	assert.Equal(t, []any{"name", "name.value"}, out["changes"])

	w = post(t, app, nameRequest("b"))
	require.Equal(t, http.StatusOK, w.Code)
	out = decode(t, w)["response"].(map[string]any)["out"].(map[string]any)["children"].(map[string]any)
	assert.Equal(t, []any{}, out["changes"])
}

func TestUpdate_RunInitial(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	_, err := app.Do(On("name"), SetContent("out"), echoChanges, nil, RunInitial())
	require.NoError(t, err)

	w := post(t, app, nameRequest("a"))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)["response"].(map[string]any)["out"].(map[string]any)["children"].(map[string]any)
	assert.Equal(t, []any{}, out["changes"])
}

func TestUpdate_MultipleOutputs(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	handler := func(_ context.Context, in *callback.Inputs) (any, error) {
		return []any{in.Value("n"), ClassHidden}, nil
	}
	reg, err := app.Do(On("n"), Many(SetValue("copy"), SetClass("copy")), handler, nil, RunInitial())
	require.NoError(t, err)
	assert.Equal(t, "copy.value|copy.className", reg.ID.String())

	w := post(t, app, UpdateRequest{
		Output: reg.ID.String(),
		Inputs: []UpdateValue{{ID: "n", Property: "value", Value: 3}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	copyProps := decode(t, w)["response"].(map[string]any)["copy"].(map[string]any)
	assert.Equal(t, float64(3), copyProps["value"])
	assert.Equal(t, ClassHidden, copyProps["className"])
}

func TestUpdate_OutputMismatch(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	_, err := app.Do(On("n"), Many(SetValue("a"), SetValue("b")), ToVal("single"), nil, RunInitial())
	require.NoError(t, err)

	w := post(t, app, UpdateRequest{
		Output: "a.value|b.value",
		Inputs: []UpdateValue{{ID: "n", Property: "value", Value: 1}},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.CodeOutputMismatch, decode(t, w)["error"].(map[string]any)["code"])
}

func TestUpdate_UnencodableValue(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	_, err := app.Do(On("name"), SetContent("out"), ToVal(math.NaN()), nil, RunInitial(), Named("nan"))
	require.NoError(t, err)

	w := post(t, app, nameRequest("a"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotEmpty(t, w.Body.Bytes())
	body := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, errors.CodeOutputMismatch, body["code"])
	assert.Contains(t, body["message"], "nan() returned a value that cannot be encoded")
}

func TestUpdate_SingleRowSummary(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	describe := func(context.Context, *callback.Inputs) (any, error) {
		f := handy.NewFrame("v")
		if err := f.Append(1.0); err != nil {
			return nil, err
		}
		return handy.Describe(f), nil
	}
	_, err := app.Do(On("name"), SetContent("out"), describe, nil, RunInitial())
	require.NoError(t, err)

	w := post(t, app, nameRequest("a"))
	require.Equal(t, http.StatusOK, w.Code)
	summaries := decode(t, w)["response"].(map[string]any)["out"].(map[string]any)["children"].([]any)
	require.Len(t, summaries, 1)
	summary := summaries[0].(map[string]any)
	assert.Equal(t, float64(1), summary["mean"])
	assert.Nil(t, summary["std"])
}

func TestUpdate_FaultIsReportedOutOfBand(t *testing.T) {
	sink := new(MockFaultSink)
	sink.On("RecordFault", mock.Anything, mock.AnythingOfType("*callback.Fault")).Return(nil).Once()

	app := newTestApp(t, config.DashboardConfig{}, WithFaultSink(sink))
	failing := func(context.Context, *callback.Inputs) (any, error) {
		return nil, stderrors.New("boom")
	}
	_, err := app.Do(On("name"), SetContent("out"), failing, nil, RunInitial(), Named("failing"))
	require.NoError(t, err)

	w := post(t, app, nameRequest("a"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	fault := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, errors.CodeHandlerFault, fault["code"])
	assert.Equal(t, "failing() failed: boom", fault["message"])
	assert.Contains(t, fault["trace"], "failing() EXCEPTION:")
	assert.NotEmpty(t, fault["id"])
	sink.AssertExpectations(t)
}

func TestUpdate_FaultAsOutput(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{FaultAsOutput: true})
	panicking := func(context.Context, *callback.Inputs) (any, error) {
		panic("kaput")
	}
	_, err := app.Do(On("name"), Many(SetContent("a"), SetContent("b")), panicking, nil, RunInitial(), Named("panicking"))
	require.NoError(t, err)

	w := post(t, app, UpdateRequest{
		Output: "a.children|b.children",
		Inputs: []UpdateValue{{ID: "name", Property: "value", Value: "x"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)["response"].(map[string]any)
	for _, id := range []string{"a", "b"} {
		trace := resp[id].(map[string]any)["children"].(string)
		assert.True(t, strings.HasPrefix(trace, "panicking() EXCEPTION:"))
		assert.Contains(t, trace, "kaput")
	}
}

func TestUpdate_RejectsMisalignedRequest(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	_, err := app.Do(On("name"), SetContent("out"), echoChanges, ValueOf("extra"))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  UpdateRequest
	}{
		{"missing state", nameRequest("a")},
		{"wrong order", UpdateRequest{
			Output: "out.children",
			Inputs: []UpdateValue{{ID: "extra", Property: "value", Value: 1}},
			State:  []UpdateValue{{ID: "name", Property: "value", Value: "a"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, app, tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, errors.CodeInvalidInput, decode(t, w)["error"].(map[string]any)["code"])
		})
	}

	// rejected requests must not consume the initial skip
	w := post(t, app, UpdateRequest{
		Output: "out.children",
		Inputs: []UpdateValue{{ID: "name", Property: "value", Value: "a"}},
		State:  []UpdateValue{{ID: "extra", Property: "value", Value: 1}},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUpdate_UnknownOutput(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	w := post(t, app, nameRequest("a"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post(t, app, UpdateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDo_Validation(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})

	_, err := app.Do(On("a"), nil, echoChanges, nil)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	_, err = app.Do(nil, SetValue("b"), echoChanges, nil)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	_, err = app.Do(On("a"), SetValue("b"), echoChanges, nil)
	require.NoError(t, err)
	_, err = app.Do(On("c"), Many(SetClass("x"), SetValue("b")), echoChanges, nil)
	assert.True(t, errors.HasCode(err, errors.CodeConflict))
	assert.Len(t, app.Registrations(), 1)
}

func TestDo_DefaultName(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	reg, err := app.Do(On("a"), SetValue("b"), echoChanges, nil)
	require.NoError(t, err)
	assert.Equal(t, "dashboard.echoChanges", reg.Name())
}

func TestDependencies(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{})
	_, err := app.Do(On("a"), SetValue("b"), echoChanges, DateOf("d"), Named("copy"))
	require.NoError(t, err)

	w := get(app, "/_dash-dependencies")
	require.Equal(t, http.StatusOK, w.Code)
	var infos []DependencyInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "b.value", infos[0].Output)
	assert.Equal(t, "copy", infos[0].Name)
	assert.Equal(t, On("a"), infos[0].Inputs)
	assert.Equal(t, DateOf("d"), infos[0].State)
}

func TestIndexAndLayout(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{Title: "Sales <2024>"})
	app.SetLayout(Page("Sales", nil, Div("greeting", Text("hi & bye"))))

	w := get(app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Sales &lt;2024&gt;</title>")
	assert.Contains(t, w.Body.String(), `<div id="greeting">hi &amp; bye</div>`)

	w = get(app, "/_dash-layout")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"greeting"`)
}

func TestStaticAndDownloadFiles(t *testing.T) {
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "dashboard.css"), []byte("body{}"), 0o644))
	app := newTestApp(t, config.DashboardConfig{StaticDir: static})

	w := get(app, "/dashboard/dashboard.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	w = get(app, "/dashboard/")
	assert.Equal(t, http.StatusNotFound, w.Code)

	downloads := filepath.Join(t.TempDir(), "out")
	require.NoError(t, app.Download(downloads))
	require.NoError(t, os.WriteFile(filepath.Join(downloads, "report.csv"), []byte("a,b\n"), 0o644))

	w = get(app, "/download/report.csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b\n", w.Body.String())

	err := app.Download(t.TempDir())
	assert.True(t, errors.HasCode(err, errors.CodeConflict))
}

func TestBasicAuth(t *testing.T) {
	app := newTestApp(t, config.DashboardConfig{Users: map[string]string{"ann": "secret"}})
	handler := func(ctx context.Context, _ *callback.Inputs) (any, error) {
		return GetUser(ctx), nil
	}
	_, err := app.Do(On("name"), SetContent("out"), handler, nil, RunInitial())
	require.NoError(t, err)

	w := get(app, "/")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body, _ := json.Marshal(nameRequest("a"))
	r := httptest.NewRequest(http.MethodPost, "/_dash-update-component", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.SetBasicAuth("ann", "secret")
	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann", decode(t, w)["response"].(map[string]any)["out"].(map[string]any)["children"])
}
