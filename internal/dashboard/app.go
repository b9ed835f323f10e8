package dashboard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"dashkit/domain/callback"
	"dashkit/domain/core"
	"dashkit/internal/config"
	"dashkit/internal/dispatch"
	"dashkit/internal/errors"
	"dashkit/internal/handy"
	"dashkit/ports"
)

// App hosts one dashboard: its layout, its callbacks and the files it serves
type App struct {
	cfg    config.DashboardConfig
	router *gin.Engine
	files  *fileRouter
	sink   ports.FaultSink

	mu            sync.RWMutex
	layout        Node
	registrations map[core.RegistrationID]*Registration
	outputs       map[string]string
	order         []*Registration
}

// AppOption customizes an App
type AppOption func(*App)

// WithFaultSink sends handler faults to sink instead of the log
func WithFaultSink(sink ports.FaultSink) AppOption {
	return func(a *App) {
		a.sink = sink
	}
}

// New creates a dashboard app. Static assets are served from cfg.StaticDir below /dashboard.
func New(cfg config.DashboardConfig, opts ...AppOption) *App {
	a := &App{
		cfg:           cfg,
		router:        gin.New(),
		files:         newFileRouter(),
		sink:          dispatch.LogSink{},
		registrations: make(map[core.RegistrationID]*Registration),
		outputs:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.router.Use(gin.Logger(), gin.Recovery())
	if len(cfg.Users) > 0 {
		a.router.Use(gin.BasicAuth(gin.Accounts(cfg.Users)))
	}

	a.mountFiles("/dashboard", cfg.StaticDir)
	a.setupRoutes()
	return a
}

func (a *App) setupRoutes() {
	a.router.GET("/", a.handleIndex)
	a.router.GET("/_dash-layout", a.handleLayout)
	a.router.GET("/_dash-dependencies", a.handleDependencies)
	a.router.POST("/_dash-update-component", a.handleUpdate)
}

func (a *App) mountFiles(prefix, folder string) {
	a.files.mount(prefix, folder)
	h := gin.WrapH(a.files)
	a.router.GET(prefix+"/*filepath", h)
	a.router.HEAD(prefix+"/*filepath", h)
}

// Handler returns the http.Handler serving the app
func (a *App) Handler() http.Handler {
	return a.router
}

// SetLayout sets the component tree rendered at /
func (a *App) SetLayout(layout Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.layout = layout
}

// Download serves the files of folder below /download, creating the folder if needed
func (a *App) Download(folder string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.files.mounted["/download"]; ok {
		return errors.Conflict(fmt.Sprintf("download folder already set to %s", existing))
	}
	if err := handy.Mkdir(folder); err != nil {
		return errors.Wrapf(err, "failed to create download folder %s", folder)
	}
	a.mountFiles("/download", folder)
	log.Printf("[Dashboard] Serving downloads from %s", folder)
	return nil
}

// DoOption customizes one callback registration
type DoOption func(*doOptions)

type doOptions struct {
	runInitial bool
	name       string
}

// RunInitial makes the handler run on the very first invocation as well
func RunInitial() DoOption {
	return func(o *doOptions) {
		o.runInitial = true
	}
}

// Named sets the handler name shown in diagnostics
func Named(name string) DoOption {
	return func(o *doOptions) {
		o.name = name
	}
}

// Do registers handler to, run when any of on changes, with the values of using passed along.
// Its result goes to set; a handler with several outputs returns a []any with one value per output.
func (a *App) Do(on, set []callback.Dependency, to callback.Handler, using []callback.Dependency, opts ...DoOption) (*Registration, error) {
	if len(set) == 0 {
		return nil, errors.InvalidInput("at least one output is required")
	}
	var o doOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = handlerName(to)
	}

	adapter, err := dispatch.NewAdapter(on, using, to, dispatch.Config{
		Name:        o.name,
		SkipInitial: !o.runInitial,
		Debug:       a.cfg.Debug,
		Sink:        a.sink,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to register %s()", o.name)
	}

	keys := make([]string, len(set))
	for i, dep := range set {
		keys[i] = dep.Key()
	}
	reg := &Registration{
		ID:      core.RegistrationID(strings.Join(keys, "|")),
		Outputs: append([]callback.Dependency(nil), set...),
		adapter: adapter,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range keys {
		if owner, ok := a.outputs[key]; ok {
			return nil, errors.Conflict(fmt.Sprintf("output %s is already set by %s()", key, owner))
		}
	}
	for _, key := range keys {
		a.outputs[key] = o.name
	}
	a.registrations[reg.ID] = reg
	a.order = append(a.order, reg)
	return reg, nil
}

// Registrations returns the registered callbacks in registration order
func (a *App) Registrations() []*Registration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Registration(nil), a.order...)
}

func (a *App) registration(id core.RegistrationID) (*Registration, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	reg, ok := a.registrations[id]
	return reg, ok
}

func handlerName(h callback.Handler) string {
	fn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
	if fn == nil {
		return ""
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Registration is one registered callback. Invocations of the same registration are serialized.
type Registration struct {
	ID      core.RegistrationID
	Outputs []callback.Dependency

	mu      sync.Mutex
	adapter *dispatch.Adapter
}

// Name returns the handler name
func (r *Registration) Name() string { return r.adapter.Name() }

// Triggers returns the dependencies whose changes run the handler
func (r *Registration) Triggers() []callback.Dependency { return r.adapter.Triggers() }

// Auxiliary returns the dependencies read when the handler runs
func (r *Registration) Auxiliary() []callback.Dependency { return r.adapter.Auxiliary() }

// Invoke runs the callback with one value per trigger followed by one per auxiliary
func (r *Registration) Invoke(ctx context.Context, args ...any) (callback.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adapter.Invoke(ctx, args...)
}

// HTTP handlers

func (a *App) handleIndex(c *gin.Context) {
	a.mu.RLock()
	layout := a.layout
	a.mu.RUnlock()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(a.cfg.Title))
	b.WriteString("</head>\n<body>\n<div id=\"react-entry-point\">")
	b.WriteString(string(Render(layout)))
	b.WriteString("</div>\n</body>\n</html>\n")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
}

func (a *App) handleLayout(c *gin.Context) {
	a.mu.RLock()
	layout := a.layout
	a.mu.RUnlock()
	c.JSON(http.StatusOK, layout)
}

// DependencyInfo describes one registration to the browser
type DependencyInfo struct {
	Output string                `json:"output"`
	Name   string                `json:"name"`
	Inputs []callback.Dependency `json:"inputs"`
	State  []callback.Dependency `json:"state"`
}

func (a *App) handleDependencies(c *gin.Context) {
	regs := a.Registrations()
	infos := make([]DependencyInfo, len(regs))
	for i, reg := range regs {
		infos[i] = DependencyInfo{
			Output: reg.ID.String(),
			Name:   reg.Name(),
			Inputs: reg.Triggers(),
			State:  reg.Auxiliary(),
		}
	}
	c.JSON(http.StatusOK, infos)
}

// UpdateValue is the current value of one component property
type UpdateValue struct {
	ID       string `json:"id"`
	Property string `json:"property"`
	Value    any    `json:"value"`
}

// UpdateRequest asks for the outputs of one registration given its current inputs
type UpdateRequest struct {
	Output string        `json:"output"`
	Inputs []UpdateValue `json:"inputs"`
	State  []UpdateValue `json:"state"`
}

func (a *App) handleUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, http.StatusBadRequest, errors.Newf(errors.CodeInvalidInput, "invalid update request: %v", err))
		return
	}

	id, err := core.ParseRegistrationID(req.Output)
	if err != nil {
		a.writeError(c, http.StatusBadRequest, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	reg, ok := a.registration(id)
	if !ok {
		a.writeError(c, http.StatusNotFound, errors.NotFound("callback for "+req.Output))
		return
	}

	args, err := alignArgs(reg, req)
	if err != nil {
		a.writeError(c, http.StatusBadRequest, err)
		return
	}

	ctx := WithUser(c.Request.Context(), c.GetString(gin.AuthUserKey))
	result, err := reg.Invoke(ctx, args...)
	if err != nil {
		a.writeError(c, statusFor(err), err)
		return
	}

	switch result.Kind {
	case callback.ResultNoUpdate:
		c.Status(http.StatusNoContent)
	case callback.ResultFault:
		if a.cfg.FaultAsOutput {
			values := make([]any, len(reg.Outputs))
			for i := range values {
				values[i] = result.Fault.Trace
			}
			a.writeResponse(c, reg, values)
			return
		}
		fault := errors.HandlerFault(reg.Name(), stderrors.New(result.Fault.Message))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    fault.Code,
			"id":      result.Fault.ID.String(),
			"message": fault.Error(),
			"trace":   result.Fault.Trace,
		}})
	default:
		values, err := splitOutputs(reg, result.Value)
		if err != nil {
			log.Printf("[Dashboard] %s() returned an unusable result: %v", reg.Name(), err)
			a.writeError(c, http.StatusInternalServerError, err)
			return
		}
		a.writeResponse(c, reg, values)
	}
}

// writeResponse encodes the output values before anything is written, so an
// unencodable value becomes an error response instead of an empty 200
func (a *App) writeResponse(c *gin.Context, reg *Registration, values []any) {
	body, err := json.Marshal(gin.H{"response": responseFor(reg.Outputs, values)})
	if err != nil {
		log.Printf("[Dashboard] %s() returned a value that cannot be encoded: %v", reg.Name(), err)
		a.writeError(c, http.StatusInternalServerError,
			errors.OutputMismatch(fmt.Sprintf("%s() returned a value that cannot be encoded as JSON: %v", reg.Name(), err)))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// alignArgs checks that the request carries exactly the declared dependencies in declared order
func alignArgs(reg *Registration, req UpdateRequest) ([]any, error) {
	triggers, auxiliary := reg.Triggers(), reg.Auxiliary()
	if len(req.Inputs) != len(triggers) || len(req.State) != len(auxiliary) {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"%s() expects %d inputs and %d state values, got %d and %d",
			reg.Name(), len(triggers), len(auxiliary), len(req.Inputs), len(req.State))
	}

	args := make([]any, 0, len(triggers)+len(auxiliary))
	check := func(deps []callback.Dependency, values []UpdateValue) error {
		for i, dep := range deps {
			v := values[i]
			if v.ID != dep.ComponentID || v.Property != dep.Property {
				return errors.Newf(errors.CodeInvalidInput,
					"%s() expects %s at position %d, got %s.%s", reg.Name(), dep.Key(), i, v.ID, v.Property)
			}
			args = append(args, v.Value)
		}
		return nil
	}
	if err := check(triggers, req.Inputs); err != nil {
		return nil, err
	}
	if err := check(auxiliary, req.State); err != nil {
		return nil, err
	}
	return args, nil
}

// splitOutputs maps a handler value onto the declared outputs
func splitOutputs(reg *Registration, value any) ([]any, error) {
	if len(reg.Outputs) == 1 {
		return []any{value}, nil
	}
	values, ok := value.([]any)
	if !ok {
		return nil, errors.OutputMismatch(fmt.Sprintf(
			"%s() has %d outputs and must return a list, got %T", reg.Name(), len(reg.Outputs), value))
	}
	if len(values) != len(reg.Outputs) {
		return nil, errors.OutputMismatch(fmt.Sprintf(
			"%s() has %d outputs but returned %d values", reg.Name(), len(reg.Outputs), len(values)))
	}
	return values, nil
}

func responseFor(outputs []callback.Dependency, values []any) map[string]map[string]any {
	resp := make(map[string]map[string]any)
	for i, dep := range outputs {
		props, ok := resp[dep.ComponentID]
		if !ok {
			props = make(map[string]any)
			resp[dep.ComponentID] = props
		}
		props[dep.Property] = values[i]
	}
	return resp
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": gin.H{
		"code":    errors.GetCode(err),
		"message": err.Error(),
	}})
}
