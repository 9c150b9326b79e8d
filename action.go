package controller

import (
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/arnvald/controller/params"
	"github.com/arnvald/controller/sessions"
)

// Action is the descriptor of one endpoint: its body, callback chains, error
// handlers, format rules and collaborators. Declaration methods may be
// chained freely until the first request arrives; that request seals the
// action, and from then on it is immutable and serves any number of
// concurrent invocations, each on its own Context.
type Action struct {
	name   string
	parent *Action

	body        Callback
	before      callbackChain
	after       callbackChain
	handlers    []handlerEntry
	accepted    []string
	format      string
	charset     string
	exposures   []string
	validator   params.Validator
	sessions    sessions.Store
	sessionOpts sessions.Options
	config      Config
	configSet   bool

	sealOnce sync.Once
	run      atomic.Pointer[compiled]
}

// compiled is the sealed, merged form of an action's ancestry line. It is
// built once and only ever read afterwards, which is what makes concurrent
// invocations safe without locks.
type compiled struct {
	body        Callback
	before      []Callback
	after       []Callback
	handlers    []handlerEntry
	accepted    []string
	format      string
	charset     string
	exposures   []string
	validator   params.Validator
	sessions    sessions.Store
	sessionOpts sessions.Options
	config      Config
}

// New declares an action. A nil body is only useful on actions that exist as
// bases for Derive; invoking one without a body panics with a *ConfigError.
func New(name string, body Callback) *Action {
	return &Action{name: name, body: body}
}

// Derive declares a child action that inherits this action's chains,
// handlers, formats, exposures and collaborators, extending rather than
// replacing them. The parent's declarations are captured when the child
// seals; the parent itself stays open for its own requests.
func (a *Action) Derive(name string) *Action {
	return &Action{name: name, parent: a}
}

// Name returns the name the action was declared with.
func (a *Action) Name() string {
	return a.name
}

func (a *Action) mutable() *Action {
	if a.run.Load() != nil {
		panic(configErrorf("action %s: declaration is closed after the first request", a.name))
	}
	return a
}

// Body sets or replaces the endpoint body.
func (a *Action) Body(body Callback) *Action {
	a.mutable().body = body
	return a
}

// Before appends callbacks to the before chain in the plain insertion mode.
func (a *Action) Before(callbacks ...Callback) *Action {
	a.mutable().before.plain = append(a.before.plain, callbacks...)
	return a
}

// PrependBefore queues callbacks ahead of every plain before entry,
// whatever the declaration order of the two groups.
func (a *Action) PrependBefore(callbacks ...Callback) *Action {
	a.mutable().before.prepend = append(a.before.prepend, callbacks...)
	return a
}

// AppendBefore queues callbacks behind every plain before entry.
func (a *Action) AppendBefore(callbacks ...Callback) *Action {
	a.mutable().before.appends = append(a.before.appends, callbacks...)
	return a
}

// After appends callbacks to the after chain in the plain insertion mode.
func (a *Action) After(callbacks ...Callback) *Action {
	a.mutable().after.plain = append(a.after.plain, callbacks...)
	return a
}

// PrependAfter queues callbacks ahead of every plain after entry.
func (a *Action) PrependAfter(callbacks ...Callback) *Action {
	a.mutable().after.prepend = append(a.after.prepend, callbacks...)
	return a
}

// AppendAfter queues callbacks behind every plain after entry.
func (a *Action) AppendAfter(callbacks ...Callback) *Action {
	a.mutable().after.appends = append(a.after.appends, callbacks...)
	return a
}

// Handle registers a handler for target and everything that wraps it,
// matched with errors.Is semantics link by link. The nearest match in an
// error's unwrap chain wins over anything it wraps; between handlers
// matching the same link, the most recently declared wins.
func (a *Action) Handle(target error, h Handler) *Action {
	if target == nil {
		panic(configErrorf("action %s: Handle requires a target error", a.name))
	}
	a.mutable().handlers = append(a.handlers, handlerEntry{
		match:   sentinelMatcher(target),
		handler: h,
	})
	return a
}

// HandleStatus is Handle with a status-only handler: the mapped status and
// its reason phrase body, no user code.
func (a *Action) HandleStatus(target error, status int) *Action {
	return a.Handle(target, Handler{Status: status})
}

// HandleFunc is Handle with a function-only handler.
func (a *Action) HandleFunc(target error, fn HandlerFunc) *Action {
	return a.Handle(target, Handler{Func: fn})
}

// HandleMatch registers a handler guarded by a predicate instead of a
// sentinel, the way to catch whole error kinds; see OfType for the common
// concrete-type predicate. The predicate sees one link of the unwrap chain
// at a time and must not unwrap further itself; resolution already walks
// the chain outside-in.
func (a *Action) HandleMatch(match func(error) bool, h Handler) *Action {
	if match == nil {
		panic(configErrorf("action %s: HandleMatch requires a predicate", a.name))
	}
	a.mutable().handlers = append(a.handlers, handlerEntry{
		match:   match,
		handler: h,
	})
	return a
}

// Accept restricts the formats this action will negotiate. Requests whose
// Accept header matches none of them fall back to the configured default
// format; an explicit SetFormat outside the list panics. Every name must be
// registered beforehand.
func (a *Action) Accept(names ...string) *Action {
	a.mutable()
	for _, name := range names {
		if _, ok := formats.mimeFor(name); !ok {
			panic(configErrorf("action %s: unknown format %q", a.name, name))
		}
		if !contains(a.accepted, name) {
			a.accepted = append(a.accepted, name)
		}
	}
	return a
}

// Format sets the action's own default format, consulted after Accept
// negotiation and before the configured global default.
func (a *Action) Format(name string) *Action {
	a.mutable()
	if _, ok := formats.mimeFor(name); !ok {
		panic(configErrorf("action %s: unknown format %q", a.name, name))
	}
	a.format = name
	return a
}

// Charset sets the action's own default charset.
func (a *Action) Charset(charset string) *Action {
	a.mutable().charset = charset
	return a
}

// Expose declares names whose Context values are copied onto the finished
// response for the rendering layer. Names are declared once per ancestry
// line; redeclaring one panics with a *ConfigError.
func (a *Action) Expose(names ...string) *Action {
	a.mutable()
	for _, name := range names {
		for p := a; p != nil; p = p.parent {
			if contains(p.exposures, name) {
				panic(configErrorf("action %s: exposure %q already declared", a.name, name))
			}
		}
		a.exposures = append(a.exposures, name)
	}
	return a
}

// Params installs the parameter validator; it runs once per request, before
// the before chain, and its result is readable through Context.Params. An
// invalid result never halts on its own, that policy belongs to the action.
func (a *Action) Params(v params.Validator) *Action {
	a.mutable().validator = v
	return a
}

// Sessions installs the session store and, optionally, cookie options.
func (a *Action) Sessions(store sessions.Store, opts ...sessions.Options) *Action {
	a.mutable().sessions = store
	if len(opts) > 0 {
		a.sessionOpts = opts[0]
	}
	return a
}

// Configure replaces the action's configuration. Deriving actions inherit
// the nearest configured ancestor's Config wholesale.
func (a *Action) Configure(cfg Config) *Action {
	a.mutable()
	a.config = cfg
	a.configSet = true
	return a
}

func (a *Action) lineage() []*Action {
	var line []*Action
	for p := a; p != nil; p = p.parent {
		line = append(line, p)
	}
	for i, j := 0, len(line)-1; i < j; i, j = i+1, j-1 {
		line[i], line[j] = line[j], line[i]
	}
	return line
}

func (a *Action) compile() *compiled {
	run := &compiled{}
	var before, after []callbackChain
	for _, anc := range a.lineage() {
		before = append(before, anc.before)
		after = append(after, anc.after)
		run.handlers = append(run.handlers, anc.handlers...)
		run.exposures = append(run.exposures, anc.exposures...)
		for _, name := range anc.accepted {
			if !contains(run.accepted, name) {
				run.accepted = append(run.accepted, name)
			}
		}
		if anc.body != nil {
			run.body = anc.body
		}
		if anc.format != "" {
			run.format = anc.format
		}
		if anc.charset != "" {
			run.charset = anc.charset
		}
		if anc.validator != nil {
			run.validator = anc.validator
		}
		if anc.sessions != nil {
			run.sessions = anc.sessions
			run.sessionOpts = anc.sessionOpts
		}
		if anc.configSet {
			run.config = anc.config
		}
	}
	run.before = flattenChains(before)
	run.after = flattenChains(after)
	run.config = run.config.normalized()
	run.sessionOpts = run.sessionOpts.Normalized()
	if run.body == nil {
		panic(configErrorf("action %s: no body declared", a.name))
	}
	return run
}

func (a *Action) compiled() *compiled {
	a.sealOnce.Do(func() {
		a.run.Store(a.compile())
	})
	run := a.run.Load()
	if run == nil {
		// compile panicked on the first request; every later request is as
		// broken as that one was.
		panic(configErrorf("action %s: declaration failed on the first request", a.name))
	}
	return run
}

// Call runs the full pipeline for one request and returns the normalized
// response. A nil error means the response stands, halts and handled
// failures included. A non-nil error is an unhandled failure: handling was
// disabled for the invocation, or a handler itself failed. The caller owns
// the generic 500 for those. An unhandled failure that began as a panic
// leaves Call as that same panic.
func (a *Action) Call(r *http.Request) (resp *Response, err error) {
	run := a.compiled()
	c := newContext(a, run, r)
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if _, ok := v.(*ConfigError); ok {
			panic(v)
		}
		if c.rescued {
			// a handler blew up while rescuing; one boundary, no retries
			panic(v)
		}
		var cause error
		if t, ok := v.(*thrown); ok {
			cause = &UncaughtThrowError{Tag: t.tag, Value: t.value}
		} else {
			cause = &PanicError{Value: v, Stack: debug.Stack()}
		}
		resp, err = a.conclude(c, cause)
		if p, ok := err.(*PanicError); ok {
			// unhandled and born a panic: keep propagating it as one
			panic(p.Value)
		}
	}()
	if cause := a.perform(c, run); cause != nil {
		return a.conclude(c, cause)
	}
	return c.finish(), nil
}

// perform runs validation, before chain, body and after chain in order. A
// halt at any step skips everything up to finalization; its status and body
// land on the response here. Real errors are returned for conclude to map.
func (a *Action) perform(c *Context, run *compiled) error {
	if run.validator != nil {
		c.params.Validate(run.validator)
	}
	if err := runChain(run.before, c); err != nil {
		if h, ok := asHalt(err); ok {
			c.applyHalt(h)
			return nil
		}
		return err
	}
	if err := run.body(c); err != nil {
		if h, ok := asHalt(err); ok {
			c.applyHalt(h)
			return nil
		}
		return err
	}
	if err := runChain(run.after, c); err != nil {
		if h, ok := asHalt(err); ok {
			c.applyHalt(h)
			return nil
		}
		return err
	}
	return nil
}

// conclude maps cause through the handler table and finalizes the response.
// With handling disabled the cause escapes exactly as raised.
func (a *Action) conclude(c *Context, cause error) (*Response, error) {
	if !c.handleErrors {
		return nil, cause
	}
	h, ok := resolveHandler(c.run.handlers, cause)
	if !ok {
		h = Handler{Status: http.StatusInternalServerError}
	}
	if h.Status != 0 {
		c.Response.Status = h.Status
		c.Response.Body = []byte(http.StatusText(h.Status))
		c.Response.closeStream()
	}
	if h.Func != nil {
		c.rescued = true
		if err := h.Func(c, cause); err != nil {
			if hs, ok := asHalt(err); ok {
				c.applyHalt(hs)
			} else {
				return nil, err
			}
		}
	}
	return c.finish(), nil
}

// ServeHTTP adapts the action to net/http. Unhandled failures surface as
// panics so whatever recovery middleware wraps the mux owns the generic 500;
// mount one above when errors may propagate.
func (a *Action) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := a.Call(r)
	if err != nil {
		panic(err)
	}
	if err := resp.Write(w); err != nil {
		a.compiled().config.Logger.Printf("controller: %s: write response: %v", a.name, err)
	}
}
