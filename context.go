package controller

import (
	"net/http"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/arnvald/controller/params"
	"github.com/arnvald/controller/sessions"
)

// Context is the state of one invocation, handed to every callback, the body
// and the error handlers. It belongs to exactly one request and is never
// reused, so no locking is needed on it.
type Context struct {
	Request  *http.Request
	Response *Response

	action *Action
	run    *compiled
	params *params.Params

	values  map[string]any
	format  string
	charset string

	handleErrors bool
	rescued      bool

	session *sessions.Session
	cookies []*http.Cookie
}

func newContext(a *Action, run *compiled, r *http.Request) *Context {
	c := &Context{
		Request:      r,
		Response:     newResponse(run.config.DefaultHeaders),
		action:       a,
		run:          run,
		values:       map[string]any{},
		handleErrors: !run.config.PropagateErrors,
	}
	c.params = params.New(r, PathParams(r))
	return c
}

// ActionName returns the name the action was declared with, mainly for
// logging and metrics inside callbacks.
func (c *Context) ActionName() string {
	return c.action.name
}

// Params returns the merged request parameters, already validated when the
// action declared a schema.
func (c *Context) Params() *params.Params {
	return c.params
}

// Set stores a named value on the invocation. Values whose names the action
// declared with Expose are copied into Response.Exposures when the
// invocation finishes; the rest stay private to the callbacks and body.
func (c *Context) Set(name string, value any) {
	c.values[name] = value
}

// Value returns a named value stored with Set, or nil.
func (c *Context) Value(name string) any {
	return c.values[name]
}

// Halt builds the early-termination signal: return it from a callback or the
// body to stop the invocation with the given status. Without a body the
// response carries the standard reason phrase for the status.
func (c *Context) Halt(status int, body ...string) error {
	h := &haltSignal{status: status}
	if len(body) > 0 {
		h.body = []byte(body[0])
	}
	return h
}

// SetFormat fixes the response format for this invocation, skipping Accept
// negotiation. The name must be registered, and must sit inside the action's
// accepted list when one was declared; both mistakes panic with a
// *ConfigError at the call site.
func (c *Context) SetFormat(name string) {
	if _, ok := formats.mimeFor(name); !ok {
		panic(configErrorf("action %s: unknown format %q", c.action.name, name))
	}
	if len(c.run.accepted) > 0 && !contains(c.run.accepted, name) {
		panic(configErrorf("action %s: format %q is outside the accepted formats %v", c.action.name, name, c.run.accepted))
	}
	c.format = name
}

// Format returns the format set explicitly during this invocation, or "".
// Negotiation against the Accept header happens once, after the after chain,
// and is visible on the finished response's Content-Type only.
func (c *Context) Format() string {
	return c.format
}

// SetCharset fixes the charset stamped next to the negotiated content type.
func (c *Context) SetCharset(charset string) {
	c.charset = charset
}

// Charset returns the charset set explicitly during this invocation, or "".
func (c *Context) Charset() string {
	return c.charset
}

// DisableErrorHandling makes every error of this single invocation escape
// Call unhandled, registered handlers included. Diagnostic environments use
// it to hand failures to an outer reporting layer unmodified.
func (c *Context) DisableErrorHandling() {
	c.handleErrors = false
}

// JSON fixes the format to json and buffers v, marshaled, as the body.
func (c *Context) JSON(v any) error {
	c.SetFormat("json")
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Response.Body = data
	return nil
}

// Cookie returns a request cookie value.
func (c *Context) Cookie(name string) (string, bool) {
	ck, err := c.Request.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

// Cookies returns every cookie the request carried.
func (c *Context) Cookies() []*http.Cookie {
	return c.Request.Cookies()
}

// SetCookie queues a cookie; all queued cookies become Set-Cookie headers
// when the invocation finishes, after the after chain has run.
func (c *Context) SetCookie(cookie *http.Cookie) {
	c.cookies = append(c.cookies, cookie)
}

// Session returns this invocation's session, loading it from the action's
// store on first use. Calling it on an action declared without a store is a
// configuration mistake and panics with a *ConfigError.
func (c *Context) Session() *sessions.Session {
	if c.run.sessions == nil {
		panic(configErrorf("action %s: Session called without a session store", c.action.name))
	}
	if c.session == nil {
		id, _ := c.Cookie(c.run.sessionOpts.Cookie)
		session, err := sessions.Open(c.Request.Context(), c.run.sessions, id)
		if err != nil {
			c.run.config.Logger.Printf("controller: %s: session open: %v", c.action.name, err)
		}
		c.session = session
	}
	return c.session
}

func (c *Context) applyHalt(h *haltSignal) {
	c.Response.Status = h.status
	if h.keep {
		return
	}
	c.Response.closeStream()
	if h.body != nil {
		c.Response.Body = h.body
	} else {
		c.Response.Body = []byte(http.StatusText(h.status))
	}
}

// finish runs the finalization sequence: content type, session commit,
// cookie headers, exposure snapshot, body stripping for bodiless replies.
// It runs exactly once per invocation, halted or rescued ones included.
func (c *Context) finish() *Response {
	r := c.Response
	if r.Header.Get("Content-Type") == "" {
		name := c.resolveFormat()
		mt, ok := formats.mimeFor(name)
		if !ok {
			panic(configErrorf("action %s: default format %q is not registered", c.action.name, name))
		}
		r.Header.Set("Content-Type", mt+"; charset="+c.resolveCharset())
	}
	c.commitSession()
	for _, ck := range c.cookies {
		r.Header.Add("Set-Cookie", ck.String())
	}
	if len(c.run.exposures) > 0 {
		r.Exposures = map[string]any{}
		for _, name := range c.run.exposures {
			if v, ok := c.values[name]; ok {
				r.Exposures[name] = v
			}
		}
	}
	switch {
	case c.Request.Method == http.MethodHead:
		r.closeStream()
		r.Body = nil
	case r.Status == http.StatusNoContent || r.Status == http.StatusNotModified:
		r.closeStream()
		r.Body = nil
		r.Header.Del("Content-Length")
	}
	return r
}

func (c *Context) resolveFormat() string {
	if c.format != "" {
		return c.format
	}
	if f := negotiate(c.Request.Header.Get("Accept"), c.run.accepted); f != "" {
		return f
	}
	if c.run.format != "" {
		return c.run.format
	}
	return c.run.config.DefaultFormat
}

func (c *Context) resolveCharset() string {
	if c.charset != "" {
		return c.charset
	}
	if c.run.charset != "" {
		return c.run.charset
	}
	return c.run.config.DefaultCharset
}

// commitSession writes the session back and queues its cookie. Store
// failures are logged, never turned into a late error: the response is
// already decided by the time the session commits.
func (c *Context) commitSession() {
	if c.session == nil {
		return
	}
	opts := c.run.sessionOpts
	err := c.session.Commit(c.Request.Context(), c.run.sessions, opts.TTL)
	if err != nil {
		c.run.config.Logger.Printf("controller: %s: session commit: %v", c.action.name, err)
		return
	}
	switch {
	case c.session.Destroyed():
		if c.session.ID() == "" {
			return
		}
		c.cookies = append(c.cookies, &http.Cookie{
			Name:     opts.Cookie,
			Value:    "",
			Path:     opts.Path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   opts.Secure,
		})
	case c.session.Dirty():
		cookie := &http.Cookie{
			Name:     opts.Cookie,
			Value:    c.session.ID(),
			Path:     opts.Path,
			HttpOnly: true,
			Secure:   opts.Secure,
		}
		if opts.TTL > 0 {
			cookie.MaxAge = int(opts.TTL / time.Second)
		}
		c.cookies = append(c.cookies, cookie)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
