// Package params merges the parameter sources of an HTTP request into one
// map and runs a pluggable validation schema over it. Validation never
// rejects a request by itself; actions read Valid and Errors and decide
// their own policy.
package params

import (
	"mime"
	"net/http"

	"github.com/go-json-experiment/json"
)

// maxMultipartMemory bounds the in-memory part of a multipart form, same
// default net/http uses.
const maxMultipartMemory = 32 << 20

// Params is the merged parameter map of one request. Route parameters win
// over body fields, body fields win over the query string.
type Params struct {
	raw    map[string]any
	result *Result
}

// Validator is the schema collaborator. It receives the raw merged map and
// reports coerced values and what failed; it must not mutate the input.
type Validator interface {
	Validate(raw map[string]any) *Result
}

// Result of one validation pass.
type Result struct {
	// Values holds the coerced parameters, keyed like the raw map.
	Values map[string]any

	// Errors lists what failed, one message per field problem. Empty means
	// the parameters passed.
	Errors []string
}

// New merges the request's query string, body and route parameters. Bodies
// are read according to Content-Type: url-encoded and multipart forms, and
// JSON objects; anything else leaves the body alone. Malformed bodies are
// ignored here, a schema is the place to complain about missing fields.
func New(r *http.Request, route map[string]string) *Params {
	raw := map[string]any{}
	for k, vs := range r.URL.Query() {
		raw[k] = scalar(vs)
	}
	switch contentType(r) {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err == nil {
			for k, vs := range r.PostForm {
				raw[k] = scalar(vs)
			}
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err == nil {
			for k, vs := range r.PostForm {
				raw[k] = scalar(vs)
			}
		}
	case "application/json":
		var body map[string]any
		if r.Body != nil && json.UnmarshalRead(r.Body, &body) == nil {
			for k, v := range body {
				raw[k] = v
			}
		}
	}
	for k, v := range route {
		raw[k] = v
	}
	return &Params{raw: raw}
}

func contentType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func scalar(vs []string) any {
	if len(vs) == 1 {
		return vs[0]
	}
	return vs
}

// Validate runs the schema and keeps its result for the accessors below.
func (p *Params) Validate(v Validator) *Result {
	p.result = v.Validate(p.raw)
	return p.result
}

// Raw returns the merged map before any validation.
func (p *Params) Raw() map[string]any {
	return p.raw
}

// Valid reports whether validation passed. Without a schema there is
// nothing to fail, so it reports true.
func (p *Params) Valid() bool {
	return p.result == nil || len(p.result.Errors) == 0
}

// Errors returns the messages of the last validation pass.
func (p *Params) Errors() []string {
	if p.result == nil {
		return nil
	}
	return p.result.Errors
}

// Get returns a parameter, preferring the validator's coerced value over
// the raw one.
func (p *Params) Get(name string) any {
	if p.result != nil && p.result.Values != nil {
		if v, ok := p.result.Values[name]; ok {
			return v
		}
	}
	return p.raw[name]
}

// GetString returns a parameter as a string, or "" when it is missing or
// not a string.
func (p *Params) GetString(name string) string {
	s, _ := p.Get(name).(string)
	return s
}
