package controller

import (
	"io"
	"net/http"
)

// Response is the normalized result of one invocation: a status, headers, a
// body as bytes or as a stream, and the frozen exposure values for whatever
// rendering layer sits on top.
type Response struct {
	Status int
	Header http.Header

	// Body holds a buffered body. It is ignored when Stream is set.
	Body []byte

	// Stream, when set, is the body. Write consumes and closes it, so a
	// Response with a stream can be written exactly once.
	Stream io.ReadCloser

	// Exposures carries the action's declared exposure values as they were
	// when the invocation finished. Undeclared context values never appear
	// here.
	Exposures map[string]any
}

func newResponse(defaults map[string]string) *Response {
	header := http.Header{}
	for k, v := range defaults {
		header.Set(k, v)
	}
	return &Response{
		Status: http.StatusOK,
		Header: header,
	}
}

func (r *Response) closeStream() {
	if r.Stream != nil {
		r.Stream.Close()
		r.Stream = nil
	}
}

// Write plays the response back through a standard ResponseWriter.
func (r *Response) Write(w http.ResponseWriter) error {
	dst := w.Header()
	for k, vs := range r.Header {
		dst[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(r.Status)
	if r.Stream != nil {
		defer r.Stream.Close()
		_, err := io.Copy(w, r.Stream)
		return err
	}
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
