package controller

import (
	"net/http/httptest"
	"net/url"
	"testing"

	. "github.com/fulldump/biff"
)

func TestRedirectDefaultsTo302(t *testing.T) {

	a := New("test.redirect", func(c *Context) error {
		c.Redirect("/entries")
		return nil
	})

	resp, err := a.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(resp.Status, 302)
	AssertEqual(resp.Header.Get("Location"), "/entries")
}

func TestRedirectWithExplicitStatus(t *testing.T) {

	a := New("test.redirect", func(c *Context) error {
		c.Redirect("/entries", 301)
		return nil
	})

	resp, err := a.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(resp.Status, 301)
	AssertEqual(resp.Header.Get("Location"), "/entries")
}

func TestRedirectDoesNotHalt(t *testing.T) {

	a := New("test.redirect", func(c *Context) error {
		c.Redirect("/entries")
		c.Response.Header.Set("X-After-Redirect", "ran")
		return nil
	})

	resp, err := a.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(resp.Status, 302)
	AssertEqual(resp.Header.Get("X-After-Redirect"), "ran")
}

func TestRedirectFlattensStringLikeValues(t *testing.T) {

	type route string

	for _, location := range []any{
		"/plain",
		[]byte("/plain"),
		route("/plain"),
		&url.URL{Path: "/plain"},
	} {
		a := New("test.redirect", func(c *Context) error {
			c.Redirect(location)
			return nil
		})

		resp, err := a.Call(httptest.NewRequest("GET", "/", nil))

		AssertNil(err)
		AssertEqual(resp.Header.Get("Location"), "/plain")
	}
}

func TestRedirectRejectsNonString(t *testing.T) {

	a := New("test.redirect", func(c *Context) error {
		c.Redirect(42)
		return nil
	})

	e := catchConfigError(func() {
		a.Call(httptest.NewRequest("GET", "/", nil))
	})

	AssertNotNil(e)
}
