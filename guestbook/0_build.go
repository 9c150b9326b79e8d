package guestbook

import (
	"bytes"
	"context"
	"html/template"

	"github.com/fulldump/box"
	"github.com/go-json-experiment/json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arnvald/controller"
)

// Build wires the guestbook actions into a box routing tree. Box owns URL
// matching only; each handler bridges the matched parameters into the
// action and plays the finished Response back out.
func Build(g *Guestbook) *box.B {

	b := box.NewBox()

	b.Resource("/entries").
		WithActions(
			box.Get(g.handle(g.list, renderEntries)).WithName("listEntries"),
			box.Post(g.handle(g.create, nil)).WithName("createEntry"),
		)

	b.Resource("/entries/{entryId}").
		WithActions(
			box.Get(g.handle(g.show, nil)).WithName("showEntry"),
			box.Delete(g.handle(g.remove, nil)).WithName("deleteEntry"),
		)

	b.Resource("/login").
		WithActions(
			box.Post(g.handle(g.login, nil)).WithName("login"),
		)

	b.Resource("/logout").
		WithActions(
			box.Post(g.handle(g.logout, nil)).WithName("logout"),
		)

	b.Resource("/archive/{filename}").
		WithActions(
			box.Get(g.handle(g.download, nil)).WithName("downloadArchive"),
		)

	b.Resource("/guestbook").
		WithActions(
			box.Get(g.handle(g.legacy, nil)).WithName("legacyGuestbook"),
		)

	b.Resource("/boom").
		WithActions(
			box.Get(g.handle(g.boom, nil)).WithName("boom"),
		)

	b.Resource("/metrics").
		WithActions(
			box.Get(promhttp.HandlerFor(g.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP).WithName("metrics"),
		)

	return b
}

// handle bridges box and an action. The context handler form is the one box
// feeds its own context, which carries the matched URL parameters next to
// the original request and response writer; plain func(w, r) handlers never
// see them.
func (g *Guestbook) handle(action *controller.Action, render func(*controller.Response) error) box.H {
	return func(ctx context.Context) {
		boxc := box.GetBoxContext(ctx)
		r := controller.SetPathParams(boxc.Request, boxc.Parameters)
		resp, err := action.Call(r)
		if err != nil {
			box.SetError(ctx, err)
			return
		}
		if render != nil {
			if err := render(resp); err != nil {
				box.SetError(ctx, err)
				return
			}
		}
		if err := resp.Write(boxc.Response); err != nil {
			g.logger.Println("write response:", err.Error())
		}
	}
}

var entriesTemplate = template.Must(template.New("entries").Parse(`<!doctype html>
<html>
<body>
<h1>Guestbook</h1>
<ul>
{{- range .}}
<li><strong>{{.Author}}</strong> {{.Message}}</li>
{{- end}}
</ul>
</body>
</html>
`))

// renderEntries is the demo's rendering layer: the list action exposes
// "entries" and the negotiated content type picks the representation. When
// the exposure is missing the invocation halted or was rescued, and the
// body is already decided.
func renderEntries(resp *controller.Response) error {
	entries, ok := resp.Exposures["entries"].([]*Entry)
	if !ok {
		return nil
	}
	if name, _ := controller.FormatForMime(resp.Header.Get("Content-Type")); name == "json" {
		data, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		resp.Body = data
		return nil
	}
	buf := &bytes.Buffer{}
	if err := entriesTemplate.Execute(buf, entries); err != nil {
		return err
	}
	resp.Body = buf.Bytes()
	return nil
}
