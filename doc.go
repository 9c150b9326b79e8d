// Package controller implements the request side of an action based web
// layer: one Action per endpoint, each invocation running a before chain,
// the body and an after chain on a private Context, with halting, error
// handler resolution and content negotiation built in.
//
// Routing stays outside. An Action is a plain http.Handler, so any router
// that can mount one can drive it:
//
//	show := controller.New("entries.show", func(c *controller.Context) error {
//		entry, err := load(c.Params().GetString("id"))
//		if err != nil {
//			return err
//		}
//		return c.JSON(entry)
//	}).
//		Before(authenticate).
//		HandleStatus(ErrNotFound, 404).
//		Accept("json", "html")
//
// Declarations are open until the first request; from then on the action is
// sealed and safe for any number of concurrent invocations.
package controller
