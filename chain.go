package controller

// Callback is one step of a before or after chain, and also the shape of an
// action body. Returning an error stops the remaining steps and hands the
// error to the registered handlers; returning Context.Halt stops them too,
// but as a finished response rather than a failure.
type Callback func(*Context) error

// callbackChain groups one action's declarations by insertion mode. The
// resolved order is every prepend entry, then every plain entry, then every
// append entry; within a mode, declaration order is preserved and ancestor
// declarations come before the deriving action's own.
type callbackChain struct {
	prepend []Callback
	plain   []Callback
	appends []Callback
}

// flattenChains merges the chains of an ancestry line, oldest ancestor
// first, into a single runnable slice.
func flattenChains(chains []callbackChain) []Callback {
	var prepend, plain, appends []Callback
	for _, ch := range chains {
		prepend = append(prepend, ch.prepend...)
		plain = append(plain, ch.plain...)
		appends = append(appends, ch.appends...)
	}
	out := make([]Callback, 0, len(prepend)+len(plain)+len(appends))
	out = append(out, prepend...)
	out = append(out, plain...)
	out = append(out, appends...)
	return out
}

func runChain(callbacks []Callback, c *Context) error {
	for _, cb := range callbacks {
		if err := cb(c); err != nil {
			return err
		}
	}
	return nil
}
