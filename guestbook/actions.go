package guestbook

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-json-experiment/json"

	"github.com/arnvald/controller"
	"github.com/arnvald/controller/params"
	"github.com/arnvald/controller/sessions"
)

// Guestbook is the demo application: a small message board exercising the
// whole action pipeline over real collaborators.
type Guestbook struct {
	storage *Storage
	metrics *Metrics
	logger  *log.Logger

	base     *controller.Action
	list     *controller.Action
	create   *controller.Action
	show     *controller.Action
	remove   *controller.Action
	login    *controller.Action
	logout   *controller.Action
	download *controller.Action
	legacy   *controller.Action
	boom     *controller.Action
}

type Options struct {
	Storage  *Storage
	Sessions sessions.Store
	Metrics  *Metrics
	Config   controller.Config
}

// New builds the action tree. Every endpoint derives from one base action
// carrying the shared config, session store, metrics callbacks and the
// storage error handlers, so the derived actions only declare what is theirs.
func New(o Options) *Guestbook {
	if o.Storage == nil {
		o.Storage = NewStorage()
	}
	if o.Sessions == nil {
		o.Sessions = sessions.NewMemoryStore()
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics()
	}
	if o.Config.Logger == nil {
		o.Config.Logger = log.Default()
	}

	g := &Guestbook{
		storage: o.Storage,
		metrics: o.Metrics,
		logger:  o.Config.Logger,
	}

	g.base = controller.New("guestbook.base", nil).
		Configure(o.Config).
		Sessions(o.Sessions).
		PrependBefore(g.metrics.begin).
		AppendAfter(g.metrics.finish).
		HandleStatus(ErrEntryNotFound, http.StatusNotFound).
		HandleStatus(ErrInvalidFilter, http.StatusBadRequest).
		HandleFunc(ErrStorage, g.storageFailure)

	g.list = g.base.Derive("guestbook.list").
		Accept("json", "html").
		Format("html").
		Expose("entries").
		Body(g.listEntries)

	g.create = g.base.Derive("guestbook.create").
		Params(params.Schema(createEntryParams{})).
		HandleStatus(ErrDuplicateEntry, http.StatusConflict).
		Body(g.createEntry)

	g.show = g.base.Derive("guestbook.show").
		Expose("entry").
		Body(g.showEntry)

	g.remove = g.base.Derive("guestbook.delete").
		Before(requireUser).
		Body(g.deleteEntry)

	g.login = g.base.Derive("guestbook.login").
		Body(g.loginUser)

	g.logout = g.base.Derive("guestbook.logout").
		Body(g.logoutUser)

	g.download = g.base.Derive("guestbook.download").
		Body(g.downloadArchive)

	g.legacy = g.base.Derive("guestbook.legacy").
		Body(g.redirectLegacy)

	g.boom = g.base.Derive("guestbook.boom").
		Body(g.explode)

	return g
}

type createEntryParams struct {
	ID      string `mapstructure:"id" json:"id"`
	Author  string `mapstructure:"author" json:"author" required:"true"`
	Message string `mapstructure:"message" json:"message" required:"true"`
	Website string `mapstructure:"website" json:"website"`
}

// requireUser gates the destructive endpoints: no session user, no body.
func requireUser(c *controller.Context) error {
	if c.Session().GetString("user") == "" {
		return c.Halt(http.StatusUnauthorized)
	}
	return nil
}

func (g *Guestbook) listEntries(c *controller.Context) error {
	filter := map[string]any{}
	if raw := c.Params().GetString("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidFilter, err.Error())
		}
	}
	limit := 100
	if raw := c.Params().GetString("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: limit must be a non-negative integer", ErrInvalidFilter)
		}
		limit = n
	}
	entries, err := g.storage.List(filter, limit)
	if err != nil {
		return err
	}
	c.Set("entries", entries)
	return nil
}

func (g *Guestbook) createEntry(c *controller.Context) error {
	if !c.Params().Valid() {
		c.Response.Status = http.StatusUnprocessableEntity
		return c.JSON(map[string]any{"errors": c.Params().Errors()})
	}
	entry := &Entry{
		ID:      c.Params().GetString("id"),
		Author:  c.Params().GetString("author"),
		Message: c.Params().GetString("message"),
		Website: c.Params().GetString("website"),
	}
	if err := g.storage.Insert(entry); err != nil {
		return err
	}
	c.Response.Status = http.StatusCreated
	c.Response.Header.Set("Location", "/entries/"+entry.ID)
	return c.JSON(entry)
}

func (g *Guestbook) showEntry(c *controller.Context) error {
	entry, err := g.storage.Get(c.Params().GetString("entryId"))
	if err != nil {
		return err
	}
	c.Set("entry", entry)
	return c.JSON(entry)
}

func (g *Guestbook) deleteEntry(c *controller.Context) error {
	if err := g.storage.Delete(c.Params().GetString("entryId")); err != nil {
		return err
	}
	c.Response.Status = http.StatusNoContent
	return nil
}

func (g *Guestbook) loginUser(c *controller.Context) error {
	user := c.Params().GetString("user")
	if user == "" {
		return c.Halt(http.StatusBadRequest, "user parameter is required")
	}
	c.Session().Set("user", user)
	c.Redirect("/entries")
	return nil
}

func (g *Guestbook) logoutUser(c *controller.Context) error {
	c.Session().Destroy()
	c.Redirect("/entries")
	return nil
}

func (g *Guestbook) downloadArchive(c *controller.Context) error {
	return c.SendFile(c.Params().GetString("filename"))
}

func (g *Guestbook) redirectLegacy(c *controller.Context) error {
	c.Redirect("/entries", http.StatusMovedPermanently)
	return nil
}

func (g *Guestbook) explode(c *controller.Context) error {
	panic("boom")
}

// storageFailure answers anything from the store the specific handlers did
// not claim.
func (g *Guestbook) storageFailure(c *controller.Context, err error) error {
	g.logger.Println("storage failure:", err.Error())
	c.Response.Status = http.StatusInternalServerError
	return c.JSON(map[string]any{
		"error": map[string]any{
			"message":     err.Error(),
			"description": "storage failed",
		},
	})
}
