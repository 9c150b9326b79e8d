package controller

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SendFile streams a file from the configured public directory and halts
// with 200. The path is relative to Config.PublicDir and must stay inside
// it: absolute paths, traversals and symlinks escaping the root all halt
// with 404, indistinguishable from a missing file, so probing the sandbox
// reveals nothing. Return its result from the body or callback.
func (c *Context) SendFile(path string) error {
	root := c.run.config.PublicDir
	if root == "" {
		panic(configErrorf("action %s: SendFile requires Config.PublicDir", c.action.name))
	}
	if filepath.IsAbs(path) || !filepath.IsLocal(path) {
		return c.Halt(http.StatusNotFound)
	}
	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return c.Halt(http.StatusNotFound)
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(rootResolved, path))
	if err != nil {
		return c.Halt(http.StatusNotFound)
	}
	if resolved != rootResolved && !strings.HasPrefix(resolved, rootResolved+string(filepath.Separator)) {
		return c.Halt(http.StatusNotFound)
	}
	return c.transferFile(resolved)
}

// SendFileUnsafe streams a file by explicit path with no sandbox at all;
// relative paths resolve against the process working directory. The name is
// the warning: never feed it request-derived input.
func (c *Context) SendFileUnsafe(path string) error {
	full, err := filepath.Abs(path)
	if err != nil {
		return c.Halt(http.StatusNotFound)
	}
	return c.transferFile(full)
}

func (c *Context) transferFile(full string) error {
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return c.Halt(http.StatusNotFound)
	}
	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response.Header.Set("Content-Type", contentType)
	c.Response.Header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if c.Request.Method == http.MethodHead {
		return &haltSignal{status: http.StatusOK, keep: true}
	}
	f, err := os.Open(full)
	if err != nil {
		return c.Halt(http.StatusNotFound)
	}
	c.Response.Body = nil
	c.Response.Stream = f
	return &haltSignal{status: http.StatusOK, keep: true}
}
