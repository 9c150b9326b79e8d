package controller

import (
	"strings"
	"sync"
)

// formatRegistry maps format names to media types in both directions. The
// registration order is kept so wildcard negotiation stays deterministic.
type formatRegistry struct {
	mu     sync.RWMutex
	names  []string
	toMime map[string]string
	toName map[string]string
}

var formats = defaultFormats()

func defaultFormats() *formatRegistry {
	r := &formatRegistry{
		toMime: map[string]string{},
		toName: map[string]string{},
	}
	for _, f := range [][2]string{
		{"html", "text/html"},
		{"json", "application/json"},
		{"xml", "application/xml"},
		{"txt", "text/plain"},
		{"js", "application/javascript"},
		{"css", "text/css"},
		{"csv", "text/csv"},
		{"yaml", "text/yaml"},
		{"pdf", "application/pdf"},
		{"zip", "application/zip"},
		{"gz", "application/gzip"},
		{"png", "image/png"},
		{"jpg", "image/jpeg"},
		{"gif", "image/gif"},
		{"svg", "image/svg+xml"},
		{"form", "application/x-www-form-urlencoded"},
		{"multipart", "multipart/form-data"},
		{"binary", "application/octet-stream"},
	} {
		r.add(f[0], f[1])
	}
	return r
}

// RegisterFormat maps a custom format name to a media type, making the name
// usable in Accept, Format and SetFormat. The common web formats (html,
// json, xml, txt, ...) are preregistered. Registering an existing name
// replaces its media type.
func RegisterFormat(name, mediaType string) {
	if name == "" || mediaType == "" {
		panic(configErrorf("register format: name and media type are required"))
	}
	formats.add(name, strings.ToLower(mediaType))
}

func (r *formatRegistry) add(name, mediaType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.toMime[name]; !ok {
		r.names = append(r.names, name)
	}
	r.toMime[name] = mediaType
	r.toName[mediaType] = name
}

func (r *formatRegistry) mimeFor(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mt, ok := r.toMime[name]
	return mt, ok
}

// nameFor resolves a media type back to its format name. Parameters such as
// ";charset=utf-8" are ignored.
func (r *formatRegistry) nameFor(mediaType string) (string, bool) {
	mt, _, _ := strings.Cut(mediaType, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.toName[mt]
	return name, ok
}

func (r *formatRegistry) ordered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// FormatForMime returns the format name registered for a media type, e.g.
// "application/json" -> "json".
func FormatForMime(mediaType string) (string, bool) {
	return formats.nameFor(mediaType)
}

// MimeForFormat returns the media type registered for a format name.
func MimeForFormat(name string) (string, bool) {
	return formats.mimeFor(name)
}
