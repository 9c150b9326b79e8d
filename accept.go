package controller

import (
	"sort"
	"strconv"
	"strings"
)

// mediaRange is one parsed entry of an Accept header.
type mediaRange struct {
	typ     string
	subtype string
	quality float64
}

func (m mediaRange) catchAll() bool {
	return m.typ == "*" && m.subtype == "*"
}

func (m mediaRange) matches(mediaType string) bool {
	if m.catchAll() {
		return true
	}
	typ, subtype, _ := strings.Cut(mediaType, "/")
	if m.subtype == "*" {
		return m.typ == typ
	}
	return m.typ == typ && m.subtype == subtype
}

// parseAccept splits an Accept header into media ranges sorted by descending
// quality. The sort is stable, so between equal qualities the client's own
// order survives. Ranges with q=0 are dropped: the client refuses those.
func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for _, part := range strings.Split(header, ",") {
		r, ok := parseMediaRange(part)
		if !ok || r.quality <= 0 {
			continue
		}
		ranges = append(ranges, r)
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].quality > ranges[j].quality
	})
	return ranges
}

func parseMediaRange(s string) (mediaRange, bool) {
	fields := strings.Split(s, ";")
	typ, subtype, ok := strings.Cut(strings.TrimSpace(fields[0]), "/")
	if !ok || typ == "" || subtype == "" {
		return mediaRange{}, false
	}
	r := mediaRange{
		typ:     strings.ToLower(typ),
		subtype: strings.ToLower(subtype),
		quality: 1,
	}
	for _, field := range fields[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok || strings.TrimSpace(k) != "q" {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || q < 0 || q > 1 {
			return mediaRange{}, false
		}
		r.quality = q
	}
	return r, true
}

// negotiate picks a response format for the Accept header among the accepted
// format names; an empty accepted list means every registered format is in
// play. It returns "" when the header expresses nothing usable, leaving the
// decision to the configured defaults.
//
// A bare */* range is only decisive for a restricted action, where it picks
// the first accepted format. On an unrestricted action it carries no
// preference at all and is skipped, so "anything goes" falls through to the
// defaults instead of whatever format happened to be registered first.
func negotiate(header string, accepted []string) string {
	ranges := parseAccept(header)
	if len(ranges) == 0 {
		return ""
	}
	candidates := accepted
	if len(candidates) == 0 {
		candidates = formats.ordered()
	}
	for _, r := range ranges {
		if r.catchAll() {
			if len(accepted) == 0 {
				continue
			}
			return accepted[0]
		}
		for _, name := range candidates {
			mt, ok := formats.mimeFor(name)
			if !ok {
				continue
			}
			if r.matches(mt) {
				return name
			}
		}
	}
	return ""
}
