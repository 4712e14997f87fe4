package opennotebook

import (
	"regexp"
	"strings"
)

// Canonical id prefixes used by the backend metadata endpoints.
const (
	SourcePrefix  = "source:"
	InsightPrefix = "source_insight:"
)

// Chunk-level source ids carry a trailing _chunk_<N> marker.
var chunkSuffixPattern = regexp.MustCompile(`_chunk_\d+$`)

// NormalizeSourceID turns any accepted source id form into the canonical
// prefixed form the backend expects. Callers may pass the bare database key,
// a prefixed id, or a chunk-level id; chunk citations resolve to their
// parent document, so the _chunk_<N> suffix is stripped.
func NormalizeSourceID(id string) string {
	id = stripPrefix(id)
	id = chunkSuffixPattern.ReplaceAllString(id, "")
	return SourcePrefix + id
}

// NormalizeInsightID turns any accepted insight id form into the canonical
// prefixed form.
func NormalizeInsightID(id string) string {
	return InsightPrefix + stripPrefix(id)
}

func stripPrefix(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		return id[i+1:]
	}
	return id
}
