package citation

import (
	"fmt"
	"regexp"
	"sort"
)

// ReferenceType indicates what kind of backend object a citation points at.
type ReferenceType string

const (
	// ReferenceTypeSource points at a whole source document.
	ReferenceTypeSource ReferenceType = "source"
	// ReferenceTypeInsight points at an insight extracted from a source.
	ReferenceTypeInsight ReferenceType = "source_insight"
)

// Reference is a distinct (type, id) pair found in answer text. Numbers are
// assigned in order of first appearance, starting at 1, and are stable within
// one message only.
type Reference struct {
	Type   ReferenceType `json:"type"`
	ID     string        `json:"id"`
	Number int           `json:"number"`
}

// Result holds the rewritten text and the references in ascending number
// order. It is purely derived from the input text.
type Result struct {
	Text       string      `json:"text"`
	References []Reference `json:"references"`
}

// Raw reference patterns:
//
//	source:abc123                 - bare source reference
//	source_insight:xyz            - bare insight reference
//	[source:abc123]               - bracketed (single or double brackets)
//
// source_insight must be tried before source or the tokenizer would split
// "source_insight:x" into a source reference named "insight".
var (
	refPattern       = regexp.MustCompile(`(source_insight|source):([a-zA-Z0-9_]+)`)
	bracketedPattern = regexp.MustCompile(`\[{1,2}(source_insight|source):([a-zA-Z0-9_]+)\]{1,2}`)
)

// span is a half-open [start, end) region of the input scheduled for rewrite.
type span struct {
	start int
	end   int
	key   string
}

// Extract finds embedded source/insight identifiers in answer text, assigns
// each distinct (type, id) pair a sequential number on first sight, and
// rewrites every occurrence into a numbered markdown link of the form
// [N](#ref-<type>-<id>).
//
// Extract is a pure function: it is deterministic, has no side effects, and
// is safe to re-run on every incremental snapshot of a streamed answer.
// Feeding its own output back in is a no-op because rewritten markers no
// longer match the raw identifier pattern.
func Extract(text string) Result {
	// First pass: collect distinct pairs in order of first appearance.
	refByKey := make(map[string]Reference)
	ordered := make([]Reference, 0)

	for _, m := range refPattern.FindAllStringSubmatch(text, -1) {
		key := m[1] + ":" + m[2]
		if _, seen := refByKey[key]; seen {
			continue
		}
		ref := Reference{
			Type:   ReferenceType(m[1]),
			ID:     m[2],
			Number: len(ordered) + 1,
		}
		refByKey[key] = ref
		ordered = append(ordered, ref)
	}

	if len(ordered) == 0 {
		return Result{Text: text, References: []Reference{}}
	}

	// Second pass: locate every occurrence. Bracketed spans win over bare
	// matches that fall inside them, so each character is rewritten once.
	var spans []span

	for _, idx := range bracketedPattern.FindAllStringSubmatchIndex(text, -1) {
		key := text[idx[2]:idx[3]] + ":" + text[idx[4]:idx[5]]
		spans = append(spans, span{start: idx[0], end: idx[1], key: key})
	}

	for _, idx := range refPattern.FindAllStringSubmatchIndex(text, -1) {
		covered := false
		for _, s := range spans {
			if s.start <= idx[0] && idx[1] <= s.end {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		key := text[idx[2]:idx[3]] + ":" + text[idx[4]:idx[5]]
		spans = append(spans, span{start: idx[0], end: idx[1], key: key})
	}

	// Replace from the rightmost match to the leftmost so earlier offsets
	// stay valid while the string is rebuilt.
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	result := text
	for _, s := range spans {
		ref, ok := refByKey[s.key]
		if !ok {
			continue
		}
		marker := fmt.Sprintf("[%d](#ref-%s-%s)", ref.Number, ref.Type, ref.ID)
		result = result[:s.start] + marker + result[s.end:]
	}

	return Result{Text: result, References: ordered}
}
