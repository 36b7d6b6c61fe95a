package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ingredientRe = regexp.MustCompile(`^\*\s+(.+)$`)
	subHeaderRe  = regexp.MustCompile(`^\*\*(.+):\*\*$`)
	stepRe       = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// continuationIndent prefixes bullet lines folded into an instruction.
const continuationIndent = "\n   "

// Dialect selects the heading level that opens body sections and whether a
// Notes section is recognised.
type Dialect struct {
	Name         string
	HeadingLevel int
	Notes        bool
}

var (
	// DialectStandard uses "#### " headings, optionally with bold labels
	// ("#### **Ingredients**"). Notes are not extracted.
	DialectStandard = Dialect{Name: "standard", HeadingLevel: 4}
	// DialectLegacy uses "### " headings and supports a Notes section.
	DialectLegacy = Dialect{Name: "legacy", HeadingLevel: 3, Notes: true}
)

// DialectByName looks up a built-in dialect.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case "", DialectStandard.Name:
		return DialectStandard, nil
	case DialectLegacy.Name:
		return DialectLegacy, nil
	}
	return Dialect{}, fmt.Errorf("parser: unknown dialect %q", name)
}

func (d Dialect) marker() string {
	level := d.HeadingLevel
	if level <= 0 {
		level = DialectStandard.HeadingLevel
	}
	return strings.Repeat("#", level)
}

// Body holds the named sections of a recipe body. Ingredient sub-group
// labels stay inline as "<label>:" entries.
type Body struct {
	Intro        string   `json:"intro"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Notes        string   `json:"notes"`
}

// SegmentBody splits body into sections on the dialect's heading marker.
// Text before the first heading is the intro; unrecognised sections are
// dropped. It never fails.
func SegmentBody(body string, d Dialect) Body {
	out := Body{Ingredients: []string{}, Instructions: []string{}}
	level := len(d.marker())

	segments := splitSegments(body, level)
	out.Intro = strings.TrimSpace(segments[0])

	for _, seg := range segments[1:] {
		lines := splitLines(strings.TrimSpace(seg))
		label := headerLabel(lines[0])
		rest := lines[1:]
		switch {
		case strings.HasPrefix(label, "ingredients"):
			out.Ingredients = appendIngredients(out.Ingredients, rest)
		case strings.HasPrefix(label, "instructions"):
			out.Instructions = appendInstructions(out.Instructions, rest)
		case d.Notes && strings.HasPrefix(label, "notes"):
			out.Notes = strings.TrimSpace(strings.Join(rest, "\n"))
		}
	}
	return out
}

// splitSegments cuts body at heading lines. The heading text becomes the
// first line of its segment; segments[0] is everything before the first heading.
func splitSegments(body string, level int) []string {
	var (
		segments []string
		cur      strings.Builder
	)
	for i, line := range splitLines(body) {
		if text, ok := isHeading(line, level); ok {
			segments = append(segments, cur.String())
			cur.Reset()
			cur.WriteString(text)
			continue
		}
		if i > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	return append(segments, cur.String())
}

func appendIngredients(dst, lines []string) []string {
	for _, line := range lines {
		if m := ingredientRe.FindStringSubmatch(line); m != nil {
			dst = append(dst, strings.TrimSpace(m[1]))
		}
		if m := subHeaderRe.FindStringSubmatch(line); m != nil {
			dst = append(dst, m[1]+":")
		}
	}
	return dst
}

func appendInstructions(dst, lines []string) []string {
	var cur string
	flush := func() {
		if s := strings.TrimSpace(cur); s != "" {
			dst = append(dst, s)
		}
		cur = ""
	}
	for _, line := range lines {
		if m := stepRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = m[1]
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "*"):
			cur += continuationIndent + trimmed
		case trimmed != "":
			cur += " " + trimmed
		}
	}
	flush()
	return dst
}

// RenderBody writes b in the layout SegmentBody reads back.
func RenderBody(b Body, d Dialect) string {
	marker := d.marker()
	var parts []string

	if intro := strings.TrimSpace(b.Intro); intro != "" {
		parts = append(parts, intro)
	}

	if len(b.Ingredients) > 0 {
		lines := []string{marker + " Ingredients"}
		for _, item := range b.Ingredients {
			if label, ok := strings.CutSuffix(item, ":"); ok && label != "" {
				lines = append(lines, "**"+label+":**")
				continue
			}
			lines = append(lines, "* "+item)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if len(b.Instructions) > 0 {
		lines := []string{marker + " Instructions"}
		for i, step := range b.Instructions {
			lines = append(lines, strconv.Itoa(i+1)+". "+step)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if d.Notes {
		if notes := strings.TrimSpace(b.Notes); notes != "" {
			parts = append(parts, marker+" Notes\n"+notes)
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}
