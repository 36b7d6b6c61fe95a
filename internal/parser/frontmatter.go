package parser

import (
	"regexp"
	"strings"
)

const delimiter = "---"

var (
	bulletRe   = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
	keyValueRe = regexp.MustCompile(`^(\w+):\s*(.*)$`)
)

// Frontmatter is an ordered key/value mapping parsed from a document header.
// Keys keep the position of their first declaration; redeclaring a key
// replaces its value.
type Frontmatter struct {
	keys   []string
	values map[string]Value
}

// Set stores v under key.
func (f *Frontmatter) Set(key string, v Value) {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the value stored under key.
func (f Frontmatter) Get(key string) (Value, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in declaration order.
func (f Frontmatter) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f Frontmatter) Len() int { return len(f.keys) }

// Text returns the scalar under key, or def when the key is absent or holds a list.
func (f Frontmatter) Text(key, def string) string {
	v, ok := f.values[key]
	if !ok || v.IsList() || v.scalar == "" {
		return def
	}
	return v.scalar
}

// Strings returns the list under key, or nil when the key is absent or holds a scalar.
func (f Frontmatter) Strings(key string) []string {
	v, ok := f.values[key]
	if !ok {
		return nil
	}
	return v.Items()
}

// Equal reports whether both maps hold the same keys with equal values.
// Key order is not compared.
func (f Frontmatter) Equal(o Frontmatter) bool {
	if len(f.values) != len(o.values) {
		return false
	}
	for k, v := range f.values {
		ov, ok := o.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ExtractFrontmatter splits a leading ---delimited block from text and parses
// it. Without a complete block the map is empty and body is text unchanged.
// It never fails: lines it does not understand are skipped.
func ExtractFrontmatter(text string) (Frontmatter, string) {
	block, body, ok := splitFrontmatter(text)
	if !ok {
		return Frontmatter{}, text
	}
	return parseBlock(block), body
}

// splitFrontmatter requires the first line to be exactly "---" and takes the
// next line that is exactly "---" as the closing delimiter.
func splitFrontmatter(text string) (block, body string, ok bool) {
	first, rest, found := strings.Cut(text, "\n")
	if !found || first != delimiter {
		return "", text, false
	}
	offset := 0
	for {
		line, after, more := strings.Cut(rest[offset:], "\n")
		if line == delimiter {
			return strings.TrimSuffix(rest[:offset], "\n"), after, true
		}
		if !more {
			return "", text, false
		}
		offset += len(line) + 1
	}
}

type blockState int

const (
	stateScalar blockState = iota
	stateInList
)

// blockParser classifies frontmatter lines one at a time, without lookahead.
type blockParser struct {
	fm      Frontmatter
	state   blockState
	key     string
	pending bool
	buf     []string
}

func parseBlock(block string) Frontmatter {
	p := &blockParser{}
	for _, line := range splitLines(block) {
		p.line(line)
	}
	p.finish()
	return p.fm
}

func (p *blockParser) line(line string) {
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		p.buf = append(p.buf, m[1])
		p.state = stateInList
		return
	}
	if p.state == stateInList {
		p.flush()
	}
	m := keyValueRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	p.key = m[1]
	value := strings.TrimSpace(m[2])
	if value == "" {
		p.pending = true
		p.buf = nil
		return
	}
	p.pending = false
	p.fm.Set(p.key, Scalar(value))
}

func (p *blockParser) flush() {
	if p.key != "" {
		p.fm.Set(p.key, List(p.buf...))
	}
	p.buf = nil
	p.state = stateScalar
	p.pending = false
}

func (p *blockParser) finish() {
	switch {
	case p.state == stateInList:
		p.flush()
	case p.pending && p.key != "":
		// An empty-valued key closing the block still yields an empty list.
		p.flush()
	}
}

// Marshal writes fm back in the grammar ExtractFrontmatter reads, without the
// surrounding delimiters. Empty lists are emitted last: only an empty-valued
// key that closes the block parses back as an empty list, so at most one empty
// list survives a round trip.
func Marshal(fm Frontmatter) string {
	var b strings.Builder
	var empty []string
	for _, k := range fm.keys {
		v := fm.values[k]
		if !v.IsList() {
			b.WriteString(k + ": " + v.scalar + "\n")
			continue
		}
		if len(v.items) == 0 {
			empty = append(empty, k)
			continue
		}
		b.WriteString(k + ":\n")
		for _, item := range v.items {
			b.WriteString("  - " + item + "\n")
		}
	}
	for _, k := range empty {
		b.WriteString(k + ":\n")
	}
	return b.String()
}

// Compose renders fm and body as a complete file.
func Compose(fm Frontmatter, body string) string {
	return delimiter + "\n" + Marshal(fm) + delimiter + "\n" + body
}
