// Package parser turns recipe Markdown files into structured data: a
// restricted frontmatter grammar on top and a section-based body below.
package parser

// Document is the parsed form of one recipe file.
type Document struct {
	Frontmatter Frontmatter
	Body        string
	Sections    Body
}

// Parse extracts frontmatter and segments the remaining body using d.
// It is a pure function of its input and never fails.
func Parse(data []byte, d Dialect) Document {
	fm, body := ExtractFrontmatter(string(data))
	return Document{
		Frontmatter: fm,
		Body:        body,
		Sections:    SegmentBody(body, d),
	}
}
