// Package xmlnorm renders XML text into a canonical pretty-printed form so
// that two documents differing only in layout whitespace or attribute order
// compare equal.
package xmlnorm

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// DefaultIndent is used when Options.Indent is empty.
const DefaultIndent = "  "

// Options controls normalization. The zero value sorts attributes and
// indents with two spaces.
type Options struct {
	// Indent is the per-level indentation string.
	Indent string

	// KeepAttributeOrder disables attribute sorting.
	KeepAttributeOrder bool
}

// Normalize pretty-prints text with one markup token per line.
//
// Whitespace-only character data between elements is dropped, attributes are
// sorted by qualified name, and an element with no children is always
// rendered self-closed. Namespace prefixes are preserved as written.
func Normalize(text string, opts Options) (string, error) {
	indent := opts.Indent
	if indent == "" {
		indent = DefaultIndent
	}

	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true

	p := &printer{indent: indent, sortAttrs: !opts.KeepAttributeOrder}
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("normalize xml: %w", err)
		}
		if err := p.token(tok); err != nil {
			return "", fmt.Errorf("normalize xml: %w", err)
		}
	}
	p.flushPending(false)

	if p.depth != 0 {
		return "", fmt.Errorf("normalize xml: %d unclosed element(s)", p.depth)
	}
	return p.buf.String(), nil
}

type printer struct {
	buf       bytes.Buffer
	indent    string
	sortAttrs bool
	depth     int
	pending   *xml.StartElement
	open      []string
}

// token prints one raw token. RawToken does not match start and end tags,
// so the printer tracks open elements itself.
func (p *printer) token(tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		p.flushPending(false)
		start := t.Copy()
		p.pending = &start
		p.open = append(p.open, qualified(t.Name))
	case xml.EndElement:
		name := qualified(t.Name)
		if len(p.open) == 0 {
			return fmt.Errorf("unexpected end element </%s>", name)
		}
		if top := p.open[len(p.open)-1]; top != name {
			return fmt.Errorf("element <%s> closed by </%s>", top, name)
		}
		p.open = p.open[:len(p.open)-1]
		if p.pending != nil {
			p.flushPending(true)
			return nil
		}
		p.depth--
		p.line("</" + name + ">")
	case xml.CharData:
		if len(bytes.TrimSpace(t)) == 0 {
			return nil
		}
		p.flushPending(false)
		var esc bytes.Buffer
		_ = xml.EscapeText(&esc, t)
		p.line(esc.String())
	case xml.Comment:
		p.flushPending(false)
		p.line("<!--" + string(t) + "-->")
	case xml.ProcInst:
		p.flushPending(false)
		p.line("<?" + t.Target + " " + strings.TrimSpace(string(t.Inst)) + "?>")
	case xml.Directive:
		p.flushPending(false)
		p.line("<!" + string(t) + ">")
	}
	return nil
}

// flushPending writes the buffered start tag. selfClose is set when the
// matching end tag immediately followed it.
func (p *printer) flushPending(selfClose bool) {
	if p.pending == nil {
		return
	}
	start := p.pending
	p.pending = nil

	var b strings.Builder
	b.WriteString("<")
	b.WriteString(qualified(start.Name))

	attrs := start.Attr
	if p.sortAttrs {
		attrs = slices.Clone(attrs)
		slices.SortFunc(attrs, func(a, b xml.Attr) int {
			return strings.Compare(qualified(a.Name), qualified(b.Name))
		})
	}
	for _, a := range attrs {
		var esc bytes.Buffer
		_ = xml.EscapeText(&esc, []byte(a.Value))
		fmt.Fprintf(&b, " %s=\"%s\"", qualified(a.Name), esc.String())
	}

	if selfClose {
		b.WriteString("/>")
		p.line(b.String())
		return
	}
	b.WriteString(">")
	p.line(b.String())
	p.depth++
}

func (p *printer) line(s string) {
	for i := 0; i < p.depth; i++ {
		p.buf.WriteString(p.indent)
	}
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

// qualified renders a raw (unresolved) name as prefix:local.
func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
