package text

import (
	"strings"

	"github.com/matzehuels/boxdeck/pkg/errors"
)

// Range marks a run of plain text produced by a markup group.
// Start and End are byte offsets into [Markup.Text].
type Range struct {
	Start, End int
	Name       string
	Anchor     bool // "~#name{...}" registers an anchor, "~name{...}" applies a style
}

// Markup is source text with its markup groups stripped.
type Markup struct {
	Text   string
	Ranges []Range // in order of their opening tags
}

// Plain wraps s as markup-free text.
func Plain(s string) Markup { return Markup{Text: s} }

// ParseMarkup strips inline markup from src.
//
// A group is written "~name{inner}" and may nest. Names starting with '#'
// mark inline anchors; other names refer to styles. A '~' that is not
// followed by a name and '{' is kept literally, as is a '}' with no open
// group. Unterminated groups and empty names are INVALID_ANCHOR errors.
func ParseMarkup(src string) (Markup, error) {
	var (
		out   strings.Builder
		stack []int // indexes into ranges
		m     Markup
	)
	out.Grow(len(src))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '~':
			name, n, ok := scanGroup(src[i+1:])
			if !ok {
				out.WriteByte(c)
				i++
				continue
			}
			r := Range{Start: out.Len(), Name: name}
			if strings.HasPrefix(name, "#") {
				r.Anchor = true
				r.Name = name[1:]
				if err := errors.ValidateAnchorName(r.Name); err != nil {
					return Markup{}, err
				}
			} else if name == "" {
				return Markup{}, errors.New(errors.ErrCodeInvalidAnchor, "empty markup name at offset %d", i)
			}
			m.Ranges = append(m.Ranges, r)
			stack = append(stack, len(m.Ranges)-1)
			i += 1 + n
		case c == '}' && len(stack) > 0:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			m.Ranges[top].End = out.Len()
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	if len(stack) > 0 {
		r := m.Ranges[stack[len(stack)-1]]
		return Markup{}, errors.New(errors.ErrCodeInvalidAnchor, "unterminated markup group %q", r.Name)
	}
	m.Text = out.String()
	return m, nil
}

// scanGroup reads "name{" at the start of s and returns the name and the
// number of bytes consumed including the brace.
func scanGroup(s string) (string, int, bool) {
	i := 0
	if i < len(s) && s[i] == '#' {
		i++
	}
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", 0, false
	}
	return s[:i], i + 1, true
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '.' || c == ':' || c >= 0x80
}

// Anchors returns the anchor ranges.
func (m Markup) Anchors() []Range {
	var out []Range
	for _, r := range m.Ranges {
		if r.Anchor {
			out = append(out, r)
		}
	}
	return out
}

// StylesAt returns the style names of every group enclosing the byte at
// offset, outermost first.
func (m Markup) StylesAt(offset int) []string {
	var names []string
	for _, r := range m.Ranges {
		if !r.Anchor && r.Start <= offset && offset < r.End {
			names = append(names, r.Name)
		}
	}
	return names
}

// Boundaries returns the sorted, de-duplicated group boundaries including 0
// and len(m.Text).
func (m Markup) Boundaries() []int {
	set := map[int]struct{}{0: {}, len(m.Text): {}}
	for _, r := range m.Ranges {
		set[r.Start] = struct{}{}
		set[r.End] = struct{}{}
	}
	return sortedKeys(set)
}
