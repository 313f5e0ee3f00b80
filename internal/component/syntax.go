package component

import (
	"regexp"
	"strings"
)

// srcPattern is an image source; it may hold balanced, unnested parentheses
// such as asset://scan(1).png.
const srcPattern = `((?:[^()\s]|\([^()\s]*\))+)`

var (
	// ![caption](src){attrs}
	figureRe = regexp.MustCompile(`^\s*!\[([^\]]*)\]\(` + srcPattern + `\)(?:\{([^}]*)\})?\s*$`)
	imageRe  = regexp.MustCompile(`!\[[^\]]*\]\(` + srcPattern + `\)(?:\{([^}]*)\})?`)
	figIDRe  = regexp.MustCompile(`#fig:[\w-]+`)

	gridOpenRe  = regexp.MustCompile(`^:::.*\bcols=\S`)
	gridCloseRe = regexp.MustCompile(`^:::\s*$`)
	colsTokenRe = regexp.MustCompile(`\bcols=`)

	// a pipe-delimited run of alignment letters, e.g. "| l | c | r |"
	colSpecRe = regexp.MustCompile(`^\s*\|?\s*[lcr](\s*\|\s*[lcr])*\s*\|?\s*$`)
	alignRe   = regexp.MustCompile(`[lcr]`)
)

func isGridOpen(line string) bool  { return gridOpenRe.MatchString(line) }
func isGridClose(line string) bool { return gridCloseRe.MatchString(line) }
func isTableLine(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), "|") }

// figure is a parsed figure line with byte offsets of its parts.
type figure struct {
	line     string
	caption  string
	src      string
	attrs    string
	hasAttrs bool
	// attrsFrom/attrsTo delimit the text between the braces; when the line has
	// no attribute block, both point just past the closing parenthesis.
	attrsFrom, attrsTo int
	captionFrom        int
	captionTo          int
}

func parseFigure(line string) (figure, bool) {
	m := figureRe.FindStringSubmatchIndex(line)
	if m == nil {
		return figure{}, false
	}
	f := figure{
		line:        line,
		caption:     line[m[2]:m[3]],
		src:         line[m[4]:m[5]],
		captionFrom: m[2],
		captionTo:   m[3],
	}
	if m[6] >= 0 {
		f.hasAttrs = true
		f.attrs = line[m[6]:m[7]]
		f.attrsFrom, f.attrsTo = m[6], m[7]
	} else {
		// just after the ")" that closes the source
		f.attrsFrom = m[5] + 1
		f.attrsTo = f.attrsFrom
	}
	return f, true
}

// withAttrs returns the line with its attribute block replaced.
func (f figure) withAttrs(attrs string) string {
	if f.hasAttrs {
		return f.line[:f.attrsFrom] + attrs + f.line[f.attrsTo:]
	}
	return f.line[:f.attrsFrom] + "{" + attrs + "}" + f.line[f.attrsTo:]
}

// withCaption returns the line with its caption replaced.
func (f figure) withCaption(caption string) string {
	return f.line[:f.captionFrom] + caption + f.line[f.captionTo:]
}

func attrRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`(^|\s)` + regexp.QuoteMeta(key) + `=("[^"]*"|[^\s"}]+)`)
}

// getAttr returns the unquoted value of key=value or key="value".
func getAttr(attrs, key string) (string, bool) {
	m := attrRe(key).FindStringSubmatch(attrs)
	if m == nil {
		return "", false
	}
	return strings.Trim(m[2], `"`), true
}

// setAttr rewrites the value of key in place, keeping its quoting, or appends
// the attribute when it is missing.
func setAttr(attrs, key, value string, quote bool) string {
	if m := attrRe(key).FindStringSubmatchIndex(attrs); m != nil {
		vs, ve := m[4], m[5]
		nv := value
		if strings.HasPrefix(attrs[vs:ve], `"`) {
			nv = `"` + value + `"`
		}
		return attrs[:vs] + nv + attrs[ve:]
	}
	tok := key + "=" + value
	if quote {
		tok = key + `="` + value + `"`
	}
	if strings.TrimSpace(attrs) == "" {
		return tok
	}
	return strings.TrimRight(attrs, " \t") + " " + tok
}

// image is one embedded image reference inside a snippet.
type image struct {
	src   string
	figID bool
}

// images lists the images of a snippet in order. A figure id counts only
// inside the image's own attribute block.
func images(text string) []image {
	var out []image
	for _, m := range imageRe.FindAllStringSubmatch(text, -1) {
		out = append(out, image{src: m[1], figID: figIDRe.MatchString(m[2])})
	}
	return out
}
