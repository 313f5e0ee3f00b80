package component

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bethropolis/scribe/internal/logger"
)

// Options bounds the deterministic width adjustments.
type Options struct {
	WidthStep int
	WidthMin  int
	WidthMax  int
}

// DefaultOptions are the width bounds used when none are configured.
var DefaultOptions = Options{WidthStep: 10, WidthMin: 10, WidthMax: 100}

func (o Options) withDefaults() Options {
	if o.WidthStep <= 0 {
		o.WidthStep = DefaultOptions.WidthStep
	}
	if o.WidthMin <= 0 {
		o.WidthMin = DefaultOptions.WidthMin
	}
	if o.WidthMax <= 0 || o.WidthMax < o.WidthMin {
		o.WidthMax = DefaultOptions.WidthMax
	}
	return o
}

var (
	biggerRe  = regexp.MustCompile(`\b(bigger|larger|wider|enlarge|grow|increase)\b`)
	smallerRe = regexp.MustCompile(`\b(smaller|narrower|shrink|reduce|decrease)\b`)
	inlineRe  = regexp.MustCompile(`\binline\b`)
	blockRe   = regexp.MustCompile(`\b(block|standalone|own line)\b`)
	leftRe    = regexp.MustCompile(`\bleft\b`)
	centerRe  = regexp.MustCompile(`\b(center|centre|centered|centred|middle)\b`)
	rightRe   = regexp.MustCompile(`\bright\b`)
	colsRe    = regexp.MustCompile(`\bcols\s*=\s*(\d+)\b|\b(\d+)\s+columns?\b`)
	marginRe  = regexp.MustCompile(`\bmargin\s*=\s*(small|medium|large)\b|\b(small|medium|large)\s+margins?\b`)
)

// intent is what the matcher recognized in an instruction.
type intent struct {
	resize    int // +1 bigger, -1 smaller
	placement string
	align     string
	cols      int
	margin    string
}

func (i intent) empty() bool {
	return i == intent{}
}

func parseIntent(instruction string) intent {
	p := strings.ToLower(instruction)
	var in intent
	switch {
	case biggerRe.MatchString(p):
		in.resize = 1
	case smallerRe.MatchString(p):
		in.resize = -1
	}
	switch {
	case inlineRe.MatchString(p):
		in.placement = "inline"
	case blockRe.MatchString(p):
		in.placement = "block"
	}
	switch {
	case centerRe.MatchString(p):
		in.align = "center"
	case leftRe.MatchString(p):
		in.align = "left"
	case rightRe.MatchString(p):
		in.align = "right"
	}
	if m := colsRe.FindStringSubmatch(p); m != nil {
		n := m[1]
		if n == "" {
			n = m[2]
		}
		in.cols, _ = strconv.Atoi(n)
	}
	if m := marginRe.FindStringSubmatch(p); m != nil {
		in.margin = m[1]
		if in.margin == "" {
			in.margin = m[2]
		}
	}
	return in
}

// FastPath rewrites only the attribute tokens a recognized intent names and
// leaves every other byte of the snippet as it was. It returns false when the
// instruction has no intent this component kind supports.
func FastPath(d Detail, instruction string, opts Options) (string, bool) {
	in := parseIntent(instruction)
	if in.empty() {
		return "", false
	}
	opts = opts.withDefaults()

	var (
		out string
		ok  bool
	)
	switch d.Kind {
	case KindFigure:
		out, ok = figureFastPath(d.Text, in, opts)
	case KindGrid:
		out, ok = gridFastPath(d.Text, in)
	case KindTable:
		out, ok = tableFastPath(d.Text, in)
	}
	if ok {
		logger.DebugTagf("component", "Component: fast path handled %s edit %+v", d.Kind, in)
	}
	return out, ok
}

func figureFastPath(text string, in intent, opts Options) (string, bool) {
	f, ok := parseFigure(text)
	if !ok {
		return "", false
	}
	attrs := f.attrs
	changed := false
	if in.resize != 0 {
		width := opts.WidthMax
		if v, ok := getAttr(attrs, "width"); ok {
			n, err := strconv.Atoi(strings.TrimSuffix(v, "%"))
			if err != nil || !strings.HasSuffix(v, "%") {
				// non-percentage widths are left to the planner
				return "", false
			}
			width = n
		}
		width = min(max(width+in.resize*opts.WidthStep, opts.WidthMin), opts.WidthMax)
		attrs = setAttr(attrs, "width", strconv.Itoa(width)+"%", true)
		changed = true
	}
	if in.placement != "" {
		attrs = setAttr(attrs, "placement", in.placement, true)
		changed = true
	}
	if in.align != "" {
		attrs = setAttr(attrs, "align", in.align, true)
		changed = true
	}
	if !changed {
		return "", false
	}
	return f.withAttrs(attrs), true
}

func gridFastPath(text string, in intent) (string, bool) {
	header, rest, _ := strings.Cut(text, "\n")
	changed := false
	if in.cols > 0 {
		header = setAttr(header, "cols", strconv.Itoa(in.cols), false)
		changed = true
	}
	if in.margin != "" {
		header = setAttr(header, "margin", in.margin, false)
		changed = true
	}
	if in.align != "" {
		header = setAttr(header, "align", in.align, false)
		changed = true
	}
	if !changed {
		return "", false
	}
	return header + "\n" + rest, true
}

func tableFastPath(text string, in intent) (string, bool) {
	if in.align == "" {
		return "", false
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || !colSpecRe.MatchString(lines[1]) {
		return "", false
	}
	lines[1] = alignRe.ReplaceAllString(lines[1], in.align[:1])
	return strings.Join(lines, "\n"), true
}
