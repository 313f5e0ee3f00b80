package latex

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bethropolis/scribe/internal/logger"
)

// PreambleRepairer guarantees that a document's preamble loads every package
// its body needs. Implementations must be idempotent.
type PreambleRepairer interface {
	EnsurePreamble(latex string) string
}

// DefaultPackages maps a construct to the package it requires.
var DefaultPackages = map[string]string{
	`\includegraphics`:   "graphicx",
	`\begin{subfigure}`:  "subcaption",
	`\subcaption`:        "subcaption",
	`\href`:              "hyperref",
	`\url`:               "hyperref",
	`\toprule`:           "booktabs",
	`\midrule`:           "booktabs",
	`\bottomrule`:        "booktabs",
	`\begin{tabularx}`:   "tabularx",
	`\textcolor`:         "xcolor",
	`\begin{wrapfigure}`: "wrapfig",
}

var usepackageRe = regexp.MustCompile(`\\usepackage\s*(?:\[[^\]]*\])?\s*\{([^}]*)\}`)

// PackageRepairer inserts \usepackage lines for constructs found in the body.
type PackageRepairer struct {
	Packages map[string]string // construct -> package; nil means DefaultPackages
}

// NewPackageRepairer merges extra over DefaultPackages.
func NewPackageRepairer(extra map[string]string) *PackageRepairer {
	merged := make(map[string]string, len(DefaultPackages)+len(extra))
	for k, v := range DefaultPackages {
		merged[k] = v
	}
	for k, v := range extra {
		if k != "" && v != "" {
			merged[k] = v
		}
	}
	return &PackageRepairer{Packages: merged}
}

// LoadedPackages lists the packages named by \usepackage in the preamble.
func LoadedPackages(preamble string) map[string]bool {
	loaded := make(map[string]bool)
	for _, m := range usepackageRe.FindAllStringSubmatch(stripComments(preamble), -1) {
		for _, name := range strings.Split(m[1], ",") {
			if name = strings.TrimSpace(name); name != "" {
				loaded[name] = true
			}
		}
	}
	return loaded
}

// EnsurePreamble adds the missing packages just before \begin{document}.
// Fragments without \begin{document} are returned unchanged.
func (r *PackageRepairer) EnsurePreamble(latex string) string {
	packages := r.Packages
	if packages == nil {
		packages = DefaultPackages
	}
	split := strings.Index(latex, `\begin{document}`)
	if split < 0 {
		return latex
	}
	preamble, body := latex[:split], stripComments(latex[split:])
	loaded := LoadedPackages(preamble)

	var missing []string
	seen := make(map[string]bool)
	for construct, pkg := range packages {
		if loaded[pkg] || seen[pkg] || !strings.Contains(body, construct) {
			continue
		}
		seen[pkg] = true
		missing = append(missing, pkg)
	}
	if len(missing) == 0 {
		return latex
	}
	sort.Strings(missing)
	logger.DebugTagf("latex", "Preamble: adding packages %v", missing)

	var b strings.Builder
	b.WriteString(preamble)
	if preamble != "" && !strings.HasSuffix(preamble, "\n") {
		b.WriteByte('\n')
	}
	for _, pkg := range missing {
		b.WriteString(`\usepackage{` + pkg + "}\n")
	}
	b.WriteString(latex[split:])
	return b.String()
}

// stripComments blanks out % comments so commented-out constructs do not count.
func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		for j := 0; j < len(line); j++ {
			if line[j] == '%' && (j == 0 || line[j-1] != '\\') {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
