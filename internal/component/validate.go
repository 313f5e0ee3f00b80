package component

import (
	"strings"

	"github.com/bethropolis/scribe/internal/logger"
)

// Validate is the gate every replacement passes before it may replace the
// component's text. It returns a *ValidationError on rejection.
func Validate(d Detail, replacement string) error {
	var err *ValidationError
	switch d.Kind {
	case KindFigure:
		err = validateFigure(d.Text, replacement)
	case KindGrid:
		err = validateGrid(d.Text, replacement)
	case KindTable:
		err = validateTable(replacement)
	default:
		err = invalid("Unknown component kind " + string(d.Kind) + ".")
	}
	if err != nil {
		logger.DebugTagf("component", "Component: %s replacement rejected: %s", d.Kind, err.Message)
		return err
	}
	return nil
}

func validateFigure(original, replacement string) *ValidationError {
	if strings.Contains(replacement, "\n") {
		return invalid("A figure must stay on a single line.", "Edit the caption", "Make it bigger")
	}
	orig, ok := parseFigure(original)
	if !ok {
		return invalid("The original figure could not be read.")
	}
	next, ok := parseFigure(replacement)
	if !ok {
		return invalid("The edit did not produce a figure.", suggestions(KindFigure)...)
	}
	if next.src != orig.src {
		return invalid("The edit changed the image source; upload a new image instead.", suggestions(KindFigure)...)
	}
	if figIDRe.MatchString(orig.attrs) && !figIDRe.MatchString(next.attrs) {
		return invalid("The edit removed the figure id, which would break references to it.")
	}
	return nil
}

// validateGrid keeps the edit inside one grid: the first line opens it, the
// last line closes it and every line between is blank or holds images.
func validateGrid(original, replacement string) *ValidationError {
	lines := strings.Split(replacement, "\n")
	last := len(lines) - 1
	if last < 1 || !strings.HasPrefix(lines[0], ":::") || isGridClose(lines[0]) || !isGridClose(lines[last]) {
		return invalid("A grid must keep its opening and closing ::: fences.", suggestions(KindGrid)...)
	}
	if !colsTokenRe.MatchString(lines[0]) {
		return invalid("A grid must keep its cols= setting.", "Use 2 columns", "Use 3 columns")
	}
	for _, line := range lines[1:last] {
		if strings.HasPrefix(strings.TrimSpace(line), ":::") {
			return invalid("A grid edit cannot close the grid early or open another one.", suggestions(KindGrid)...)
		}
		if strings.TrimSpace(imageRe.ReplaceAllString(line, "")) != "" {
			return invalid("A grid holds only images; text around it belongs to the document.", suggestions(KindGrid)...)
		}
	}

	// Replacement images must appear in the original, in the same order.
	orig, next := images(original), images(replacement)
	j := 0
	for _, img := range next {
		for j < len(orig) && orig[j].src != img.src {
			j++
		}
		if j == len(orig) {
			return invalid("Images in a grid can be removed but not added, replaced or reordered.", suggestions(KindGrid)...)
		}
		if orig[j].figID && !img.figID {
			return invalid("The edit removed a figure id from " + img.src + ".")
		}
		j++
	}
	return nil
}

func validateTable(replacement string) *ValidationError {
	if colsTokenRe.MatchString(replacement) {
		return invalid("A table cannot take a cols= setting.", suggestions(KindTable)...)
	}
	lines := strings.Split(replacement, "\n")
	if len(lines) < 2 || !isTableLine(lines[0]) || !colSpecRe.MatchString(lines[1]) {
		return invalid("A table needs a column-spec line such as | l | c | r | right after the header.", suggestions(KindTable)...)
	}
	for _, line := range lines {
		if !isTableLine(line) {
			return invalid("Every line of a table must be a | row; text around it belongs to the document.", suggestions(KindTable)...)
		}
	}
	return nil
}
