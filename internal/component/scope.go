package component

import (
	"regexp"
	"strings"
)

var (
	documentWordsRe  = regexp.MustCompile(`\b(sections?|paragraphs?|chapters?|headings?|document|abstract|introduction|conclusion|bibliography)\b`)
	componentWordsRe = regexp.MustCompile(`\b(figures?|images?|pictures?|photos?|grid|columns?|cols|tables?|rows?|cells?|captions?|width|size|align|alignment|margins?|bigger|smaller|inline)\b`)
	ambiguousRe      = regexp.MustCompile(`^(please\s+)?(make\s+(it|this)\s+(better|nicer|good|look\s+good)|improve(\s+(it|this))?|fix(\s+(it|this))?|better|clean\s+(it|this)\s+up)[.!]*$`)
)

// checkScope rejects instructions about the surrounding document.
func checkScope(d Detail, instruction string) error {
	p := strings.ToLower(instruction)
	if documentWordsRe.MatchString(p) && !componentWordsRe.MatchString(p) {
		return &ValidationError{
			Message:     "This edits only the selected " + string(d.Kind) + ". Use the document assistant for changes to sections or paragraphs.",
			Suggestions: suggestions(d.Kind),
			Err:         ErrOutOfScope,
		}
	}
	return nil
}

// clarifyFor returns a question when the instruction is too generic to act on.
func clarifyFor(d Detail, instruction string) *Clarify {
	p := strings.Join(strings.Fields(strings.ToLower(instruction)), " ")
	if !ambiguousRe.MatchString(p) {
		return nil
	}
	return &Clarify{
		Question:    "What would you like to change about this " + string(d.Kind) + "?",
		Suggestions: suggestions(d.Kind),
	}
}

func suggestions(kind Kind) []string {
	switch kind {
	case KindGrid:
		return []string{"Use 3 columns", "Use a large margin", "Center the grid", "Remove the last image"}
	case KindTable:
		return []string{"Center all columns", "Align columns left", "Align columns right"}
	default:
		return []string{"Make it bigger", "Make it smaller", "Center it", "Make it inline", "Edit the caption"}
	}
}
