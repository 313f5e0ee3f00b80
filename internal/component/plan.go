package component

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/bethropolis/scribe/internal/logger"
)

// Clarify is a question for the user instead of an edit.
type Clarify struct {
	Question    string   `json:"question"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Patch is a structured edit. Replacement, when set, is a full rewrite of
// the snippet and the structured fields are ignored.
type Patch struct {
	Caption     *string `json:"caption,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Placement   *string `json:"placement,omitempty"`
	Align       *string `json:"align,omitempty"`
	Cols        *int    `json:"cols,omitempty"`
	Margin      *string `json:"margin,omitempty"`
	Replacement *string `json:"replacement,omitempty"`
}

// Plan holds exactly one of Clarify or Patch.
type Plan struct {
	Clarify *Clarify `json:"clarify,omitempty"`
	Patch   *Patch   `json:"patch,omitempty"`
}

const planSchemaURL = "scribe://component-plan.schema.json"

// PlanSchema is the only response shape a planner may return.
const PlanSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "oneOf": [
    {"required": ["clarify"], "not": {"required": ["patch"]}},
    {"required": ["patch"], "not": {"required": ["clarify"]}}
  ],
  "properties": {
    "clarify": {
      "type": "object",
      "additionalProperties": false,
      "required": ["question"],
      "properties": {
        "question": {"type": "string", "minLength": 1},
        "suggestions": {"type": "array", "items": {"type": "string"}}
      }
    },
    "patch": {
      "type": "object",
      "additionalProperties": false,
      "minProperties": 1,
      "properties": {
        "caption": {"type": "string"},
        "width": {"type": "integer", "minimum": 1, "maximum": 100},
        "placement": {"enum": ["inline", "block"]},
        "align": {"enum": ["left", "center", "right"]},
        "cols": {"type": "integer", "minimum": 1, "maximum": 12},
        "margin": {"enum": ["small", "medium", "large"]},
        "replacement": {"type": "string", "minLength": 1}
      }
    }
  }
}`

func compilePlanSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(planSchemaURL, strings.NewReader(PlanSchema)); err != nil {
		return nil, fmt.Errorf("add plan schema: %w", err)
	}
	schema, err := compiler.Compile(planSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile plan schema: %w", err)
	}
	return schema, nil
}

// promptContext is the JSON description of the component handed to a planner.
type promptContext struct {
	Kind        Kind              `json:"kind"`
	Source      string            `json:"source"`
	Images      []string          `json:"images,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Instruction string            `json:"instruction"`
}

// BuildPrompt describes the component and the required response shape.
func BuildPrompt(d Detail, instruction string) string {
	ctx := promptContext{Kind: d.Kind, Source: d.Text, Instruction: instruction}
	for _, img := range images(d.Text) {
		ctx.Images = append(ctx.Images, img.src)
	}
	switch d.Kind {
	case KindFigure:
		if f, ok := parseFigure(d.Text); ok {
			ctx.Attributes = attributeMap(f.attrs, "width", "placement", "align")
		}
	case KindGrid:
		header, _, _ := strings.Cut(d.Text, "\n")
		ctx.Attributes = attributeMap(header, "cols", "margin", "align")
	}
	data, _ := json.MarshalIndent(ctx, "", "  ")

	var b strings.Builder
	b.WriteString("You edit exactly one embedded ")
	b.WriteString(string(d.Kind))
	b.WriteString(" in a Markdown document. Never touch anything outside it.\n")
	b.WriteString("Image sources must stay byte-identical. Keep every #fig: id token.\n")
	b.WriteString("Reply with ONLY one JSON object matching this schema, no prose:\n")
	b.WriteString(PlanSchema)
	b.WriteString("\nIf the instruction is unclear, reply with a clarify object.\n\nComponent:\n")
	b.Write(data)
	b.WriteString("\n")
	return b.String()
}

func attributeMap(attrs string, keys ...string) map[string]string {
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := getAttr(attrs, k); ok {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParsePlan extracts the JSON object from a planner reply and validates it
// against PlanSchema. Code fences and surrounding prose are tolerated.
func ParsePlan(schema *jsonschema.Schema, reply string) (Plan, error) {
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Plan{}, invalid("The assistant did not return a plan. Try rephrasing.")
	}
	raw := reply[start : end+1]
	if !gjson.Valid(raw) {
		return Plan{}, invalid("The assistant returned malformed JSON. Try again.")
	}
	doc := gjson.Parse(raw)
	if err := schema.Validate(doc.Value()); err != nil {
		logger.DebugTagf("component", "Component: plan rejected by schema: %v", err)
		return Plan{}, invalid("The assistant returned an unexpected plan. Try rephrasing.")
	}

	var plan Plan
	if c := doc.Get("clarify"); c.Exists() {
		plan.Clarify = &Clarify{Question: c.Get("question").String()}
		for _, s := range c.Get("suggestions").Array() {
			plan.Clarify.Suggestions = append(plan.Clarify.Suggestions, s.String())
		}
		return plan, nil
	}

	p := doc.Get("patch")
	patch := &Patch{}
	str := func(key string) *string {
		if v := p.Get(key); v.Exists() {
			s := v.String()
			return &s
		}
		return nil
	}
	num := func(key string) *int {
		if v := p.Get(key); v.Exists() {
			n := int(v.Int())
			return &n
		}
		return nil
	}
	patch.Caption = str("caption")
	patch.Width = num("width")
	patch.Placement = str("placement")
	patch.Align = str("align")
	patch.Cols = num("cols")
	patch.Margin = str("margin")
	patch.Replacement = str("replacement")
	plan.Patch = patch
	return plan, nil
}

// ApplyPatch produces the replacement text a patch describes. The result
// still has to pass Validate.
func ApplyPatch(d Detail, p Patch) (string, error) {
	if p.Replacement != nil {
		return *p.Replacement, nil
	}
	switch d.Kind {
	case KindFigure:
		f, ok := parseFigure(d.Text)
		if !ok {
			return "", invalid("The figure could not be read.")
		}
		attrs := f.attrs
		if p.Width != nil {
			attrs = setAttr(attrs, "width", strconv.Itoa(*p.Width)+"%", true)
		}
		if p.Placement != nil {
			attrs = setAttr(attrs, "placement", *p.Placement, true)
		}
		if p.Align != nil {
			attrs = setAttr(attrs, "align", *p.Align, true)
		}
		out := f
		if attrs != f.attrs {
			out.line = f.withAttrs(attrs)
		}
		if p.Caption != nil {
			// the caption precedes the attributes, so its offsets are still valid
			out.line = out.withCaption(*p.Caption)
		}
		if p.Cols != nil || p.Margin != nil {
			logger.DebugTagf("component", "Component: ignoring grid fields in figure patch")
		}
		return out.line, nil
	case KindGrid:
		header, rest, _ := strings.Cut(d.Text, "\n")
		if p.Cols != nil {
			header = setAttr(header, "cols", strconv.Itoa(*p.Cols), false)
		}
		if p.Margin != nil {
			header = setAttr(header, "margin", *p.Margin, false)
		}
		if p.Align != nil {
			header = setAttr(header, "align", *p.Align, false)
		}
		return header + "\n" + rest, nil
	case KindTable:
		if p.Align == nil {
			return "", invalid("Only column alignment can be changed this way for tables.", suggestions(KindTable)...)
		}
		out, ok := tableFastPath(d.Text, intent{align: *p.Align})
		if !ok {
			return "", invalid("The table has no column-spec line to align.")
		}
		return out, nil
	}
	return "", invalid("Unknown component kind " + string(d.Kind) + ".")
}
