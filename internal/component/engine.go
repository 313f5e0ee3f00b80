package component

import (
	"context"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bethropolis/scribe/internal/logger"
)

// Planner asks a model for a plan. It returns the raw reply text.
type Planner interface {
	Plan(ctx context.Context, prompt string) (string, error)
}

// PlannerFunc adapts a function to a Planner.
type PlannerFunc func(ctx context.Context, prompt string) (string, error)

func (f PlannerFunc) Plan(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Source tells which path produced an outcome.
type Source string

const (
	SourceFastPath Source = "fast-path"
	SourcePlanner  Source = "planner"
	SourceClarify  Source = "clarify"
)

// Outcome is the result of an edit request: either a validated replacement
// or a clarifying question.
type Outcome struct {
	Replacement string
	Clarify     *Clarify
	Source      Source
}

// Engine runs instructions against one component at a time.
type Engine struct {
	planner Planner
	opts    Options
	schema  *jsonschema.Schema
}

// NewEngine creates an engine. A nil planner limits it to the fast path.
func NewEngine(planner Planner, opts Options) (*Engine, error) {
	schema, err := compilePlanSchema()
	if err != nil {
		return nil, err
	}
	return &Engine{planner: planner, opts: opts.withDefaults(), schema: schema}, nil
}

// Edit turns an instruction into a validated replacement for d, or a question.
// The document is never touched here; see EditDocument.
func (e *Engine) Edit(ctx context.Context, d Detail, instruction string) (Outcome, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return Outcome{}, invalid("Describe the change you want.", suggestions(d.Kind)...)
	}
	if err := checkScope(d, instruction); err != nil {
		return Outcome{}, err
	}
	if q := clarifyFor(d, instruction); q != nil {
		logger.DebugTagf("component", "Component: asking for clarification on %q", instruction)
		return Outcome{Clarify: q, Source: SourceClarify}, nil
	}

	if out, ok := FastPath(d, instruction, e.opts); ok {
		if err := Validate(d, out); err != nil {
			return Outcome{}, err
		}
		return Outcome{Replacement: out, Source: SourceFastPath}, nil
	}

	if e.planner == nil {
		return Outcome{}, invalid("That change needs the assistant, which is not available.", suggestions(d.Kind)...)
	}
	reply, err := e.planner.Plan(ctx, BuildPrompt(d, instruction))
	if err != nil {
		return Outcome{}, fmt.Errorf("plan %s edit: %w", d.Kind, err)
	}
	plan, err := ParsePlan(e.schema, reply)
	if err != nil {
		return Outcome{}, err
	}
	if plan.Clarify != nil {
		if len(plan.Clarify.Suggestions) == 0 {
			plan.Clarify.Suggestions = suggestions(d.Kind)
		}
		return Outcome{Clarify: plan.Clarify, Source: SourceClarify}, nil
	}
	out, err := ApplyPatch(d, *plan.Patch)
	if err != nil {
		return Outcome{}, err
	}
	if err := Validate(d, out); err != nil {
		return Outcome{}, err
	}
	logger.DebugTagf("component", "Component: planner produced %s edit (%d bytes)", d.Kind, len(out))
	return Outcome{Replacement: out, Source: SourcePlanner}, nil
}

// EditDocument detects the component at offset, edits it and splices the
// result back. When the outcome is a question the document is returned as is.
func (e *Engine) EditDocument(ctx context.Context, doc string, offset int, instruction string) (string, Detail, Outcome, error) {
	d, err := Detect(doc, offset)
	if err != nil {
		return doc, Detail{}, Outcome{}, err
	}
	outcome, err := e.Edit(ctx, d, instruction)
	if err != nil || outcome.Clarify != nil {
		return doc, d, outcome, err
	}
	next, err := Replace(doc, d, outcome.Replacement)
	return next, d, outcome, err
}
