package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bethropolis/scribe/internal/component"
	"github.com/bethropolis/scribe/internal/core/block"
	"github.com/bethropolis/scribe/internal/core/history"
	"github.com/bethropolis/scribe/internal/core/latex"
	"github.com/bethropolis/scribe/internal/logger"
	"github.com/bethropolis/scribe/internal/utils"
)

// RegisterBuiltins registers the editing commands.
func RegisterBuiltins(r *Registry) error {
	builtins := []Command{
		{Name: "segment", Summary: "print the blocks around a line as JSON", Run: runSegment},
		{Name: "apply", Summary: "apply block operations from a JSON file", Run: runApply},
		{Name: "insert", Summary: "insert text next to the cursor block, or line with -latex", Run: runInsert},
		{Name: "component", Summary: "edit the figure, grid or table at a position", Run: runComponent},
		{Name: "track", Summary: "diff a proposed revision into change blocks and resolve them", Run: runTrack},
		{Name: "stats", Summary: "count lines, words, characters and bytes", Run: runStats},
	}
	for _, cmd := range builtins {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// commonFlags are accepted by every command.
type commonFlags struct {
	doc     string
	copyOut bool
	line    int
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := &commonFlags{}
	fs.StringVar(&c.doc, "doc", "", "Stored document id to read from (when no file is given) and save to")
	fs.BoolVar(&c.copyOut, "copy", false, "Copy the result to the clipboard")
	fs.IntVar(&c.line, "line", 1, "1-based cursor line")
	return fs, c
}

// lineOffset returns the byte offset where the 1-based line starts, clamped.
func lineOffset(text string, line int) int {
	starts := utils.LineStarts(text)
	idx := min(max(line-1, 0), len(starts)-1)
	return starts[idx]
}

func runSegment(ctx context.Context, env *Env, args []string) error {
	fs, c := newFlagSet("segment")
	window := fs.Int("window", env.Config.Editor.SegmentWindow, "Lines segmented on each side of the cursor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	h, err := env.handle(c.doc)
	if err != nil {
		return err
	}
	text, err := env.readInput(ctx, fs.Arg(0), h, history.Markdown)
	if err != nil {
		return err
	}

	seg := block.Segmenter{Window: *window}.Segment(text, c.line-1)
	data, err := json.MarshalIndent(seg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode segmentation: %w", err)
	}
	return env.emit(string(data)+"\n", c.copyOut)
}

func runApply(ctx context.Context, env *Env, args []string) error {
	fs, c := newFlagSet("apply")
	opsPath := fs.String("ops", "", "JSON file holding the operation array")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *opsPath == "" {
		return errors.New("-ops is required")
	}
	data, err := os.ReadFile(*opsPath)
	if err != nil {
		return fmt.Errorf("read operations: %w", err)
	}
	ops, err := block.ParseOperations(data)
	if err != nil {
		return err
	}
	h, err := env.handle(c.doc)
	if err != nil {
		return err
	}
	text, err := env.readInput(ctx, fs.Arg(0), h, history.Markdown)
	if err != nil {
		return err
	}

	seg := block.Segmenter{Window: env.Config.Editor.SegmentWindow}.Segment(text, c.line-1)
	out := block.Apply(text, seg.Blocks, ops)
	if h != nil {
		if err := h.UpdateContent(ctx, out); err != nil {
			return err
		}
	}
	logger.Debugf("Commands: applied %d operations over %d blocks", len(ops), len(seg.Blocks))
	return env.emit(out, c.copyOut)
}

func runInsert(ctx context.Context, env *Env, args []string) error {
	fs, c := newFlagSet("insert")
	onLatex := fs.Bool("latex", false, "Treat the input as a LaTeX document")
	place := fs.String("place", "after", "Side of the cursor block or line: before or after")
	content := fs.String("text", "", "Text to insert")
	if err := fs.Parse(args); err != nil {
		return err
	}
	placement, err := latex.ParsePlacement(*place)
	if err != nil {
		return err
	}
	surface := history.Markdown
	if *onLatex {
		surface = history.Latex
	}
	h, err := env.handle(c.doc)
	if err != nil {
		return err
	}
	text, err := env.readInput(ctx, fs.Arg(0), h, surface)
	if err != nil {
		return err
	}
	if surface == history.Latex && text == "" {
		return errors.New("empty LaTeX document")
	}

	sess, err := env.newSession(h)
	if err != nil {
		return err
	}
	defer sess.Close()
	if surface == history.Latex {
		sess.Load("", text, history.Latex)
	} else {
		sess.Load(text, "", history.Markdown)
	}
	off := lineOffset(text, c.line)
	sess.SetSelection(surface, off, off)
	if err := sess.InsertAtCursorPlaced(ctx, *content, placement); err != nil {
		return err
	}
	return env.emit(sess.Content(surface), c.copyOut)
}

func runComponent(ctx context.Context, env *Env, args []string) error {
	fs, c := newFlagSet("component")
	offset := fs.Int("offset", -1, "Byte offset inside the component (overrides -line)")
	instruction := fs.String("i", "", "Instruction, e.g. \"make it bigger\"")
	if err := fs.Parse(args); err != nil {
		return err
	}
	h, err := env.handle(c.doc)
	if err != nil {
		return err
	}
	text, err := env.readInput(ctx, fs.Arg(0), h, history.Markdown)
	if err != nil {
		return err
	}
	off := *offset
	if off < 0 {
		off = lineOffset(text, c.line)
	}

	sess, err := env.newSession(h)
	if err != nil {
		return err
	}
	defer sess.Close()
	sess.Load(text, "", history.Markdown)

	outcome, err := sess.EditComponent(ctx, off, *instruction)
	if err != nil {
		var verr *component.ValidationError
		if errors.As(err, &verr) && len(verr.Suggestions) > 0 {
			fmt.Fprintf(env.Stdout, "Try:\n")
			for _, s := range verr.Suggestions {
				fmt.Fprintf(env.Stdout, "  - %s\n", s)
			}
		}
		return err
	}
	if outcome.Clarify != nil {
		fmt.Fprintf(env.Stdout, "%s\n", outcome.Clarify.Question)
		for _, s := range outcome.Clarify.Suggestions {
			fmt.Fprintf(env.Stdout, "  - %s\n", s)
		}
		return nil
	}
	logger.Debugf("Commands: component edit via %s", outcome.Source)
	return env.emit(sess.Content(history.Markdown), c.copyOut)
}

func runTrack(ctx context.Context, env *Env, args []string) error {
	fs, c := newFlagSet("track")
	proposedPath := fs.String("proposed", "", "File holding the proposed revision")
	accept := fs.String("accept", "", "Comma-separated 1-based change numbers to accept")
	reject := fs.String("reject", "", "Comma-separated 1-based change numbers to reject")
	applyAll := fs.Bool("apply", false, "Accept every change not rejected")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *proposedPath == "" {
		return errors.New("-proposed is required")
	}
	proposed, err := os.ReadFile(*proposedPath)
	if err != nil {
		return fmt.Errorf("read proposed revision: %w", err)
	}
	accepted, err := parseIndexes(*accept)
	if err != nil {
		return fmt.Errorf("-accept: %w", err)
	}
	rejected, err := parseIndexes(*reject)
	if err != nil {
		return fmt.Errorf("-reject: %w", err)
	}
	h, err := env.handle(c.doc)
	if err != nil {
		return err
	}
	text, err := env.readInput(ctx, fs.Arg(0), h, history.Markdown)
	if err != nil {
		return err
	}

	sess, err := env.newSession(h)
	if err != nil {
		return err
	}
	defer sess.Close()
	sess.Load(text, "", history.Markdown)
	changes := sess.ProposeChanges(string(proposed))

	if len(accepted) == 0 && len(rejected) == 0 && !*applyAll {
		data, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			return fmt.Errorf("encode changes: %w", err)
		}
		return env.emit(string(data)+"\n", c.copyOut)
	}

	pick := func(n int) (string, error) {
		if n < 1 || n > len(changes) {
			return "", fmt.Errorf("no change %d (have %d)", n, len(changes))
		}
		return changes[n-1].ID, nil
	}
	for _, n := range rejected {
		id, err := pick(n)
		if err != nil {
			return err
		}
		sess.RejectChange(id)
	}
	for _, n := range accepted {
		id, err := pick(n)
		if err != nil {
			return err
		}
		if _, err := sess.AcceptChange(ctx, id); err != nil {
			return err
		}
	}
	if *applyAll {
		if _, err := sess.ApplyChanges(ctx); err != nil {
			return err
		}
	}
	return env.emit(sess.Content(history.Markdown), c.copyOut)
}

func parseIndexes(list string) ([]int, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func runStats(ctx context.Context, env *Env, args []string) error {
	fs, c := newFlagSet("stats")
	if err := fs.Parse(args); err != nil {
		return err
	}
	h, err := env.handle(c.doc)
	if err != nil {
		return err
	}
	text, err := env.readInput(ctx, fs.Arg(0), h, history.Markdown)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Lines: %d, Words: %d, Characters: %d, Bytes: %d\n",
		len(utils.LineStarts(text)), len(strings.Fields(text)), utils.GraphemeCount(text), len(text))
	return env.emit(msg, c.copyOut)
}
