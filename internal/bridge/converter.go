// Package bridge regenerates one editing surface from the other through the
// intermediate document tree. The conversion functions themselves are
// supplied by the caller.
package bridge

import (
	"errors"
	"fmt"

	"github.com/bethropolis/scribe/internal/logger"
)

// ErrConversion is returned when a converter fails or panics.
var ErrConversion = errors.New("conversion failed")

// IR is an intermediate document tree. Its shape belongs to the converter.
type IR any

// Converter parses both surfaces into IR and serializes IR back out.
type Converter interface {
	ParseXmd(text string) (IR, error)
	ParseLatex(text string) (IR, error)
	ToXmd(tree IR) (string, error)
	ToLatexDocument(tree IR) (string, error)
}

// ConverterFuncs adapts four plain functions to a Converter. Nil fields fail
// with ErrConversion.
type ConverterFuncs struct {
	ParseXmdFunc        func(string) (IR, error)
	ParseLatexFunc      func(string) (IR, error)
	ToXmdFunc           func(IR) (string, error)
	ToLatexDocumentFunc func(IR) (string, error)
}

func (f ConverterFuncs) ParseXmd(text string) (IR, error) {
	if f.ParseXmdFunc == nil {
		return nil, fmt.Errorf("parse xmd: %w", ErrConversion)
	}
	return f.ParseXmdFunc(text)
}

func (f ConverterFuncs) ParseLatex(text string) (IR, error) {
	if f.ParseLatexFunc == nil {
		return nil, fmt.Errorf("parse latex: %w", ErrConversion)
	}
	return f.ParseLatexFunc(text)
}

func (f ConverterFuncs) ToXmd(tree IR) (string, error) {
	if f.ToXmdFunc == nil {
		return "", fmt.Errorf("serialize xmd: %w", ErrConversion)
	}
	return f.ToXmdFunc(tree)
}

func (f ConverterFuncs) ToLatexDocument(tree IR) (string, error) {
	if f.ToLatexDocumentFunc == nil {
		return "", fmt.Errorf("serialize latex: %w", ErrConversion)
	}
	return f.ToLatexDocumentFunc(tree)
}

// guard runs one conversion step, turning errors and panics into ErrConversion.
func guard[T any](step string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Bridge: %s panicked: %v", step, r)
			var zero T
			out, err = zero, fmt.Errorf("%s: panic: %v: %w", step, r, ErrConversion)
		}
	}()
	out, err = fn()
	if err != nil {
		if !errors.Is(err, ErrConversion) {
			err = fmt.Errorf("%s: %v: %w", step, err, ErrConversion)
		}
		var zero T
		return zero, err
	}
	return out, nil
}
