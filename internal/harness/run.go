package harness

import (
	"context"
	"fmt"

	"github.com/roach88/docgolden/internal/errmatch"
)

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name  string `json:"name"`
	Pass  bool   `json:"pass"`
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a suite run.
type Result struct {
	Suite string       `json:"suite"`
	Pass  bool         `json:"pass"`
	Cases []CaseResult `json:"cases"`
}

// NewResult creates a new passing result.
func NewResult(suite string) *Result {
	return &Result{Suite: suite, Pass: true, Cases: []CaseResult{}}
}

// add records a case outcome. A non-nil err fails the suite.
func (r *Result) add(name string, err error) {
	cr := CaseResult{Name: name, Pass: err == nil}
	if err != nil {
		cr.Error = err.Error()
		r.Pass = false
	}
	r.Cases = append(r.Cases, cr)
}

// Failed returns the failing cases.
func (r *Result) Failed() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// RunSuite renders every case against the loaded fixtures.
//
// Cases run sequentially in file order and every case runs even after a
// failure. The returned error is reserved for setup problems; case failures
// are reported in the Result.
func (h *Harness) RunSuite(ctx context.Context, suite *Suite) (*Result, error) {
	if h.generator == nil {
		return nil, ErrNoGenerator
	}

	result := NewResult(suite.Name)
	for i := range suite.Cases {
		c := &suite.Cases[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := h.runCase(ctx, c)
		result.add(c.Name, err)
		if err != nil {
			h.logger.Warn("case failed", "suite", suite.Name, "case", c.Name, "error", err)
		} else {
			h.logger.Debug("case passed", "suite", suite.Name, "case", c.Name)
		}
	}
	h.logger.Info("suite finished",
		"suite", suite.Name,
		"cases", len(result.Cases),
		"failed", len(result.Failed()),
	)
	return result, nil
}

func (h *Harness) runCase(ctx context.Context, c *Case) error {
	opts := c.generatorOptions()

	if c.Expect != "" {
		return h.RenderAndCompare(ctx, c.Input, opts, c.Expect)
	}

	expected := c.Error
	if expected == nil {
		var err error
		if expected, err = errmatch.LoadFile(c.ErrorFile); err != nil {
			return err
		}
	}

	template, err := h.CreateDoc(c.Input)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Input, err)
	}
	return errmatch.AssertThrows(func() error {
		_, err := h.generator.Generate(ctx, template, opts)
		return err
	}, expected)
}
