package bench

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sbl8/eoc/atoms"
	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
	"github.com/sbl8/eoc/runtime"
)

// ErrMismatch marks a case whose result differs from its expectation.
var ErrMismatch = errors.New("expectation mismatch")

// Suite is a list of regression cases, usually read from a TOML file:
//
//	[[case]]
//	name = "fibonacci-7"
//	fibonacci = 7
//	expect = 21
//	atoms_total = 142
//
//	[[case]]
//	name = "empty root"
//	graph = "ν0 ↦ ⟦ ⟧"
//	error = "empty object"
type Suite struct {
	Cases []Case `toml:"case"`

	dir string
}

// Case is one graph and what dataizing it must produce. Exactly one of
// Source, Graph and Fibonacci selects the graph.
type Case struct {
	Name       string `toml:"name"`
	Source     string `toml:"source"`    // graph file, relative to the suite
	Graph      string `toml:"graph"`     // inline textual graph
	Fibonacci  *int   `toml:"fibonacci"` // generated fibonacci graph input
	Atoms      string `toml:"atoms"`     // flavor override
	MaxDepth   int    `toml:"max_depth"`
	Expect     *int64 `toml:"expect"`
	AtomsTotal *int   `toml:"atoms_total"`
	Error      string `toml:"error"` // expected error substring
}

// Outcome is the verdict on one case.
type Outcome struct {
	Case    string
	Value   core.Data
	Atoms   int
	Elapsed time.Duration
	Err     error // nil when the case passed
}

// Passed reports whether the case met its expectations.
func (o Outcome) Passed() bool {
	return o.Err == nil
}

// LoadSuite reads a TOML suite file. Unknown keys are rejected.
func LoadSuite(path string) (*Suite, error) {
	var s Suite
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, errors.Wrapf(err, "decode suite %s", path)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, errors.WithMessagef(err, "suite %s", path)
	}
	s.dir = filepath.Dir(path)
	return &s, s.Validate()
}

// ParseSuite decodes a TOML suite from memory; Source paths resolve
// against dir.
func ParseSuite(data, dir string) (*Suite, error) {
	var s Suite
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, errors.Wrap(err, "decode suite")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	s.dir = dir
	return &s, s.Validate()
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.Errorf("unknown keys: %s", strings.Join(names, ", "))
	}
	return nil
}

// Validate checks that every case is well formed.
func (s *Suite) Validate() error {
	seen := map[string]bool{}
	for i, c := range s.Cases {
		if c.Name == "" {
			return errors.Errorf("case %d has no name", i)
		}
		if seen[c.Name] {
			return errors.Errorf("case %q declared twice", c.Name)
		}
		seen[c.Name] = true

		sources := 0
		for _, set := range []bool{c.Source != "", c.Graph != "", c.Fibonacci != nil} {
			if set {
				sources++
			}
		}
		if sources != 1 {
			return errors.Errorf("case %q needs exactly one of source, graph, fibonacci", c.Name)
		}
		if c.Expect == nil && c.AtomsTotal == nil && c.Error == "" {
			return errors.Errorf("case %q expects nothing", c.Name)
		}
		if c.Error != "" && (c.Expect != nil || c.AtomsTotal != nil) {
			return errors.Errorf("case %q expects both a failure and a result", c.Name)
		}
		if _, err := atoms.ParseFlavor(c.Atoms); err != nil {
			return errors.WithMessagef(err, "case %q", c.Name)
		}
	}
	return nil
}

// Run checks every case, at most parallel at a time, each on its own
// engine built from base. The returned outcomes follow the case order; the
// error is reserved for ctx cancellation.
func (s *Suite) Run(ctx context.Context, base runtime.Options, parallel int, log *zap.Logger) ([]Outcome, error) {
	if parallel < 1 {
		parallel = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	outcomes := make([]Outcome, len(s.Cases))
	eg, gctx := errgroup.WithContext(ctx)
	numCh := make(chan struct{}, parallel)
schedule:
	for i := range s.Cases {
		idx := i
		select {
		case numCh <- struct{}{}:
		case <-gctx.Done():
			break schedule
		}
		eg.Go(func() error {
			defer func() {
				<-numCh
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			out := s.check(s.Cases[idx], base)
			if out.Err != nil {
				log.Debug("case failed", zap.String("case", out.Case), zap.Error(out.Err))
			}
			outcomes[idx] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Failed counts the outcomes that did not pass.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}

func (s *Suite) check(c Case, base runtime.Options) Outcome {
	out := Outcome{Case: c.Name}

	t, err := s.table(c)
	if err != nil {
		out.Err = err
		return out
	}
	opts := base
	if c.Atoms != "" {
		opts.Flavor = atoms.Flavor(c.Atoms)
		opts.Catalog = nil
	}
	if c.MaxDepth > 0 {
		opts.MaxDepth = c.MaxDepth
	}
	e, err := runtime.NewEngine(t, &opts)
	if err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	v, perf, err := e.Dataize()
	out.Elapsed = time.Since(start)
	out.Value = v
	out.Atoms = perf.TotalAtoms()

	switch {
	case c.Error != "":
		if err == nil {
			out.Err = errors.Wrapf(ErrMismatch, "want error %q, got %s", c.Error, v)
		} else if !strings.Contains(err.Error(), c.Error) {
			out.Err = errors.Wrapf(ErrMismatch, "want error %q, got %v", c.Error, err)
		}
	case err != nil:
		out.Err = err
	case c.Expect != nil && v != core.Data(*c.Expect):
		out.Err = errors.Wrapf(ErrMismatch, "want %d, got %d", *c.Expect, v)
	case c.AtomsTotal != nil && out.Atoms != *c.AtomsTotal:
		out.Err = errors.Wrapf(ErrMismatch, "want %d atom invocations, got %d", *c.AtomsTotal, out.Atoms)
	}
	return out
}

func (s *Suite) table(c Case) (*model.Table, error) {
	switch {
	case c.Fibonacci != nil:
		return FibonacciGraph(*c.Fibonacci)
	case c.Graph != "":
		return runtime.LoadTable([]byte(c.Graph))
	}
	path := c.Source
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return runtime.LoadTable(data)
}
