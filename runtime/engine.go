// Package runtime implements the dataization engine.
//
// The engine reduces a basket to a single scalar by walking the frozen
// object table. Every applied reference opens a new basket whose enclosing
// link is the basket active at that moment; that link is what ξ-paths walk,
// so closures and recursion work purely through basket creation. Every
// value computed inside a basket is memoized there, so each attribute of an
// activation is computed at most once.
//
// Key components:
//   - Engine: owns the object table, the basket table and the atom bindings
//   - Baskets: growable activation-record table with enclosing links and caches
//   - Perf: per-dataization transition histogram and atom counters
//   - Stats: cumulative counters across dataizations
//
// Execution model:
//  1. Populate the table (Put, or Load from the textual/compiled form)
//  2. The first dataization freezes the table and binds λ names to atoms
//  3. Dataize the root basket, or a basket created with New
//  4. Delete baskets that are no longer needed
//
// An Engine is single-threaded. Independent engines may run in parallel,
// sharing one table as long as it was frozen before they started.
package runtime

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sbl8/eoc/atoms"
	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

// Options configures engine behavior.
type Options struct {
	// KeepBaskets disables basket deletion for diagnostics.
	KeepBaskets bool
	// Flavor selects native or interpreted atoms.
	Flavor atoms.Flavor
	// Catalog overrides the catalog implied by Flavor.
	Catalog atoms.Catalog
	// MaxDepth bounds nested evaluation; 0 means unbounded.
	MaxDepth int
	// Logger receives debug traces of basket lifecycle and atom failures.
	Logger *zap.Logger
}

// DefaultOptions provides the engine defaults: native atoms, deletion
// enabled, no depth bound, no logging.
func DefaultOptions() Options {
	return Options{
		Flavor: atoms.Native,
		Logger: zap.NewNop(),
	}
}

// Engine evaluates one object table.
type Engine struct {
	table   *model.Table
	baskets *Baskets
	catalog atoms.Catalog
	bound   []atoms.Atom
	opts    Options
	log     *zap.Logger
	perf    Perf
	depth   int

	stats Stats
	mu    sync.RWMutex
}

// Empty creates an engine with default options over an empty table.
func Empty() *Engine {
	e, _ := NewEngine(model.NewTable(), nil)
	return e
}

// NewEngine creates an engine over table. The root basket is created
// immediately, bound to the root object.
func NewEngine(table *model.Table, opts *Options) (*Engine, error) {
	if table == nil {
		return nil, errors.New("table cannot be nil")
	}
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxDepth < 0 {
		return nil, errors.Errorf("negative max depth %d", o.MaxDepth)
	}
	catalog := o.Catalog
	if catalog == nil {
		f, err := atoms.ParseFlavor(string(o.Flavor))
		if err != nil {
			return nil, err
		}
		catalog = atoms.CatalogFor(f)
	}

	e := &Engine{
		table:   table,
		baskets: NewBaskets(64),
		catalog: catalog,
		opts:    o,
		log:     o.Logger,
		perf:    newPerf(),
		stats:   Stats{Perf: newPerf()},
	}
	e.baskets.SetKeep(o.KeepBaskets)
	e.baskets.Create(model.RootObject, model.RootObject, core.NoBasket)
	return e, nil
}

// Put inserts an object before the first dataization.
func (e *Engine) Put(id model.ObjectID, o *model.Object) error {
	return e.table.Put(id, o)
}

// Table returns the engine's object table.
func (e *Engine) Table() *model.Table {
	return e.table
}

// Baskets exposes the basket table for inspection.
func (e *Engine) Baskets() *Baskets {
	return e.baskets
}

// SetKeepBaskets toggles the diagnostic mode that disables deletion.
func (e *Engine) SetKeepBaskets(keep bool) {
	e.opts.KeepBaskets = keep
	e.baskets.SetKeep(keep)
}

// New creates a basket bound to ob and enclosed by psi. The basket is its
// own site: ξ-paths read from it select ob's own attributes.
func (e *Engine) New(ob model.ObjectID, psi core.BasketID) (core.BasketID, error) {
	if !e.table.Has(ob) {
		return 0, errors.Wrapf(model.ErrUnknownObject, "new basket for %s", ob)
	}
	if _, err := e.baskets.Get(psi); err != nil {
		return 0, errors.WithMessage(err, "enclosing basket")
	}
	return e.spawn(ob, ob, psi), nil
}

// Delete removes bx and the baskets created beneath it, unless deletion is
// disabled.
func (e *Engine) Delete(bx core.BasketID) error {
	if err := e.baskets.Delete(bx); err != nil {
		return err
	}
	if ce := e.log.Check(zap.DebugLevel, "basket deleted"); ce != nil {
		ce.Write(zap.Stringer("basket", bx), zap.Bool("kept", e.opts.KeepBaskets))
	}
	return nil
}

// Dataize reduces the root basket.
func (e *Engine) Dataize() (core.Data, Perf, error) {
	return e.DataizeBasket(core.RootBasket)
}

// DataizeBasket reduces bx to a scalar and returns it together with the
// performance snapshot of this call.
func (e *Engine) DataizeBasket(bx core.BasketID) (core.Data, Perf, error) {
	if err := e.freeze(); err != nil {
		return 0, Perf{}, err
	}
	b, err := e.baskets.Get(bx)
	if err != nil {
		return 0, Perf{}, err
	}
	ob := b.Object

	e.perf = newPerf()
	e.depth = 0
	start := time.Now()
	v, err := e.eval(ob, bx)
	elapsed := time.Since(start)

	e.mu.Lock()
	e.stats.record(e.perf, elapsed, err != nil)
	e.stats.LiveBaskets = e.baskets.Live()
	e.stats.PeakBaskets = e.baskets.Peak()
	e.mu.Unlock()

	if err != nil {
		if ce := e.log.Check(zap.DebugLevel, "dataization failed"); ce != nil {
			ce.Write(zap.Stringer("basket", bx), zap.Error(err))
		}
		return 0, e.perf, err
	}
	return v, e.perf, nil
}

// Calc dataizes attribute attr of ob in basket bx, memoized in bx. It is
// the entry point atoms pull their operands through.
func (e *Engine) Calc(ob model.ObjectID, attr model.Attr, bx core.BasketID) (core.Data, error) {
	if err := e.freeze(); err != nil {
		return 0, err
	}
	if !e.baskets.valid(bx) {
		return 0, errors.Wrapf(ErrUnknownBasket, "calc %s.%s", ob, attr)
	}
	return e.calc(ob, attr, bx)
}

// Stats returns a copy of the cumulative counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats.clone()
}

// freeze binds λ names to atoms and makes the table read-only. It runs
// once; later calls are no-ops.
func (e *Engine) freeze() error {
	if e.table.Frozen() && e.bound != nil {
		return nil
	}
	ids := e.table.IDs()
	size := 0
	if len(ids) > 0 {
		size = int(ids[len(ids)-1]) + 1
	}
	bound := make([]atoms.Atom, size)
	for _, id := range ids {
		o, _ := e.table.Get(id)
		if o.Lambda == "" {
			continue
		}
		a, err := e.catalog.Lookup(o.Lambda)
		if err != nil {
			return errors.WithMessagef(err, "%s", id)
		}
		bound[id] = a
	}
	e.bound = bound
	if !e.table.Frozen() {
		e.table.Freeze()
	}
	return nil
}

func (e *Engine) spawn(ob, site model.ObjectID, psi core.BasketID) core.BasketID {
	c := e.baskets.Create(ob, site, psi)
	e.perf.fire(TransitionNew)
	if ce := e.log.Check(zap.DebugLevel, "basket created"); ce != nil {
		ce.Write(
			zap.Stringer("basket", c),
			zap.Stringer("object", ob),
			zap.Stringer("site", site),
			zap.Stringer("psi", psi),
		)
	}
	return c
}
