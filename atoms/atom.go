// Package atoms provides the operations objects delegate to through λ.
//
// An atom never touches baskets directly. It receives the owning object and
// the active basket, and pulls its operands through the engine's Calc, which
// resolves ρ and 𝛼N with the usual memoization. Two interchangeable
// representations exist:
//   - Native: a Go function implementing the formula directly
//   - Bytecode: a short program run by a register interpreter
//
// Both are registered by name in a Catalog. The engine resolves λ names
// against the catalog selected by Flavor once, when it is built.
//
// Available operations:
//   - Arithmetic: int-add, int-sub, int-mul, int-div, int-neg
//   - Comparison: int-less, int-eq
//   - Control: bool-if (lazy in both branches)
package atoms

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

// Calculator is the engine handle an atom reads its operands through.
type Calculator interface {
	Calc(ob model.ObjectID, attr model.Attr, bx core.BasketID) (core.Data, error)
}

// Atom evaluates an object directly.
type Atom interface {
	Name() string
	Apply(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error)
}

// Func adapts a plain function to the Atom interface.
type Func struct {
	name string
	fn   func(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error)
}

// NewFunc wraps fn as a native atom called name.
func NewFunc(name string, fn func(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the λ name of the atom.
func (f *Func) Name() string { return f.name }

// Apply runs the function.
func (f *Func) Apply(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	return f.fn(c, ob, bx)
}

// Flavor selects which representation the engine dispatches to.
type Flavor string

// Known flavors.
const (
	Native   Flavor = "native"
	Bytecode Flavor = "bytecode"
)

// ParseFlavor validates a flavor name.
func ParseFlavor(s string) (Flavor, error) {
	switch Flavor(s) {
	case Native, Bytecode:
		return Flavor(s), nil
	case "":
		return Native, nil
	}
	return "", errors.Errorf("unknown atom flavor %q (want %q or %q)", s, Native, Bytecode)
}

// Catalog maps λ names to atoms.
type Catalog map[string]Atom

// Lookup returns the atom called name or ErrUnknownAtom.
func (c Catalog) Lookup(name string) (Atom, error) {
	a, ok := c[name]
	if !ok {
		return nil, errors.Wrapf(model.ErrUnknownAtom, "%q", name)
	}
	return a, nil
}

// Names lists the registered names in order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a.
func (c Catalog) Register(a Atom) {
	c[a.Name()] = a
}

// NativeCatalog returns a fresh catalog of the native atoms.
func NativeCatalog() Catalog {
	c := Catalog{}
	for _, a := range nativeAtoms {
		c.Register(a)
	}
	return c
}

// BytecodeCatalog returns the native catalog with every atom that has a
// program replaced by its interpreted form.
func BytecodeCatalog() Catalog {
	c := NativeCatalog()
	for name, prog := range Programs {
		c.Register(&Interpreted{name: name, prog: prog})
	}
	return c
}

// CatalogFor returns the catalog of flavor f.
func CatalogFor(f Flavor) Catalog {
	if f == Bytecode {
		return BytecodeCatalog()
	}
	return NativeCatalog()
}
