// Package model defines the static object graph evaluated by the engine.
//
// An object is a node identified by a small non-negative integer. Each object
// carries an optional body (φ), context (ρ), literal (Δ), atom reference (λ)
// and positional arguments (𝛼0, 𝛼1, ...). Attributes other than the literal
// and the atom hold a Locator: either a direct reference to another object
// (optionally applied, which makes it a call) or a path made of ξ-hops and a
// terminal attribute.
//
// Key data structures:
//   - Attr: tagged attribute selector (φ, ρ, Δ, λ or 𝛼N)
//   - Locator: direct reference or ξ-path to an attribute
//   - Object: the attribute set of one node
//   - Table: id-addressed object arena, frozen before evaluation
//
// The table is populated once, either programmatically through Put or by
// the compiler from the textual notation, and is read-only afterwards.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sbl8/eoc/core"
)

// ObjectID identifies an object in the table.
type ObjectID int

// NoObject marks a locator that is a path rather than a direct reference.
const NoObject ObjectID = -1

// RootObject is the object the root basket is bound to.
const RootObject ObjectID = 0

// MaxObjectID is the largest id a table accepts. Tables index a slice by
// id, so the bound also caps the arena at 16M slots.
const MaxObjectID ObjectID = 1<<24 - 1

func (id ObjectID) String() string {
	return "ν" + strconv.Itoa(int(id))
}

// Attr selects one attribute of an object. Non-negative values are
// positional arguments; the named attributes are negative.
type Attr int

// Named attributes.
const (
	Phi    Attr = -1
	Rho    Attr = -2
	Delta  Attr = -3
	Lambda Attr = -4
)

// Arg returns the selector of positional argument n.
func Arg(n int) Attr {
	return Attr(n)
}

// IsArg reports whether a is a positional argument.
func (a Attr) IsArg() bool {
	return a >= 0
}

// Index returns the position of an argument selector.
func (a Attr) Index() int {
	return int(a)
}

func (a Attr) String() string {
	switch a {
	case Phi:
		return "φ"
	case Rho:
		return "ρ"
	case Delta:
		return "Δ"
	case Lambda:
		return "λ"
	}
	if a.IsArg() {
		return "𝛼" + strconv.Itoa(int(a))
	}
	return "attr(" + strconv.Itoa(int(a)) + ")"
}

// Locator points at what an attribute denotes. A direct locator names an
// object; a path locator walks Hops enclosing scopes and selects Attr there.
type Locator struct {
	Hops    int
	Object  ObjectID
	Attr    Attr
	Applied bool
}

// Ref is a plain indirection to id, evaluated in the current basket.
func Ref(id ObjectID) Locator {
	return Locator{Object: id}
}

// Call is an applied reference: resolving it opens a new basket bound to id.
func Call(id ObjectID) Locator {
	return Locator{Object: id, Applied: true}
}

// Path builds ξ^hops.attr.
func Path(hops int, a Attr) Locator {
	return Locator{Hops: hops, Object: NoObject, Attr: a}
}

// Direct reports whether l names an object rather than a path.
func (l Locator) Direct() bool {
	return l.Object != NoObject
}

// Validate checks the structural rules of a locator.
func (l Locator) Validate() error {
	if l.Hops < 0 {
		return errors.Wrapf(ErrMalformedLocator, "negative hop count %d", l.Hops)
	}
	if l.Direct() {
		if l.Object < 0 {
			return errors.Wrapf(ErrMalformedLocator, "negative object id %d", l.Object)
		}
		if l.Hops > 0 {
			return errors.Wrapf(ErrMalformedLocator, "direct reference %s cannot follow ξ", l.Object)
		}
		return nil
	}
	if l.Applied {
		return errors.Wrapf(ErrMalformedLocator, "path %s cannot be applied", l)
	}
	if l.Attr < Lambda {
		return errors.Wrapf(ErrMalformedLocator, "bad terminal selector %d", int(l.Attr))
	}
	return nil
}

func (l Locator) String() string {
	if l.Direct() {
		if l.Applied {
			return l.Object.String() + "(ξ)"
		}
		return l.Object.String()
	}
	return strings.Repeat("ξ.", l.Hops) + l.Attr.String()
}

// Object is the static attribute set of one node. Delta and Lambda are
// mutually exclusive; an object with neither Phi, Delta nor Lambda is empty
// and cannot be dataized.
type Object struct {
	Phi    *Locator
	Rho    *Locator
	Delta  *core.Data
	Lambda string
	Args   map[int]Locator
}

// Open returns an object with no attributes.
func Open() *Object {
	return &Object{}
}

// Dataic returns an object holding the literal d.
func Dataic(d core.Data) *Object {
	return &Object{Delta: &d}
}

// Atomic returns an object evaluated by the named atom.
func Atomic(name string) *Object {
	return &Object{Lambda: name}
}

// With binds a locator attribute (φ, ρ or an argument) and returns o.
// Literals and atoms are set through Dataic and Atomic.
func (o *Object) With(a Attr, l Locator) *Object {
	switch {
	case a == Phi:
		o.Phi = &l
	case a == Rho:
		o.Rho = &l
	case a.IsArg():
		if o.Args == nil {
			o.Args = make(map[int]Locator)
		}
		o.Args[a.Index()] = l
	default:
		panic(fmt.Sprintf("model: attribute %s does not hold a locator", a))
	}
	return o
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	c := &Object{Lambda: o.Lambda}
	if o.Phi != nil {
		phi := *o.Phi
		c.Phi = &phi
	}
	if o.Rho != nil {
		rho := *o.Rho
		c.Rho = &rho
	}
	if o.Delta != nil {
		d := *o.Delta
		c.Delta = &d
	}
	if o.Args != nil {
		c.Args = make(map[int]Locator, len(o.Args))
		for n, l := range o.Args {
			c.Args[n] = l
		}
	}
	return c
}

// Locator returns the locator bound to a, if any.
func (o *Object) Locator(a Attr) (Locator, bool) {
	switch {
	case a == Phi && o.Phi != nil:
		return *o.Phi, true
	case a == Rho && o.Rho != nil:
		return *o.Rho, true
	case a.IsArg():
		l, ok := o.Args[a.Index()]
		return l, ok
	}
	return Locator{}, false
}

// Empty reports whether the object is an abstract placeholder.
func (o *Object) Empty() bool {
	return o.Phi == nil && o.Delta == nil && o.Lambda == ""
}

// Validate checks the attribute invariants of a single object.
func (o *Object) Validate() error {
	if o.Delta != nil && o.Lambda != "" {
		return errors.New("object cannot carry both Δ and λ")
	}
	for _, a := range o.attrs() {
		l, _ := o.Locator(a)
		if err := l.Validate(); err != nil {
			return errors.WithMessagef(err, "attribute %s", a)
		}
	}
	return nil
}

// attrs lists the locator attributes in notation order: φ, ρ, then
// arguments by index.
func (o *Object) attrs() []Attr {
	var out []Attr
	if o.Phi != nil {
		out = append(out, Phi)
	}
	if o.Rho != nil {
		out = append(out, Rho)
	}
	idx := make([]int, 0, len(o.Args))
	for i := range o.Args {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		out = append(out, Arg(i))
	}
	return out
}

// String renders the object body in the textual notation.
func (o *Object) String() string {
	parts := make([]string, 0, 4+len(o.Args))
	if o.Phi != nil {
		parts = append(parts, "φ ↦ "+o.Phi.String())
	}
	if o.Rho != nil {
		parts = append(parts, "ρ ↦ "+o.Rho.String())
	}
	if o.Delta != nil {
		parts = append(parts, "Δ ↦ "+core.FormatHex(*o.Delta))
	}
	if o.Lambda != "" {
		parts = append(parts, "λ ↦ "+o.Lambda)
	}
	for _, a := range o.attrs() {
		if a.IsArg() {
			parts = append(parts, a.String()+" ↦ "+o.Args[a.Index()].String())
		}
	}
	if len(parts) == 0 {
		return "⟦ ⟧"
	}
	return "⟦ " + strings.Join(parts, ", ") + " ⟧"
}
