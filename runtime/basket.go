package runtime

import (
	"github.com/pkg/errors"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

// ErrUnknownBasket is returned for ids that were never created or were
// already deleted.
var ErrUnknownBasket = errors.New("unknown basket")

// cacheKey addresses one memoized attribute inside a basket. Parameter
// reads through ξ and attribute calculations live in separate key spaces:
// for a basket whose site is its own object the two resolve the same
// locator in different baskets.
type cacheKey struct {
	ob    model.ObjectID
	attr  model.Attr
	param bool
}

// Basket is an activation record: the object it evaluates, the site whose
// applied reference opened it (the site's attributes are the basket's
// parameters), the enclosing basket captured at creation, and the cache of
// everything already computed in it.
type Basket struct {
	Object model.ObjectID
	Site   model.ObjectID
	Psi    core.BasketID

	cache map[cacheKey]core.Data
	kids  []core.BasketID
	live  bool
}

// Cached returns the number of memoized values in the basket.
func (b *Basket) Cached() int {
	return len(b.cache)
}

// Baskets is the growable basket table. Ids are slice indexes; deleted ids
// go to a free list and are handed out again by Create. Enclosing links are
// plain ids, so a lookup is one index operation.
type Baskets struct {
	items []Basket
	free  []core.BasketID
	live  int
	peak  int
	keep  bool
}

// NewBaskets returns an empty table with room for capacity records.
func NewBaskets(capacity int) *Baskets {
	return &Baskets{items: make([]Basket, 0, capacity)}
}

// SetKeep disables (true) or re-enables (false) deletion. While disabled,
// Delete succeeds without removing anything so every activation of an
// evaluation stays inspectable.
func (t *Baskets) SetKeep(keep bool) {
	t.keep = keep
}

// Create allocates a basket bound to ob, opened by site, enclosed by psi.
func (t *Baskets) Create(ob, site model.ObjectID, psi core.BasketID) core.BasketID {
	var id core.BasketID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
		b := &t.items[id]
		clear(b.cache)
		b.Object, b.Site, b.Psi = ob, site, psi
		b.kids = b.kids[:0]
		b.live = true
	} else {
		id = core.BasketID(len(t.items))
		t.items = append(t.items, Basket{
			Object: ob,
			Site:   site,
			Psi:    psi,
			cache:  make(map[cacheKey]core.Data, 4),
			live:   true,
		})
	}
	if t.valid(psi) {
		t.items[psi].kids = append(t.items[psi].kids, id)
	}
	t.live++
	if t.live > t.peak {
		t.peak = t.live
	}
	return id
}

// Delete removes bx together with every basket created beneath it. The
// root basket cannot be deleted. With deletion disabled it is a no-op.
func (t *Baskets) Delete(bx core.BasketID) error {
	if !t.valid(bx) {
		return errors.Wrapf(ErrUnknownBasket, "delete %s", bx)
	}
	if bx == core.RootBasket {
		return errors.New("root basket cannot be deleted")
	}
	if t.keep {
		return nil
	}

	if psi := t.items[bx].Psi; t.valid(psi) {
		kids := t.items[psi].kids
		for i, k := range kids {
			if k == bx {
				t.items[psi].kids = append(kids[:i], kids[i+1:]...)
				break
			}
		}
	}

	stack := []core.BasketID{bx}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b := &t.items[id]
		stack = append(stack, b.kids...)
		b.live = false
		b.kids = b.kids[:0]
		t.free = append(t.free, id)
		t.live--
	}
	return nil
}

// Get returns the basket record. The pointer is invalidated by the next
// Create.
func (t *Baskets) Get(bx core.BasketID) (*Basket, error) {
	if !t.valid(bx) {
		return nil, errors.Wrapf(ErrUnknownBasket, "%s", bx)
	}
	return &t.items[bx], nil
}

// Enclosing returns the enclosing link of a live basket.
func (t *Baskets) Enclosing(bx core.BasketID) core.BasketID {
	return t.items[bx].Psi
}

// Site returns the site of a live basket.
func (t *Baskets) Site(bx core.BasketID) model.ObjectID {
	return t.items[bx].Site
}

// Lookup returns the memoized value of (ob, attr) in bx.
func (t *Baskets) Lookup(bx core.BasketID, ob model.ObjectID, attr model.Attr) (core.Data, bool) {
	v, ok := t.items[bx].cache[cacheKey{ob: ob, attr: attr}]
	return v, ok
}

// Store memoizes v as the value of (ob, attr) in bx.
func (t *Baskets) Store(bx core.BasketID, ob model.ObjectID, attr model.Attr, v core.Data) {
	t.items[bx].cache[cacheKey{ob: ob, attr: attr}] = v
}

// LookupParam returns the memoized value of parameter attr read through
// the site ob of bx.
func (t *Baskets) LookupParam(bx core.BasketID, ob model.ObjectID, attr model.Attr) (core.Data, bool) {
	v, ok := t.items[bx].cache[cacheKey{ob: ob, attr: attr, param: true}]
	return v, ok
}

// StoreParam memoizes v as the value of parameter attr of site ob in bx.
func (t *Baskets) StoreParam(bx core.BasketID, ob model.ObjectID, attr model.Attr, v core.Data) {
	t.items[bx].cache[cacheKey{ob: ob, attr: attr, param: true}] = v
}

// Live returns the number of baskets currently allocated.
func (t *Baskets) Live() int {
	return t.live
}

// Peak returns the largest number of baskets alive at once.
func (t *Baskets) Peak() int {
	return t.peak
}

// Bound counts live baskets bound to ob.
func (t *Baskets) Bound(ob model.ObjectID) int {
	n := 0
	for i := range t.items {
		if t.items[i].live && t.items[i].Object == ob {
			n++
		}
	}
	return n
}

// Depth returns the number of enclosing links between bx and the root.
func (t *Baskets) Depth(bx core.BasketID) int {
	d := 0
	for t.valid(bx) && t.items[bx].Psi != core.NoBasket {
		bx = t.items[bx].Psi
		d++
	}
	return d
}

func (t *Baskets) valid(bx core.BasketID) bool {
	return bx >= 0 && int(bx) < len(t.items) && t.items[bx].live
}
