package runtime

import (
	"go.uber.org/zap"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

// eval dataizes object ob in basket bx.
func (e *Engine) eval(ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	if e.opts.MaxDepth > 0 {
		e.depth++
		defer func() { e.depth-- }()
		if e.depth > e.opts.MaxDepth {
			return 0, model.NewEvalError(model.ErrRecursionLimit, ob, bx, "deeper than %d", e.opts.MaxDepth)
		}
	}

	o, err := e.table.Get(ob)
	if err != nil {
		return 0, model.NewEvalError(model.ErrUnknownObject, ob, bx, "")
	}

	switch {
	case o.Delta != nil:
		e.perf.fire(TransitionDelta)
		return *o.Delta, nil
	case o.Lambda != "":
		return e.lambda(ob, bx)
	case o.Phi != nil && o.Phi.Applied:
		if v, ok := e.baskets.Lookup(bx, ob, model.Phi); ok {
			e.perf.fire(TransitionHit)
			return v, nil
		}
		v, err := e.follow(*o.Phi, ob, bx)
		if err != nil {
			return 0, err
		}
		e.baskets.Store(bx, ob, model.Phi, v)
		return v, nil
	case o.Phi != nil:
		// decoration: same basket, no cache slot of its own
		e.perf.fire(TransitionCopy)
		if o.Phi.Direct() {
			return e.eval(o.Phi.Object, bx)
		}
		return e.read(*o.Phi, ob, bx)
	}
	return 0, model.NewEvalError(model.ErrEmptyObject, ob, bx, "no φ, Δ or λ")
}

// lambda invokes the atom of ob once per basket.
func (e *Engine) lambda(ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	if v, ok := e.baskets.Lookup(bx, ob, model.Lambda); ok {
		e.perf.fire(TransitionHit)
		return v, nil
	}
	a := e.bound[ob]
	e.perf.atom(a.Name())
	v, err := a.Apply(e, ob, bx)
	if err != nil {
		if ce := e.log.Check(zap.DebugLevel, "atom failed"); ce != nil {
			ce.Write(zap.String("atom", a.Name()), zap.Stringer("object", ob), zap.Stringer("basket", bx), zap.Error(err))
		}
		return 0, err
	}
	e.baskets.Store(bx, ob, model.Lambda, v)
	return v, nil
}

// calc dataizes ob.attr in bx, memoized under (ob, attr).
func (e *Engine) calc(ob model.ObjectID, attr model.Attr, bx core.BasketID) (core.Data, error) {
	if v, ok := e.baskets.Lookup(bx, ob, attr); ok {
		e.perf.fire(TransitionHit)
		return v, nil
	}
	o, err := e.table.Get(ob)
	if err != nil {
		return 0, model.NewEvalError(model.ErrUnknownObject, ob, bx, "")
	}

	switch attr {
	case model.Delta:
		if o.Delta == nil {
			return 0, model.NewEvalError(model.ErrUnknownAttribute, ob, bx, "no Δ")
		}
		e.perf.fire(TransitionDelta)
		return *o.Delta, nil
	case model.Lambda:
		if o.Lambda == "" {
			return 0, model.NewEvalError(model.ErrUnknownAttribute, ob, bx, "no λ")
		}
		return e.lambda(ob, bx)
	}

	l, ok := o.Locator(attr)
	if !ok {
		return 0, model.NewEvalError(model.ErrUnknownAttribute, ob, bx, "no %s", attr)
	}
	v, err := e.follow(l, ob, bx)
	if err != nil {
		return 0, err
	}
	e.baskets.Store(bx, ob, attr, v)
	return v, nil
}

// follow dataizes what l denotes when l is an attribute of owner read in
// bx. An applied reference opens a basket with owner as its site.
func (e *Engine) follow(l model.Locator, owner model.ObjectID, bx core.BasketID) (core.Data, error) {
	if !l.Direct() {
		return e.read(l, owner, bx)
	}
	if !l.Applied {
		return e.eval(l.Object, bx)
	}
	if !e.table.Has(l.Object) {
		return 0, model.NewEvalError(model.ErrUnknownObject, l.Object, bx, "called from %s", owner)
	}
	c := e.spawn(l.Object, owner, bx)
	return e.eval(l.Object, c)
}

// read resolves the path l written in owner against basket bx. With no
// hops it is owner's own attribute. Otherwise the walk stops at the basket
// A reached after Hops-1 enclosing links, and the attribute is taken from
// the site of A: those attributes are the arguments A was opened with,
// written in the scope that opened it, so a path found there continues
// from the enclosing basket of A. A site without the attribute defers to
// the site of the enclosing basket.
func (e *Engine) read(l model.Locator, owner model.ObjectID, bx core.BasketID) (core.Data, error) {
	if l.Hops == 0 {
		return e.calc(owner, l.Attr, bx)
	}

	a := bx
	for i := 1; i < l.Hops; i++ {
		psi := e.baskets.Enclosing(a)
		if psi == core.NoBasket {
			return 0, model.NewEvalError(model.ErrBrokenClosure, owner, bx,
				"%s needs %d enclosing baskets, only %d exist", l, l.Hops-1, i-1)
		}
		e.perf.fire(TransitionXi)
		a = psi
	}

	site := e.baskets.Site(a)
	if v, ok := e.baskets.LookupParam(a, site, l.Attr); ok {
		e.perf.fire(TransitionHit)
		return v, nil
	}
	so, err := e.table.Get(site)
	if err != nil {
		return 0, model.NewEvalError(model.ErrUnknownObject, site, a, "site of basket")
	}

	var v core.Data
	switch l.Attr {
	case model.Delta:
		if so.Delta == nil {
			return 0, model.NewEvalError(model.ErrUnknownAttribute, site, a, "%s: site has no Δ", l)
		}
		e.perf.fire(TransitionDelta)
		return *so.Delta, nil
	case model.Lambda:
		if so.Lambda == "" {
			return 0, model.NewEvalError(model.ErrUnknownAttribute, site, a, "%s: site has no λ", l)
		}
		outer, err := e.outside(l, site, a)
		if err != nil {
			return 0, err
		}
		return e.lambda(site, outer)
	default:
		p, ok := so.Locator(l.Attr)
		if !ok {
			// a site that does not bind the attribute passes the lookup on
			// to the basket that enclosed it
			if e.baskets.Enclosing(a) == core.NoBasket {
				return 0, model.NewEvalError(model.ErrUnknownAttribute, site, a, "%s: no site binds %s", l, l.Attr)
			}
			var outer core.BasketID
			if outer, err = e.outside(l, site, a); err == nil {
				v, err = e.read(model.Path(1, l.Attr), site, outer)
			}
		} else if p.Direct() {
			v, err = e.follow(p, site, a)
		} else {
			var outer core.BasketID
			if outer, err = e.outside(l, site, a); err == nil {
				v, err = e.read(p, site, outer)
			}
		}
		if err != nil {
			return 0, err
		}
	}
	e.baskets.StoreParam(a, site, l.Attr, v)
	return v, nil
}

// outside returns the enclosing basket of a, where the site's own
// attributes are evaluated.
func (e *Engine) outside(l model.Locator, site model.ObjectID, a core.BasketID) (core.BasketID, error) {
	psi := e.baskets.Enclosing(a)
	if psi == core.NoBasket {
		return 0, model.NewEvalError(model.ErrBrokenClosure, site, a, "%s leaves the root basket", l)
	}
	e.perf.fire(TransitionXi)
	return psi, nil
}
