package atoms

import (
	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

var nativeAtoms = []Atom{
	NewFunc("int-add", intAdd),
	NewFunc("int-sub", intSub),
	NewFunc("int-mul", intMul),
	NewFunc("int-div", intDiv),
	NewFunc("int-neg", intNeg),
	NewFunc("int-less", intLess),
	NewFunc("int-eq", intEq),
	NewFunc("bool-if", boolIf),
}

// operands calculates ρ and 𝛼0, in that order.
func operands(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, core.Data, error) {
	x, err := c.Calc(ob, model.Rho, bx)
	if err != nil {
		return 0, 0, err
	}
	y, err := c.Calc(ob, model.Arg(0), bx)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func intAdd(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	x, y, err := operands(c, ob, bx)
	if err != nil {
		return 0, err
	}
	return x + y, nil
}

func intSub(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	x, y, err := operands(c, ob, bx)
	if err != nil {
		return 0, err
	}
	return x - y, nil
}

func intMul(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	x, y, err := operands(c, ob, bx)
	if err != nil {
		return 0, err
	}
	return x * y, nil
}

func intDiv(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	x, y, err := operands(c, ob, bx)
	if err != nil {
		return 0, err
	}
	if y == 0 {
		return 0, model.NewEvalError(model.ErrAtomFailure, ob, bx, "int-div: division of %d by zero", x)
	}
	return x / y, nil
}

func intNeg(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	x, err := c.Calc(ob, model.Rho, bx)
	if err != nil {
		return 0, err
	}
	return -x, nil
}

func intLess(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	x, y, err := operands(c, ob, bx)
	if err != nil {
		return 0, err
	}
	return boolData(x < y), nil
}

func intEq(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	x, y, err := operands(c, ob, bx)
	if err != nil {
		return 0, err
	}
	return boolData(x == y), nil
}

// boolIf calculates exactly one branch.
func boolIf(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	cond, err := c.Calc(ob, model.Rho, bx)
	if err != nil {
		return 0, err
	}
	if cond == 1 {
		return c.Calc(ob, model.Arg(0), bx)
	}
	return c.Calc(ob, model.Arg(1), bx)
}

func boolData(b bool) core.Data {
	if b {
		return 1
	}
	return 0
}
