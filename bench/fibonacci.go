// Package bench drives repeated dataizations: the recursive fibonacci
// benchmark and TOML regression suites.
package bench

import (
	"fmt"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

// FibonacciEntry is the object whose applied call starts one fibonacci
// computation. Benchmarks open a basket for it per cycle.
const FibonacciEntry model.ObjectID = 2

// FibonacciInput is the object holding the input literal.
const FibonacciInput model.ObjectID = 1

// FibonacciGraph builds the recursive fibonacci program for input n:
//
//	ν3 is fibo(x) = x < 2 ? 1 : fibo(x-1) + fibo(x-2)
//
// where x is the argument of the call that opened the current basket.
func FibonacciGraph(n int) (*model.Table, error) {
	objects := []struct {
		id  model.ObjectID
		obj *model.Object
	}{
		{0, model.Open().With(model.Phi, model.Ref(2))},
		{1, model.Dataic(core.Data(n))},
		{2, model.Open().With(model.Phi, model.Call(3)).With(model.Arg(0), model.Ref(1))},
		{3, model.Open().With(model.Phi, model.Ref(13))},
		{5, model.Dataic(2)},
		{6, model.Atomic("int-sub").With(model.Rho, model.Path(2, model.Arg(0))).With(model.Arg(0), model.Ref(5))},
		{7, model.Dataic(1)},
		{8, model.Atomic("int-sub").With(model.Rho, model.Path(2, model.Arg(0))).With(model.Arg(0), model.Ref(7))},
		{9, model.Open().With(model.Phi, model.Call(3)).With(model.Arg(0), model.Ref(8))},
		{10, model.Open().With(model.Phi, model.Call(3)).With(model.Arg(0), model.Ref(6))},
		{11, model.Atomic("int-add").With(model.Rho, model.Ref(9)).With(model.Arg(0), model.Ref(10))},
		{12, model.Atomic("int-less").With(model.Rho, model.Path(1, model.Arg(0))).With(model.Arg(0), model.Ref(5))},
		{13, model.Atomic("bool-if").With(model.Rho, model.Ref(12)).With(model.Arg(0), model.Ref(7)).With(model.Arg(1), model.Ref(11))},
	}

	t := model.NewTable()
	for _, o := range objects {
		if err := t.Put(o.id, o.obj); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FibonacciSource renders FibonacciGraph(n) in the textual notation.
func FibonacciSource(n int) string {
	t, err := FibonacciGraph(n)
	if err != nil {
		panic(fmt.Sprintf("bench: fibonacci graph: %v", err))
	}
	return t.String()
}

// Fibonacci is the reference result: 1 for n < 2, else the sum of the two
// previous values.
func Fibonacci(n int) core.Data {
	a, b := core.Data(1), core.Data(1)
	for i := 2; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

// FibonacciOps is the number of atom invocations FibonacciGraph(n) needs:
// 2 for n < 2 (the comparison and the branch), else both recursive calls
// plus five more (comparison, branch, addition and two subtractions).
func FibonacciOps(n int) int {
	a, b := 2, 2
	for i := 2; i <= n; i++ {
		a, b = b, a+b+5
	}
	return b
}
