package atoms

import "github.com/sbl8/eoc/model"

var (
	rho  = int(model.Rho)
	arg0 = int(model.Arg(0))
	arg1 = int(model.Arg(1))
)

// Programs holds the bytecode form of every atom that has one. Atoms not
// listed here run natively under either flavor.
var Programs = map[string]Program{
	"int-add": {
		{Op: OpDataize, A: 0, B: rho},
		{Op: OpDataize, A: 1, B: arg0},
		{Op: OpAdd, A: 2, B: 0, C: 1},
		{Op: OpReturn, A: 2},
	},
	"int-sub": {
		{Op: OpDataize, A: 0, B: rho},
		{Op: OpDataize, A: 1, B: arg0},
		{Op: OpSub, A: 2, B: 0, C: 1},
		{Op: OpReturn, A: 2},
	},
	"int-neg": {
		{Op: OpDataize, A: 1, B: rho},
		{Op: OpRead, A: 0, B: 0},
		{Op: OpSub, A: 2, B: 0, C: 1},
		{Op: OpReturn, A: 2},
	},
	"int-less": {
		{Op: OpDataize, A: 0, B: rho},
		{Op: OpDataize, A: 1, B: arg0},
		{Op: OpSub, A: 2, B: 0, C: 1},
		{Op: OpJump, A: 6},
		{Op: OpRead, A: 3, B: 0},
		{Op: OpReturn, A: 3},
		{Op: OpRead, A: 3, B: 1},
		{Op: OpReturn, A: 3},
	},
	"int-eq": {
		{Op: OpDataize, A: 0, B: rho},
		{Op: OpDataize, A: 1, B: arg0},
		{Op: OpSub, A: 2, B: 0, C: 1},
		{Op: OpJump, A: 8},
		{Op: OpSub, A: 2, B: 1, C: 0},
		{Op: OpJump, A: 8},
		{Op: OpRead, A: 3, B: 1},
		{Op: OpReturn, A: 3},
		{Op: OpRead, A: 3, B: 0},
		{Op: OpReturn, A: 3},
	},
	// either comparison against 1 succeeding means ρ != 1
	"bool-if": {
		{Op: OpDataize, A: 0, B: rho},
		{Op: OpRead, A: 1, B: 1},
		{Op: OpSub, A: 2, B: 0, C: 1},
		{Op: OpJump, A: 8},
		{Op: OpSub, A: 2, B: 1, C: 0},
		{Op: OpJump, A: 8},
		{Op: OpDataize, A: 3, B: arg0},
		{Op: OpReturn, A: 3},
		{Op: OpDataize, A: 3, B: arg1},
		{Op: OpReturn, A: 3},
	},
}
