package atoms

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

var errUntouchable = errors.New("operand must not be calculated")

// operandStub answers Calc from a fixed table and records each request.
type operandStub struct {
	values map[model.Attr]core.Data
	calls  []model.Attr
}

func (s *operandStub) Calc(ob model.ObjectID, attr model.Attr, bx core.BasketID) (core.Data, error) {
	s.calls = append(s.calls, attr)
	v, ok := s.values[attr]
	if !ok {
		return 0, errUntouchable
	}
	return v, nil
}

func apply(t *testing.T, a Atom, values map[model.Attr]core.Data) (core.Data, error) {
	t.Helper()
	return a.Apply(&operandStub{values: values}, 7, 3)
}

func TestNativeArithmetic(t *testing.T) {
	t.Parallel()
	cat := NativeCatalog()
	tests := []struct {
		atom string
		x, y core.Data
		want core.Data
	}{
		{"int-add", 40, 2, 42},
		{"int-sub", 40, 2, 38},
		{"int-sub", 2, 40, -38},
		{"int-mul", 6, 7, 42},
		{"int-div", 85, 2, 42},
		{"int-div", -7, 2, -3},
		{"int-neg", 42, 0, -42},
		{"int-less", 1, 2, 1},
		{"int-less", 2, 2, 0},
		{"int-less", -5, -6, 0},
		{"int-eq", 3, 3, 1},
		{"int-eq", 3, 4, 0},
	}
	for _, tt := range tests {
		a, err := cat.Lookup(tt.atom)
		require.NoError(t, err)
		got, err := apply(t, a, map[model.Attr]core.Data{model.Rho: tt.x, model.Arg(0): tt.y})
		require.NoError(t, err, tt.atom)
		assert.Equal(t, tt.want, got, "%s(%d, %d)", tt.atom, tt.x, tt.y)
	}
}

func TestIntDivByZero(t *testing.T) {
	t.Parallel()
	a, err := NativeCatalog().Lookup("int-div")
	require.NoError(t, err)
	_, err = apply(t, a, map[model.Attr]core.Data{model.Rho: 1, model.Arg(0): 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAtomFailure))

	var ee *model.EvalError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, model.ObjectID(7), ee.Object)
	assert.Equal(t, core.BasketID(3), ee.Basket)
}

func TestBoolIfIsLazy(t *testing.T) {
	t.Parallel()
	for _, flavor := range []Flavor{Native, Bytecode} {
		a, err := CatalogFor(flavor).Lookup("bool-if")
		require.NoError(t, err)

		taken := &operandStub{values: map[model.Attr]core.Data{model.Rho: 1, model.Arg(0): 42}}
		got, err := a.Apply(taken, 1, 0)
		require.NoError(t, err, flavor)
		assert.Equal(t, core.Data(42), got)
		assert.Equal(t, []model.Attr{model.Rho, model.Arg(0)}, taken.calls, flavor)

		other := &operandStub{values: map[model.Attr]core.Data{model.Rho: 0, model.Arg(1): 7}}
		got, err = a.Apply(other, 1, 0)
		require.NoError(t, err, flavor)
		assert.Equal(t, core.Data(7), got)
		assert.Equal(t, []model.Attr{model.Rho, model.Arg(1)}, other.calls, flavor)

		// anything but exactly 1 selects the second branch
		two := &operandStub{values: map[model.Attr]core.Data{model.Rho: 2, model.Arg(1): 9}}
		got, err = a.Apply(two, 1, 0)
		require.NoError(t, err, flavor)
		assert.Equal(t, core.Data(9), got)
	}
}

func TestBytecodeMatchesNative(t *testing.T) {
	t.Parallel()
	native := NativeCatalog()
	interpreted := BytecodeCatalog()
	samples := []core.Data{-1 << 40, -3, -1, 0, 1, 2, 7, 1 << 40}

	for name := range Programs {
		n, err := native.Lookup(name)
		require.NoError(t, err)
		b, err := interpreted.Lookup(name)
		require.NoError(t, err)
		_, ok := b.(*Interpreted)
		require.True(t, ok, "%s should be interpreted", name)

		for _, x := range samples {
			for _, y := range samples {
				values := map[model.Attr]core.Data{model.Rho: x, model.Arg(0): y, model.Arg(1): y + 1}
				want, err := apply(t, n, values)
				require.NoError(t, err)
				got, err := apply(t, b, values)
				require.NoError(t, err)
				assert.Equal(t, want, got, "%s(%d, %d)", name, x, y)
			}
		}
	}
}

func TestProgramsAreValid(t *testing.T) {
	t.Parallel()
	for name, prog := range Programs {
		_, err := NewInterpreted(name, prog)
		assert.NoError(t, err, name)
	}
}

func TestProgramValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		prog Program
	}{
		{"empty", Program{}},
		{"register out of range", Program{{Op: OpReturn, A: Registers}}},
		{"bad jump", Program{{Op: OpJump, A: 5}, {Op: OpReturn}}},
		{"dataize delta", Program{{Op: OpDataize, A: 0, B: int(model.Delta)}, {Op: OpReturn}}},
		{"unknown opcode", Program{{Op: 0x7F}}},
		{"write source", Program{{Op: OpWrite, A: 0, B: -1}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, tt.prog.Validate())
		})
	}
}

func TestInterpreterFailures(t *testing.T) {
	t.Parallel()
	noReturn := &Interpreted{name: "runaway", prog: Program{{Op: OpRead, A: 0, B: 1}}}
	_, err := apply(t, noReturn, nil)
	assert.True(t, errors.Is(err, model.ErrAtomFailure))
	assert.Contains(t, err.Error(), "without RETURN")

	loop := &Interpreted{name: "loop", prog: Program{
		{Op: OpRead, A: 0, B: 0},
		{Op: OpRead, A: 1, B: 1},
		{Op: OpSub, A: 2, B: 0, C: 1},
		{Op: OpJump, A: 0},
	}}
	_, err = apply(t, loop, nil)
	assert.True(t, errors.Is(err, model.ErrAtomFailure))
	assert.Contains(t, err.Error(), "steps")

	bad := &Interpreted{name: "bad", prog: Program{{Op: 0x42}}}
	_, err = apply(t, bad, nil)
	assert.True(t, errors.Is(err, model.ErrAtomFailure))

	// operand errors pass through untouched
	add, err := BytecodeCatalog().Lookup("int-add")
	require.NoError(t, err)
	_, err = apply(t, add, map[model.Attr]core.Data{model.Rho: 1})
	assert.True(t, errors.Is(err, errUntouchable))
}

func TestWriteAndAddFlag(t *testing.T) {
	t.Parallel()
	// returns |ρ| using the ADD sign flag
	abs := &Interpreted{name: "abs", prog: Program{
		{Op: OpDataize, A: 0, B: rho},
		{Op: OpRead, A: 1, B: 0},
		{Op: OpAdd, A: 2, B: 0, C: 1},
		{Op: OpJump, A: 5},
		{Op: OpReturn, A: 2},
		{Op: OpSub, A: 3, B: 1, C: 0},
		{Op: OpWrite, A: 2, B: 3},
		{Op: OpReturn, A: 2},
	}}
	require.NoError(t, abs.Program().Validate())
	for in, want := range map[core.Data]core.Data{-5: 5, 5: 5, 0: 0} {
		got, err := apply(t, abs, map[model.Attr]core.Data{model.Rho: in})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	cat := NativeCatalog()
	_, err := cat.Lookup("int-pow")
	assert.True(t, errors.Is(err, model.ErrUnknownAtom))
	assert.Equal(t, []string{"bool-if", "int-add", "int-div", "int-eq", "int-less", "int-mul", "int-neg", "int-sub"}, cat.Names())

	cat.Register(NewFunc("const-1", func(Calculator, model.ObjectID, core.BasketID) (core.Data, error) { return 1, nil }))
	a, err := cat.Lookup("const-1")
	require.NoError(t, err)
	assert.Equal(t, "const-1", a.Name())
	_, err = NativeCatalog().Lookup("const-1")
	assert.Error(t, err, "catalogs are independent copies")

	f, err := ParseFlavor("bytecode")
	require.NoError(t, err)
	assert.Equal(t, Bytecode, f)
	f, err = ParseFlavor("")
	require.NoError(t, err)
	assert.Equal(t, Native, f)
	_, err = ParseFlavor("jit")
	assert.Error(t, err)
}

func TestDisassembly(t *testing.T) {
	t.Parallel()
	listing := Programs["int-add"].String()
	assert.Contains(t, listing, "DATAIZE r0, ρ")
	assert.Contains(t, listing, "DATAIZE r1, 𝛼0")
	assert.Contains(t, listing, "ADD r2, r0, r1")
	assert.Contains(t, listing, "RETURN r2")
	assert.Equal(t, "OP(0x7F)", Opcode(0x7F).String())
}
