package model

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "φ", Phi.String())
	assert.Equal(t, "ρ", Rho.String())
	assert.Equal(t, "Δ", Delta.String())
	assert.Equal(t, "λ", Lambda.String())
	assert.Equal(t, "𝛼3", Arg(3).String())
	assert.True(t, Arg(0).IsArg())
	assert.False(t, Rho.IsArg())
}

func TestLocatorString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ν2", Ref(2).String())
	assert.Equal(t, "ν2(ξ)", Call(2).String())
	assert.Equal(t, "ξ.ξ.𝛼0", Path(2, Arg(0)).String())
	assert.Equal(t, "ρ", Path(0, Rho).String())
}

func TestLocatorValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		loc     Locator
		wantErr bool
	}{
		{name: "ref", loc: Ref(1)},
		{name: "call", loc: Call(1)},
		{name: "path", loc: Path(3, Arg(1))},
		{name: "negative hops", loc: Locator{Hops: -1, Object: NoObject, Attr: Rho}, wantErr: true},
		{name: "hops before object", loc: Locator{Hops: 1, Object: 4}, wantErr: true},
		{name: "applied path", loc: Locator{Hops: 1, Object: NoObject, Attr: Arg(0), Applied: true}, wantErr: true},
		{name: "bad selector", loc: Locator{Object: NoObject, Attr: Attr(-9)}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.loc.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedLocator))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestObjectBuilders(t *testing.T) {
	t.Parallel()
	o := Atomic("int-add").With(Rho, Path(1, Arg(0))).With(Arg(0), Ref(9))
	assert.Equal(t, "⟦ ρ ↦ ξ.𝛼0, λ ↦ int-add, 𝛼0 ↦ ν9 ⟧", o.String())
	assert.False(t, o.Empty())

	l, ok := o.Locator(Arg(0))
	require.True(t, ok)
	assert.Equal(t, Ref(9), l)

	_, ok = o.Locator(Arg(1))
	assert.False(t, ok)
	_, ok = o.Locator(Phi)
	assert.False(t, ok)

	assert.True(t, Open().Empty())
	assert.True(t, Open().With(Arg(0), Ref(1)).Empty())
	assert.Equal(t, "⟦ Δ ↦ 0x002A ⟧", Dataic(42).String())
	assert.Equal(t, "⟦ ⟧", Open().String())

	assert.Panics(t, func() { Open().With(Delta, Ref(1)) })
}

func TestObjectValidate(t *testing.T) {
	t.Parallel()
	both := Dataic(1)
	both.Lambda = "int-add"
	require.Error(t, both.Validate())

	bad := Open().With(Phi, Locator{Hops: 1, Object: 2})
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedLocator))
}

func TestTablePutGet(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	require.NoError(t, tbl.Put(0, Open().With(Phi, Call(5))))
	require.NoError(t, tbl.Put(5, Dataic(42)))
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []ObjectID{0, 5}, tbl.IDs())

	o, err := tbl.Get(5)
	require.NoError(t, err)
	assert.Equal(t, "⟦ Δ ↦ 0x002A ⟧", o.String())

	_, err = tbl.Get(3)
	assert.True(t, errors.Is(err, ErrUnknownObject))
	_, err = tbl.Get(99)
	assert.True(t, errors.Is(err, ErrUnknownObject))
	_, err = tbl.Get(-1)
	assert.True(t, errors.Is(err, ErrUnknownObject))

	require.NoError(t, tbl.Put(5, Dataic(7)))
	assert.Equal(t, 2, tbl.Len(), "overwrite keeps the count")

	err = tbl.Put(-2, Dataic(1))
	assert.True(t, errors.Is(err, ErrUnknownObject))

	err = tbl.Put(MaxObjectID+1, Dataic(1))
	assert.True(t, errors.Is(err, ErrUnknownObject))
	err = tbl.Put(ObjectID(1<<30), Dataic(1))
	assert.True(t, errors.Is(err, ErrUnknownObject))
	assert.Equal(t, 2, tbl.Len())
}

func TestTablePutCopies(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	o := Dataic(42).With(Arg(0), Ref(1))
	require.NoError(t, tbl.Put(0, o))

	*o.Delta = 7
	o.With(Arg(0), Ref(2)).With(Phi, Ref(3))

	got, err := tbl.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "⟦ Δ ↦ 0x002A, 𝛼0 ↦ ν1 ⟧", got.String())
	assert.Equal(t, o.Clone(), o)
	assert.NotSame(t, o, got)
}

func TestTableFreeze(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	require.NoError(t, tbl.Put(1, Dataic(1)))
	tbl.Freeze()
	assert.True(t, tbl.Frozen())

	err := tbl.Put(2, Dataic(2))
	assert.True(t, errors.Is(err, ErrFrozen))
	assert.False(t, tbl.Has(2))
}

func TestTableValidate(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	require.NoError(t, tbl.Put(0, Open().With(Phi, Ref(3))))
	require.NoError(t, tbl.Put(1, Atomic("int-add").With(Rho, Ref(7)).With(Arg(0), Path(1, Arg(0)))))
	require.NoError(t, tbl.Put(3, Dataic(1)))

	err := tbl.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownObject))
	assert.Contains(t, err.Error(), "ν1.ρ refers to ν7")

	require.NoError(t, tbl.Put(7, Dataic(2)))
	assert.NoError(t, tbl.Validate())
}

func TestTableCodecRoundTrip(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	require.NoError(t, tbl.Put(0, Open().With(Phi, Ref(3))))
	require.NoError(t, tbl.Put(1, Dataic(-5)))
	require.NoError(t, tbl.Put(2, Atomic("int-add").With(Rho, Path(1, Arg(0))).With(Arg(0), Path(1, Arg(1)))))
	require.NoError(t, tbl.Put(3, Open().With(Phi, Call(2)).With(Arg(0), Ref(1)).With(Arg(1), Ref(1))))

	data, err := tbl.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, IsCompiled(data))

	back := NewTable()
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, tbl.String(), back.String())
}

func TestTableCodecRejectsGarbage(t *testing.T) {
	t.Parallel()
	assert.False(t, IsCompiled([]byte("ν0 ↦ ⟦ ⟧")))

	err := NewTable().UnmarshalBinary([]byte{1, 2, 3, 4, 5, 6})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic")

	tbl := NewTable()
	require.NoError(t, tbl.Put(0, Dataic(1)))
	data, err := tbl.MarshalBinary()
	require.NoError(t, err)
	require.Error(t, NewTable().UnmarshalBinary(data[:len(data)-3]))
	require.Error(t, NewTable().UnmarshalBinary(append(data, 0)))

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-1] ^= 0xFF
	assert.True(t, errors.Is(NewTable().UnmarshalBinary(flipped), ErrChecksum))
}

func TestEvalError(t *testing.T) {
	t.Parallel()
	err := NewEvalError(ErrEmptyObject, 4, 2, "reached through %s", Phi)
	assert.Equal(t, "empty object at ν4 in β2: reached through φ", err.Error())
	assert.True(t, errors.Is(err, ErrEmptyObject))

	var ee *EvalError
	require.True(t, errors.As(errors.Wrap(err, "outer"), &ee))
	assert.Equal(t, ObjectID(4), ee.Object)
}

func TestReachableAndPrune(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	require.NoError(t, tbl.Put(0, Open().With(Phi, Call(2))))
	require.NoError(t, tbl.Put(1, Dataic(9)))
	require.NoError(t, tbl.Put(2, Atomic("int-add").With(Rho, Ref(4)).With(Arg(0), Ref(4))))
	require.NoError(t, tbl.Put(4, Dataic(1)))
	require.NoError(t, tbl.Put(5, Open().With(Phi, Ref(1))))

	assert.Equal(t, []ObjectID{0, 2, 4}, tbl.Reachable(0))
	assert.Nil(t, tbl.Reachable(3))

	pruned := tbl.Prune(0)
	assert.Equal(t, []ObjectID{0, 2, 4}, pruned.IDs())
	assert.False(t, pruned.Frozen())
}
