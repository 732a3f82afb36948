package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

const fibonacci = `
# fibonacci of 7
ν0 ↦ ⟦ φ ↦ ν2 ⟧
ν1 ↦ ⟦ Δ ↦ 0x0007 ⟧
ν2 ↦ ⟦ φ ↦ ν3(ξ), 𝛼0 ↦ ν1 ⟧
ν3 ↦ ⟦ φ ↦ ν13 ⟧
ν5 ↦ ⟦ Δ ↦ 0x0002 ⟧
ν6 ↦ ⟦ λ ↦ int-sub, ρ ↦ ξ.ξ.𝛼0, 𝛼0 ↦ ν5 ⟧
ν7 ↦ ⟦ Δ ↦ 0x0001 ⟧
ν8 ↦ ⟦ λ ↦ int-sub, ρ ↦ ξ.ξ.𝛼0, 𝛼0 ↦ ν7 ⟧
ν9 ↦ ⟦ φ ↦ ν3(ξ), 𝛼0 ↦ ν8 ⟧
ν10 ↦ ⟦ φ ↦ ν3(ξ), 𝛼0 ↦ ν6 ⟧
ν11 ↦ ⟦ λ ↦ int-add, ρ ↦ ν9, 𝛼0 ↦ ν10 ⟧
ν12 ↦ ⟦ λ ↦ int-less, ρ ↦ ξ.𝛼0, 𝛼0 ↦ ν5 ⟧
ν13 ↦ ⟦ λ ↦ bool-if, ρ ↦ ν12, 𝛼0 ↦ ν7, 𝛼1 ↦ ν11 ⟧
`

func TestParseFibonacci(t *testing.T) {
	t.Parallel()
	tbl, err := ParseString(fibonacci)
	require.NoError(t, err)
	assert.Equal(t, 13, tbl.Len())
	assert.False(t, tbl.Has(4))

	o, err := tbl.Get(2)
	require.NoError(t, err)
	assert.Equal(t, model.Call(3), *o.Phi)
	assert.Equal(t, model.Ref(1), o.Args[0])

	o, err = tbl.Get(6)
	require.NoError(t, err)
	assert.Equal(t, "int-sub", o.Lambda)
	assert.Equal(t, model.Path(2, model.Arg(0)), *o.Rho)

	o, err = tbl.Get(1)
	require.NoError(t, err)
	require.NotNil(t, o.Delta)
	assert.Equal(t, core.Data(7), *o.Delta)
}

func TestParseASCII(t *testing.T) {
	t.Parallel()
	unicode, err := ParseString(`
ν0 ↦ ⟦ φ ↦ ν1 ⟧
ν1 ↦ ⟦ φ ↦ ν2(ξ), 𝛼0 ↦ ν3 ⟧
ν2 ↦ ⟦ λ ↦ int-neg, ρ ↦ ξ.𝛼0 ⟧
ν3 ↦ ⟦ Δ ↦ 0x002A ⟧
`)
	require.NoError(t, err)

	ascii, err := ParseString(`
v0 -> [[ phi -> v1 ]]
v1 -> [[ phi -> v2(xi), a0 -> v3 ]]
v2 -> [[ lambda -> int-neg, rho -> xi.arg0 ]]
v3 -> [[ delta -> 0x002A ]]
`)
	require.NoError(t, err)
	assert.Equal(t, unicode.String(), ascii.String())
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()
	tbl, err := ParseString(fibonacci)
	require.NoError(t, err)

	again, err := ParseString(tbl.String())
	require.NoError(t, err)
	assert.Equal(t, tbl.String(), again.String())
}

func TestParseEmptyObject(t *testing.T) {
	t.Parallel()
	tbl, err := ParseString("ν0 ↦ ⟦ ⟧\nν1 ↦ ⟦ 𝛼0 ↦ ν0 ⟧")
	require.NoError(t, err)
	o, err := tbl.Get(0)
	require.NoError(t, err)
	assert.True(t, o.Empty())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		kind error
	}{
		{name: "bad id", src: "x1 ↦ ⟦ ⟧", kind: model.ErrMalformedLocator},
		{name: "unknown key", src: "ν0 ↦ ⟦ σ ↦ ν0 ⟧", kind: model.ErrUnknownAttribute},
		{name: "bad literal", src: "ν0 ↦ ⟦ Δ ↦ 42 ⟧", kind: model.ErrMalformedLocator},
		{name: "bad atom name", src: "ν0 ↦ ⟦ λ ↦ Int_Add ⟧", kind: model.ErrMalformedLocator},
		{name: "applied path", src: "ν0 ↦ ⟦ φ ↦ ξ.ρ(ξ) ⟧", kind: model.ErrMalformedLocator},
		{name: "path without attribute", src: "ν0 ↦ ⟦ φ ↦ ξ.ξ ⟧", kind: model.ErrMalformedLocator},
		{name: "repeated attribute", src: "ν0 ↦ ⟦ ρ ↦ ν0, ρ ↦ ν0 ⟧", kind: model.ErrMalformedLocator},
		{name: "dangling", src: "ν0 ↦ ⟦ φ ↦ ν9 ⟧", kind: model.ErrUnknownObject},
		{name: "duplicate", src: "ν0 ↦ ⟦ ⟧\nν0 ↦ ⟦ ⟧", kind: ErrDuplicateObject},
		{name: "huge id", src: "ν4611686018427387903 ↦ ⟦ Δ ↦ 0x0001 ⟧", kind: model.ErrUnknownObject},
		{name: "id past the bound", src: "ν16777216 ↦ ⟦ Δ ↦ 0x0001 ⟧", kind: model.ErrUnknownObject},
		{name: "id overflows int", src: "ν99999999999999999999 ↦ ⟦ Δ ↦ 0x0001 ⟧", kind: model.ErrMalformedLocator},
		{name: "reference past the bound", src: "ν0 ↦ ⟦ φ ↦ ν4611686018427387903 ⟧", kind: model.ErrUnknownObject},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseString(tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"ν0 ⟦ ⟧",
		"ν0 ↦ φ ↦ ν0",
		"ν0 ↦ ⟦ φ ν0 ⟧",
		"ν0 ↦ ⟦ φ ↦ ν0",
		"ν0 ↦ ⟦ φ ↦ ν0 ⟧ extra",
		"ν0 ↦ ⟦ Δ ↦ 0x01, λ ↦ int-add ⟧",
	} {
		_, err := ParseString(src)
		assert.Error(t, err, src)
	}
}

func TestParseCollectsEveryLine(t *testing.T) {
	t.Parallel()
	_, err := ParseString("ν0 ↦ ⟦ φ ↦ ν1 ⟧\n\nbogus\nν1 ↦ ⟦ Δ ↦ zz ⟧\n")
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 3)

	var decl *DeclError
	require.True(t, errors.As(merr.Errors[0], &decl))
	assert.Equal(t, 3, decl.Line)
	require.True(t, errors.As(merr.Errors[1], &decl))
	assert.Equal(t, 4, decl.Line)

	// ν1 was rejected, so ν0 dangles
	require.True(t, errors.As(merr.Errors[2], &decl))
	assert.Equal(t, 1, decl.Line)
	assert.True(t, errors.Is(decl, model.ErrUnknownObject))
	assert.Contains(t, err.Error(), "line 4")
}

func TestParseInto(t *testing.T) {
	t.Parallel()
	tbl, err := ParseString("ν1 ↦ ⟦ Δ ↦ 0x0005 ⟧")
	require.NoError(t, err)

	require.NoError(t, ParseInto(tbl, []byte("ν0 ↦ ⟦ φ ↦ ν1 ⟧")))
	assert.Equal(t, 2, tbl.Len())

	err = ParseInto(tbl, []byte("ν2 ↦ ⟦ φ ↦ ν1 ⟧\nν3 ↦ ⟦ φ ↦ ν8 ⟧"))
	require.Error(t, err)
	assert.False(t, tbl.Has(2), "failed source must leave the table untouched")

	tbl.Freeze()
	assert.True(t, errors.Is(ParseInto(tbl, []byte("ν4 ↦ ⟦ ⟧")), model.ErrFrozen))
}

func TestCompileBytes(t *testing.T) {
	t.Parallel()
	src := []byte(fibonacci + "ν20 ↦ ⟦ Δ ↦ 0x0063 ⟧\n")

	data, err := CompileBytes(src, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, model.IsCompiled(data))

	text, err := Decompile(data)
	require.NoError(t, err)
	assert.Contains(t, text, "ν20 ↦ ⟦ Δ ↦ 0x0063 ⟧")

	opts := DefaultOptions()
	opts.Prune = true
	pruned, err := CompileBytes(src, opts)
	require.NoError(t, err)
	text, err = Decompile(pruned)
	require.NoError(t, err)
	assert.NotContains(t, text, "ν20")
	assert.Contains(t, text, "ν13")

	opts.Root = 42
	_, err = CompileBytes(src, opts)
	assert.True(t, errors.Is(err, model.ErrUnknownObject))
}

func TestCompileFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "fibo.eo")
	out := filepath.Join(dir, "fibo.eob")
	require.NoError(t, os.WriteFile(src, []byte(fibonacci), 0o644))

	require.NoError(t, Compile(src, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)

	tbl := model.NewTable()
	require.NoError(t, tbl.UnmarshalBinary(data))
	assert.Equal(t, 13, tbl.Len())

	assert.Error(t, Compile(filepath.Join(dir, "missing.eo"), out))
}
