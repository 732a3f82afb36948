// Package compiler turns graphs written in the textual notation into
// compiled .eob tables for the runtime.
//
// The notation has one declaration per line:
//
//	ν0 ↦ ⟦ φ ↦ ν2 ⟧
//	ν1 ↦ ⟦ Δ ↦ 0x0007 ⟧
//	ν2 ↦ ⟦ φ ↦ ν3(ξ), 𝛼0 ↦ ν1 ⟧
//	ν6 ↦ ⟦ λ ↦ int-sub, ρ ↦ ξ.ξ.𝛼0, 𝛼0 ↦ ν5 ⟧
//
// Every token has an ASCII spelling: v for ν, -> for ↦, [[ ]] for ⟦ ⟧,
// phi rho delta lambda for φ ρ Δ λ, a0 or arg0 for 𝛼0 and xi for ξ.
// Blank lines and lines starting with # are ignored.
//
// Compilation pipeline:
//  1. Parse the source, collecting every malformed declaration
//  2. Validate that direct references resolve
//  3. Optionally prune objects unreachable from the root
//  4. Emit the binary table
package compiler

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sbl8/eoc/model"
)

// CompileOptions configures the compilation process
type CompileOptions struct {
	Prune    bool           // Drop objects unreachable from Root
	Root     model.ObjectID // Entry object kept by Prune
	Validate bool           // Re-check references after pruning
	Verbose  bool           // Report each stage at info level
	Logger   *zap.Logger
}

// DefaultOptions returns the options used by Compile.
func DefaultOptions() CompileOptions {
	return CompileOptions{
		Prune:    false,
		Root:     model.RootObject,
		Validate: true,
		Verbose:  false,
	}
}

// Compile turns a text source file into a binary .eob file.
func Compile(src, out string) error {
	return CompileWithOptions(src, out, DefaultOptions())
}

// CompileWithOptions reads src, compiles it and writes the result to out.
func CompileWithOptions(src, out string, opts CompileOptions) error {
	log := opts.logger()
	log.Debug("compiling", zap.String("source", src), zap.String("output", out))

	source, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrap(err, "failed to read source")
	}

	data, err := CompileBytes(source, opts)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write output")
	}
	opts.report("compiled", zap.String("output", out), zap.Int("bytes", len(data)))
	return nil
}

// CompileBytes compiles an in-memory source to the binary layout.
func CompileBytes(src []byte, opts CompileOptions) ([]byte, error) {
	t, err := Parse(src)
	if err != nil {
		return nil, errors.WithMessage(err, "parse error")
	}
	opts.report("parsed", zap.Int("objects", t.Len()))

	if opts.Prune {
		if !t.Has(opts.Root) {
			return nil, errors.Wrapf(model.ErrUnknownObject, "prune root %s", opts.Root)
		}
		before := t.Len()
		t = t.Prune(opts.Root)
		opts.report("pruned", zap.Int("removed", before-t.Len()), zap.Stringer("root", opts.Root))
	}

	if opts.Validate {
		if err := t.Validate(); err != nil {
			return nil, errors.WithMessage(err, "validation error")
		}
		opts.report("validation passed")
	}

	data, err := t.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode table")
	}
	return data, nil
}

// Decompile renders a compiled table back in the textual notation.
func Decompile(data []byte) (string, error) {
	t := model.NewTable()
	if err := t.UnmarshalBinary(data); err != nil {
		return "", err
	}
	return t.String(), nil
}

func (o CompileOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o CompileOptions) report(msg string, fields ...zap.Field) {
	if o.Verbose {
		o.logger().Info(msg, fields...)
		return
	}
	o.logger().Debug(msg, fields...)
}
