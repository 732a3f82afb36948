package runtime

import (
	"os"

	"github.com/pkg/errors"

	"github.com/sbl8/eoc/compiler"
	"github.com/sbl8/eoc/model"
)

// LoadTable decodes a table from either the compiled .eob layout or the
// textual notation, chosen by the leading magic.
func LoadTable(data []byte) (*model.Table, error) {
	if model.IsCompiled(data) {
		t := model.NewTable()
		if err := t.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return t, nil
	}
	return compiler.Parse(data)
}

// LoadFromFile reads a compiled or textual graph file into a table.
func LoadFromFile(path string) (*model.Table, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := LoadTable(buf)
	if err != nil {
		return nil, errors.WithMessagef(err, "load %s", path)
	}
	return t, nil
}

// Load reads a graph file and constructs an Engine over it.
func Load(path string, opts *Options) (*Engine, error) {
	t, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(t, opts)
}
