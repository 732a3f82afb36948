package model

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Table is the id-addressed object arena. Ids index a slice directly, so
// gaps cost one nil slot each.
type Table struct {
	objects []*Object
	count   int
	frozen  bool
}

// NewTable returns an empty, writable table.
func NewTable() *Table {
	return &Table{}
}

// Put stores a copy of o at id, inserting or overwriting. Later changes to
// o do not reach the table. It fails once the table is frozen or when id is
// outside [0, MaxObjectID].
func (t *Table) Put(id ObjectID, o *Object) error {
	if t.frozen {
		return errors.Wrapf(ErrFrozen, "put %s", id)
	}
	if id < 0 {
		return errors.Wrapf(ErrUnknownObject, "negative id %d", int(id))
	}
	if id > MaxObjectID {
		return errors.Wrapf(ErrUnknownObject, "id %d exceeds %d", int(id), int(MaxObjectID))
	}
	if o == nil {
		return errors.Errorf("put %s: nil object", id)
	}
	if err := o.Validate(); err != nil {
		return errors.WithMessagef(err, "put %s", id)
	}
	if int(id) >= len(t.objects) {
		size := 2 * len(t.objects)
		if size <= int(id) {
			size = int(id) + 1
		}
		if size > int(MaxObjectID)+1 {
			size = int(MaxObjectID) + 1
		}
		grown := make([]*Object, int(id)+1, size)
		copy(grown, t.objects)
		t.objects = grown
	}
	if t.objects[id] == nil {
		t.count++
	}
	t.objects[id] = o.Clone()
	return nil
}

// Get returns the object at id or ErrUnknownObject. The object is shared
// with the table and must not be modified.
func (t *Table) Get(id ObjectID) (*Object, error) {
	if id < 0 || int(id) >= len(t.objects) || t.objects[id] == nil {
		return nil, errors.Wrapf(ErrUnknownObject, "%s", id)
	}
	return t.objects[id], nil
}

// Has reports whether id is populated.
func (t *Table) Has(id ObjectID) bool {
	return id >= 0 && int(id) < len(t.objects) && t.objects[id] != nil
}

// Len returns the number of populated ids.
func (t *Table) Len() int {
	return t.count
}

// IDs lists the populated ids in ascending order.
func (t *Table) IDs() []ObjectID {
	ids := make([]ObjectID, 0, t.count)
	for i, o := range t.objects {
		if o != nil {
			ids = append(ids, ObjectID(i))
		}
	}
	return ids
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.frozen = true
}

// Frozen reports whether Put is still allowed.
func (t *Table) Frozen() bool {
	return t.frozen
}

// Validate reports every direct reference to a missing object.
func (t *Table) Validate() error {
	var result *multierror.Error
	for _, id := range t.IDs() {
		o := t.objects[id]
		for _, a := range o.attrs() {
			l, _ := o.Locator(a)
			if l.Direct() && !t.Has(l.Object) {
				result = multierror.Append(result,
					errors.Wrapf(ErrUnknownObject, "%s.%s refers to %s", id, a, l.Object))
			}
		}
	}
	return result.ErrorOrNil()
}

// String renders the whole table in the textual notation, one declaration
// per line.
func (t *Table) String() string {
	var sb strings.Builder
	for _, id := range t.IDs() {
		sb.WriteString(id.String())
		sb.WriteString(" ↦ ")
		sb.WriteString(t.objects[id].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
