package model

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"

	"github.com/sbl8/eoc/core"
)

// Magic opens every compiled table ("EOCB").
const Magic uint32 = 0x454F4342

// FormatVersion is the layout written by MarshalBinary.
const FormatVersion uint16 = 1

// headerSize is magic, version, object count and checksum.
const headerSize = 4 + 2 + 4 + 4

// ErrChecksum reports a compiled table whose records do not match the
// checksum in its header.
var ErrChecksum = errors.New("data corruption detected")

const (
	flagPhi uint8 = 1 << iota
	flagRho
	flagDelta
	flagLambda
)

// IsCompiled reports whether data starts with the compiled-table magic.
func IsCompiled(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == Magic
}

// MarshalBinary writes the table in the compiled .eob layout:
// header (magic, version, object count, CRC-32 of the records) followed by
// one record per object.
func (t *Table) MarshalBinary() ([]byte, error) {
	w := &binWriter{buf: &bytes.Buffer{}}
	for _, id := range t.IDs() {
		o := t.objects[id]
		w.put(uint32(id))

		var flags uint8
		if o.Phi != nil {
			flags |= flagPhi
		}
		if o.Rho != nil {
			flags |= flagRho
		}
		if o.Delta != nil {
			flags |= flagDelta
		}
		if o.Lambda != "" {
			flags |= flagLambda
		}
		w.put(flags)

		if o.Phi != nil {
			w.locator(*o.Phi)
		}
		if o.Rho != nil {
			w.locator(*o.Rho)
		}
		if o.Delta != nil {
			w.put(int64(*o.Delta))
		}
		if o.Lambda != "" {
			if len(o.Lambda) > 0xFF {
				return nil, errors.Errorf("%s: atom name too long", id)
			}
			w.put(uint8(len(o.Lambda)))
			w.buf.WriteString(o.Lambda)
		}

		args := o.attrs()
		n := 0
		for _, a := range args {
			if a.IsArg() {
				n++
			}
		}
		w.put(uint16(n))
		for _, a := range args {
			if a.IsArg() {
				w.put(uint16(a.Index()))
				w.locator(o.Args[a.Index()])
			}
		}
	}

	if w.err != nil {
		return nil, w.err
	}
	body := w.buf.Bytes()

	h := &binWriter{buf: bytes.NewBuffer(make([]byte, 0, headerSize+len(body)))}
	h.put(Magic)
	h.put(FormatVersion)
	h.put(uint32(t.count))
	h.put(crc32.ChecksumIEEE(body))
	if h.err != nil {
		return nil, h.err
	}
	h.buf.Write(body)
	return h.buf.Bytes(), nil
}

// UnmarshalBinary replaces the contents of an unfrozen table with the
// compiled records in data.
func (t *Table) UnmarshalBinary(data []byte) error {
	if t.frozen {
		return ErrFrozen
	}
	r := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return errors.Wrap(err, "read magic")
	}
	if magic != Magic {
		return errors.Errorf("invalid magic number: %x", magic)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return errors.Wrap(err, "read version")
	}
	if version != FormatVersion {
		return errors.Errorf("unsupported version: %d", version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return errors.Wrap(err, "read object count")
	}
	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return errors.Wrap(err, "read checksum")
	}
	if crc32.ChecksumIEEE(data[headerSize:]) != sum {
		return ErrChecksum
	}

	fresh := NewTable()
	for i := uint32(0); i < count; i++ {
		id, o, err := readObject(r)
		if err != nil {
			return errors.WithMessagef(err, "record %d", i)
		}
		if err := fresh.Put(id, o); err != nil {
			return err
		}
	}
	if r.Len() != 0 {
		return errors.Errorf("%d trailing bytes after %d records", r.Len(), count)
	}

	*t = *fresh
	return nil
}

func readObject(r *bytes.Reader) (ObjectID, *Object, error) {
	var id uint32
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return 0, nil, err
	}
	var flags uint8
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return 0, nil, err
	}

	o := Open()
	if flags&flagPhi != 0 {
		l, err := readLocator(r)
		if err != nil {
			return 0, nil, err
		}
		o.Phi = &l
	}
	if flags&flagRho != 0 {
		l, err := readLocator(r)
		if err != nil {
			return 0, nil, err
		}
		o.Rho = &l
	}
	if flags&flagDelta != 0 {
		var d int64
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return 0, nil, err
		}
		v := core.Data(d)
		o.Delta = &v
	}
	if flags&flagLambda != 0 {
		var n uint8
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return 0, nil, err
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(r, name); err != nil {
			return 0, nil, err
		}
		o.Lambda = string(name)
	}

	var nargs uint16
	if err := binary.Read(r, binary.LittleEndian, &nargs); err != nil {
		return 0, nil, err
	}
	for j := uint16(0); j < nargs; j++ {
		var idx uint16
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return 0, nil, err
		}
		l, err := readLocator(r)
		if err != nil {
			return 0, nil, err
		}
		o.With(Arg(int(idx)), l)
	}
	return ObjectID(id), o, nil
}

// locator layout: hops(1) applied(1) object(4) attr(4)
func readLocator(r *bytes.Reader) (Locator, error) {
	var raw struct {
		Hops    uint8
		Applied uint8
		Object  int32
		Attr    int32
	}
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return Locator{}, err
	}
	return Locator{
		Hops:    int(raw.Hops),
		Applied: raw.Applied != 0,
		Object:  ObjectID(raw.Object),
		Attr:    Attr(raw.Attr),
	}, nil
}

// binWriter keeps the first write error so record encoding reads linearly.
type binWriter struct {
	buf *bytes.Buffer
	err error
}

func (w *binWriter) put(v interface{}) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.buf, binary.LittleEndian, v)
}

func (w *binWriter) locator(l Locator) {
	if l.Hops > 0xFF {
		if w.err == nil {
			w.err = errors.Wrapf(ErrMalformedLocator, "%d hops do not fit the compiled form", l.Hops)
		}
		return
	}
	var applied uint8
	if l.Applied {
		applied = 1
	}
	w.put(uint8(l.Hops))
	w.put(applied)
	w.put(int32(l.Object))
	w.put(int32(l.Attr))
}
