// Package core holds the primitive value types shared by every layer of the
// engine: the scalar produced by dataization and the identifier of a basket.
//
// Scalars are fixed-width signed integers. In the textual notation they are
// written as hexadecimal literals with at least four digits (0x002A); the
// helpers here convert between the two forms.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Data is the scalar every dataization reduces to.
type Data int64

// BasketID addresses an activation record in the basket table.
type BasketID int

// NoBasket marks the missing enclosing link of the root basket.
const NoBasket BasketID = -1

// RootBasket is the basket bound to the root object at engine start.
const RootBasket BasketID = 0

// HexWidth is the minimum number of digits emitted by FormatHex.
const HexWidth = 4

// ParseHex reads a literal of the form 0xNNNN. Up to sixteen digits are
// accepted; the bit pattern is taken as two's complement.
func ParseHex(s string) (Data, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, errors.Errorf("literal %q must start with 0x", s)
	}
	digits := s[2:]
	if digits == "" || len(digits) > 16 {
		return 0, errors.Errorf("literal %q must carry between 1 and 16 hex digits", s)
	}
	u, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad literal %q", s)
	}
	return Data(int64(u)), nil
}

// FormatHex renders d the way the textual notation writes literals.
// Negative values are written as their full 64-bit pattern.
func FormatHex(d Data) string {
	if d < 0 {
		return fmt.Sprintf("0x%016X", uint64(d))
	}
	return fmt.Sprintf("0x%0*X", HexWidth, int64(d))
}

func (d Data) String() string {
	return strconv.FormatInt(int64(d), 10)
}

func (b BasketID) String() string {
	if b == NoBasket {
		return "β-"
	}
	return "β" + strconv.Itoa(int(b))
}
