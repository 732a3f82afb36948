package atoms

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

// Opcode is one instruction of the atom interpreter.
type Opcode uint8

// Instruction set. Operands A, B and C are register indexes unless noted.
const (
	OpDataize Opcode = 0x01 // r[A] = calc(B as attribute)
	OpAdd     Opcode = 0x02 // r[A] = r[B] + r[C]; flag = result < 0
	OpSub     Opcode = 0x03 // r[A] = r[B] - r[C]; flag = r[B] < r[C]
	OpJump    Opcode = 0x04 // if flag: pc = A
	OpRead    Opcode = 0x05 // r[A] = B as immediate
	OpWrite   Opcode = 0x06 // r[A] = r[B]
	OpReturn  Opcode = 0x07 // result = r[A]
)

// Registers is the size of the register file.
const Registers = 8

// MaxSteps bounds a single run so a looping program fails instead of hanging.
const MaxSteps = 1024

var opNames = [256]string{
	OpDataize: "DATAIZE",
	OpAdd:     "ADD",
	OpSub:     "SUB",
	OpJump:    "JUMP",
	OpRead:    "READ",
	OpWrite:   "WRITE",
	OpReturn:  "RETURN",
}

func (op Opcode) String() string {
	if n := opNames[op]; n != "" {
		return n
	}
	return fmt.Sprintf("OP(0x%02X)", uint8(op))
}

// Instr is one decoded instruction.
type Instr struct {
	Op      Opcode
	A, B, C int
}

func (in Instr) String() string {
	switch in.Op {
	case OpDataize:
		return fmt.Sprintf("%s r%d, %s", in.Op, in.A, model.Attr(in.B))
	case OpAdd, OpSub:
		return fmt.Sprintf("%s r%d, r%d, r%d", in.Op, in.A, in.B, in.C)
	case OpJump:
		return fmt.Sprintf("%s @%d", in.Op, in.A)
	case OpRead:
		return fmt.Sprintf("%s r%d, #%d", in.Op, in.A, in.B)
	case OpWrite:
		return fmt.Sprintf("%s r%d, r%d", in.Op, in.A, in.B)
	case OpReturn:
		return fmt.Sprintf("%s r%d", in.Op, in.A)
	}
	return in.Op.String()
}

// Program is a straight list of instructions; execution starts at 0.
type Program []Instr

// Validate checks opcodes, register indexes, attributes and jump targets.
func (p Program) Validate() error {
	if len(p) == 0 {
		return errors.New("empty program")
	}
	reg := func(pc, r int) error {
		if r < 0 || r >= Registers {
			return errors.Errorf("@%d: register r%d out of range", pc, r)
		}
		return nil
	}
	for pc, in := range p {
		var err error
		switch in.Op {
		case OpDataize:
			err = reg(pc, in.A)
			if err == nil && model.Attr(in.B) != model.Rho && !model.Attr(in.B).IsArg() {
				err = errors.Errorf("@%d: DATAIZE addresses ρ or 𝛼N, not %s", pc, model.Attr(in.B))
			}
		case OpAdd, OpSub:
			if err = reg(pc, in.A); err == nil {
				if err = reg(pc, in.B); err == nil {
					err = reg(pc, in.C)
				}
			}
		case OpJump:
			if in.A < 0 || in.A >= len(p) {
				err = errors.Errorf("@%d: jump target @%d outside program", pc, in.A)
			}
		case OpRead, OpReturn:
			err = reg(pc, in.A)
		case OpWrite:
			if err = reg(pc, in.A); err == nil {
				err = reg(pc, in.B)
			}
		default:
			err = errors.Errorf("@%d: unknown opcode %s", pc, in.Op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// String disassembles the program, one instruction per line.
func (p Program) String() string {
	var sb strings.Builder
	for pc, in := range p {
		fmt.Fprintf(&sb, "%3d  %s\n", pc, in)
	}
	return sb.String()
}

// Interpreted is an atom backed by a Program.
type Interpreted struct {
	name string
	prog Program
}

// NewInterpreted validates prog and wraps it as an atom called name.
func NewInterpreted(name string, prog Program) (*Interpreted, error) {
	if err := prog.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "atom %s", name)
	}
	return &Interpreted{name: name, prog: prog}, nil
}

// Name returns the λ name of the atom.
func (a *Interpreted) Name() string { return a.name }

// Program returns the instructions of the atom.
func (a *Interpreted) Program() Program { return a.prog }

// Apply runs the program against the frame (ob, bx).
func (a *Interpreted) Apply(c Calculator, ob model.ObjectID, bx core.BasketID) (core.Data, error) {
	var (
		r    [Registers]core.Data
		flag bool
		pc   int
	)
	fail := func(format string, args ...interface{}) error {
		return model.NewEvalError(model.ErrAtomFailure, ob, bx, "%s @%d: %s", a.name, pc, fmt.Sprintf(format, args...))
	}

	for step := 0; step < MaxSteps; step++ {
		if pc < 0 || pc >= len(a.prog) {
			return 0, fail("fell off the program without RETURN")
		}
		in := a.prog[pc]
		pc++
		switch in.Op {
		case OpDataize:
			v, err := c.Calc(ob, model.Attr(in.B), bx)
			if err != nil {
				return 0, err
			}
			r[in.A] = v
		case OpAdd:
			r[in.A] = r[in.B] + r[in.C]
			flag = r[in.A] < 0
		case OpSub:
			flag = r[in.B] < r[in.C]
			r[in.A] = r[in.B] - r[in.C]
		case OpJump:
			if flag {
				pc = in.A
			}
		case OpRead:
			r[in.A] = core.Data(in.B)
		case OpWrite:
			r[in.A] = r[in.B]
		case OpReturn:
			return r[in.A], nil
		default:
			pc--
			return 0, fail("unknown opcode %s", in.Op)
		}
	}
	return 0, fail("no RETURN within %d steps", MaxSteps)
}
