package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
)

// ErrDuplicateObject reports an id declared twice in one source.
var ErrDuplicateObject = errors.New("duplicate object")

// DeclError ties a parse failure to the line of its declaration.
type DeclError struct {
	Line int
	Err  error
}

func (e *DeclError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *DeclError) Unwrap() error {
	return e.Err
}

var atomName = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Parse reads a graph in the textual notation into a fresh, unfrozen
// table. Every malformed declaration is reported; nothing is returned
// unless the whole source is valid.
func Parse(src []byte) (*model.Table, error) {
	return parse(src, nil)
}

// ParseString is Parse for string sources.
func ParseString(src string) (*model.Table, error) {
	return parse([]byte(src), nil)
}

// ParseInto adds the declarations of src to t. References may point at
// objects already in t. On any error t is left untouched.
func ParseInto(t *model.Table, src []byte) error {
	if t.Frozen() {
		return model.ErrFrozen
	}
	fresh, err := parse(src, t)
	if err != nil {
		return err
	}
	for _, id := range fresh.IDs() {
		o, _ := fresh.Get(id)
		if err := t.Put(id, o); err != nil {
			return err
		}
	}
	return nil
}

// decl is one parsed declaration with its source line.
type decl struct {
	line int
	id   model.ObjectID
	obj  *model.Object
}

func parse(src []byte, base *model.Table) (*model.Table, error) {
	var (
		result *multierror.Error
		decls  []decl
		lines  = map[model.ObjectID]int{}
	)

	for i, raw := range strings.Split(string(src), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, obj, err := parseDecl(line)
		if err != nil {
			result = multierror.Append(result, &DeclError{Line: i + 1, Err: err})
			continue
		}
		if first, dup := lines[id]; dup {
			result = multierror.Append(result, &DeclError{
				Line: i + 1,
				Err:  errors.Wrapf(ErrDuplicateObject, "%s already declared on line %d", id, first),
			})
			continue
		}
		lines[id] = i + 1
		decls = append(decls, decl{line: i + 1, id: id, obj: obj})
	}

	known := func(id model.ObjectID) bool {
		_, ok := lines[id]
		return ok || (base != nil && base.Has(id))
	}
	for _, d := range decls {
		for _, a := range []model.Attr{model.Phi, model.Rho} {
			if l, ok := d.obj.Locator(a); ok && l.Direct() && !known(l.Object) {
				result = multierror.Append(result, &DeclError{
					Line: d.line,
					Err:  errors.Wrapf(model.ErrUnknownObject, "%s.%s refers to %s", d.id, a, l.Object),
				})
			}
		}
		for n, l := range d.obj.Args {
			if l.Direct() && !known(l.Object) {
				result = multierror.Append(result, &DeclError{
					Line: d.line,
					Err:  errors.Wrapf(model.ErrUnknownObject, "%s.%s refers to %s", d.id, model.Arg(n), l.Object),
				})
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	t := model.NewTable()
	for _, d := range decls {
		if err := t.Put(d.id, d.obj); err != nil {
			return nil, &DeclError{Line: d.line, Err: err}
		}
	}
	return t, nil
}

// parseDecl parses `ν3 ↦ ⟦ φ ↦ ν2(ξ), 𝛼0 ↦ ν1 ⟧` or its ASCII spelling
// `v3 -> [[ phi -> v2(xi), a0 -> v1 ]]`.
func parseDecl(line string) (model.ObjectID, *model.Object, error) {
	sc := &scanner{s: line}

	word := sc.word()
	id, ok := parseID(word)
	if !ok {
		return 0, nil, errors.Wrapf(model.ErrMalformedLocator, "malformed object id %q", word)
	}
	if id > model.MaxObjectID {
		return 0, nil, errors.Wrapf(model.ErrUnknownObject, "%s exceeds the largest object id %s", id, model.MaxObjectID)
	}
	if !sc.accept("↦", "->") {
		return 0, nil, errors.Errorf("expected ↦ after %s", id)
	}
	if !sc.accept("⟦", "[[") {
		return 0, nil, errors.Errorf("expected ⟦ to open %s", id)
	}

	obj := model.Open()
	seen := map[model.Attr]bool{}
	closed := sc.accept("⟧", "]]")
	for !closed {
		key := sc.word()
		attr, err := parseAttr(key)
		if err != nil {
			return 0, nil, err
		}
		if seen[attr] {
			return 0, nil, errors.Wrapf(model.ErrMalformedLocator, "attribute %s bound twice", attr)
		}
		seen[attr] = true
		if !sc.accept("↦", "->") {
			return 0, nil, errors.Errorf("expected ↦ after %s", attr)
		}

		value := sc.word()
		applied := sc.accept("(ξ)", "(xi)")
		if err := bind(obj, attr, value, applied); err != nil {
			return 0, nil, err
		}

		switch {
		case sc.accept(","):
		case sc.accept("⟧", "]]"):
			closed = true
		default:
			return 0, nil, errors.Errorf("expected , or ⟧ after %s, found %q", attr, sc.rest())
		}
	}
	if rest := sc.rest(); rest != "" {
		return 0, nil, errors.Errorf("trailing input %q after %s", rest, id)
	}
	if err := obj.Validate(); err != nil {
		return 0, nil, err
	}
	return id, obj, nil
}

// bind sets attribute attr of obj from its textual value.
func bind(obj *model.Object, attr model.Attr, value string, applied bool) error {
	if value == "" {
		return errors.Wrapf(model.ErrMalformedLocator, "missing value for %s", attr)
	}
	switch attr {
	case model.Delta:
		if applied {
			return errors.Wrapf(model.ErrMalformedLocator, "literal %s cannot be applied", value)
		}
		d, err := core.ParseHex(value)
		if err != nil {
			return errors.Wrap(model.ErrMalformedLocator, err.Error())
		}
		obj.Delta = &d
		return nil
	case model.Lambda:
		if applied || !atomName.MatchString(value) {
			return errors.Wrapf(model.ErrMalformedLocator, "bad atom name %q", value)
		}
		obj.Lambda = value
		return nil
	}

	loc, err := parseLocator(value, applied)
	if err != nil {
		return err
	}
	obj.With(attr, loc)
	return nil
}

// parseLocator reads `ν2`, `ν2(ξ)` (applied is passed in), `ξ.ξ.𝛼0` or a
// bare attribute such as `ρ`.
func parseLocator(s string, applied bool) (model.Locator, error) {
	if id, ok := parseID(s); ok {
		if applied {
			return model.Call(id), nil
		}
		return model.Ref(id), nil
	}
	if applied {
		return model.Locator{}, errors.Wrapf(model.ErrMalformedLocator, "only object references can be applied, not %q", s)
	}

	parts := strings.Split(s, ".")
	hops := 0
	for hops < len(parts)-1 && isXi(parts[hops]) {
		hops++
	}
	if hops != len(parts)-1 {
		return model.Locator{}, errors.Wrapf(model.ErrMalformedLocator, "path %q must be ξ-hops followed by one attribute", s)
	}
	attr, err := parseAttr(parts[hops])
	if err != nil {
		return model.Locator{}, errors.Wrapf(model.ErrMalformedLocator, "path %q: %v", s, err)
	}
	return model.Path(hops, attr), nil
}

func isXi(s string) bool {
	return s == "ξ" || s == "xi"
}

// parseID accepts νN and vN.
func parseID(s string) (model.ObjectID, bool) {
	var digits string
	switch {
	case strings.HasPrefix(s, "ν"):
		digits = s[len("ν"):]
	case strings.HasPrefix(s, "v"):
		digits = s[1:]
	default:
		return 0, false
	}
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return model.ObjectID(n), true
}

// parseAttr accepts the Unicode and ASCII spellings of every attribute key.
func parseAttr(s string) (model.Attr, error) {
	switch s {
	case "φ", "phi":
		return model.Phi, nil
	case "ρ", "rho":
		return model.Rho, nil
	case "Δ", "delta":
		return model.Delta, nil
	case "λ", "lambda":
		return model.Lambda, nil
	}
	for _, prefix := range []string{"𝛼", "α", "arg", "a"} {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		digits := s[len(prefix):]
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 || (len(digits) > 1 && digits[0] == '0') {
			break
		}
		return model.Arg(n), nil
	}
	return 0, errors.Wrapf(model.ErrUnknownAttribute, "%q", s)
}

// scanner walks one declaration line.
type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipSpace() {
	for sc.pos < len(sc.s) {
		r, size := utf8.DecodeRuneInString(sc.s[sc.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		sc.pos += size
	}
}

// accept consumes the first of tokens found at the current position.
func (sc *scanner) accept(tokens ...string) bool {
	sc.skipSpace()
	for _, tok := range tokens {
		if strings.HasPrefix(sc.s[sc.pos:], tok) {
			sc.pos += len(tok)
			return true
		}
	}
	return false
}

// word reads up to the next space, separator, bracket, arrow or
// application marker.
func (sc *scanner) word() string {
	sc.skipSpace()
	start := sc.pos
	for sc.pos < len(sc.s) {
		rest := sc.s[sc.pos:]
		r, size := utf8.DecodeRuneInString(rest)
		if unicode.IsSpace(r) || strings.ContainsRune(",()⟦⟧↦", r) ||
			strings.HasPrefix(rest, "->") || strings.HasPrefix(rest, "]]") {
			break
		}
		sc.pos += size
	}
	return sc.s[start:sc.pos]
}

func (sc *scanner) rest() string {
	sc.skipSpace()
	return sc.s[sc.pos:]
}
