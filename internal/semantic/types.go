package semantic

import "strings"

// Canonical scalar type names: type inference assigns one of integer, real,
// string, boolean, nil, a named record or enum, ^T, set of T, auto, or
// unknown.
const (
	TInteger = "integer"
	TReal = "real"
	TString = "string"
	TBoolean = "boolean"
	TNil = "nil"
	TAuto = "auto" // polymorphic built-ins (abs, sqr, ...) that preserve input type
	TUnknown = "unknown"
)

func canonType(t string) string { return strings.ToLower(t) }

func isPointerType(t string) bool { return strings.HasPrefix(t, "^") }

func pointerElem(t string) string {
	if isPointerType(t) {
		return t[1:]
	}
	return ""
}

func isSetType(t string) bool { return strings.HasPrefix(canonType(t), "set of ") }

func setElem(t string) string {
	if isSetType(t) {
		return strings.TrimSpace(t[len("set of "):])
	}
	return ""
}

func isNumeric(t string) bool {
	t = canonType(t)
	return t == TInteger || t == TReal || t == TAuto
}

// typesCompatible implements the assignment-compatibility table.
func typesCompatible(a, b string) bool {
	ca, cb := canonType(a), canonType(b)
	if ca == cb {
		return true
	}
	if ca == TUnknown || cb == TUnknown {
		return true
	}
	if ca == TAuto && isNumeric(cb) {
		return true
	}
	if cb == TAuto && isNumeric(ca) {
		return true
	}
	if isSetType(ca) && isSetType(cb) {
		return typesCompatible(setElem(ca), setElem(cb))
	}
	return false
}

// assignable reports whether a value of type `from` may be assigned/passed
// where `to` is expected: equal types, integer->real widening, nil->pointer,
// and the `unknown`/`auto` escape hatches.
func assignable(from, to string) bool {
	cf, ct := canonType(from), canonType(to)
	if typesCompatible(cf, ct) {
		return true
	}
	if cf == TInteger && ct == TReal {
		return true
	}
	if cf == TNil && isPointerType(ct) {
		return true
	}
	return false
}
