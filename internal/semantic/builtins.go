package semantic

// BuiltinSig describes one built-in function's arity and return type.
// Arity of -1 means variadic with a minimum of MinArgs (only `concat` today).
type BuiltinSig struct {
	Arity      int
	MinArgs    int
	ReturnType string
}

// builtins is the fixed built-in catalog, keyed by canonical name.
var builtins = map[string]BuiltinSig{
	"abs": {Arity: 1, ReturnType: TAuto},
	"sqr": {Arity: 1, ReturnType: TAuto},
	"sqrt": {Arity: 1, ReturnType: TReal},
	"sin": {Arity: 1, ReturnType: TReal},
	"cos": {Arity: 1, ReturnType: TReal},
	"arctan": {Arity: 1, ReturnType: TReal},
	"ln": {Arity: 1, ReturnType: TReal},
	"exp": {Arity: 1, ReturnType: TReal},
	"trunc": {Arity: 1, ReturnType: TInteger},
	"round": {Arity: 1, ReturnType: TInteger},
	"odd": {Arity: 1, ReturnType: TBoolean},
	"length": {Arity: 1, ReturnType: TInteger},
	"copy": {Arity: 3, ReturnType: TString},
	"concat": {Arity: -1, MinArgs: 2, ReturnType: TString},
	"pos": {Arity: 2, ReturnType: TInteger},
	"upcase": {Arity: 1, ReturnType: TString},
	"lowercase": {Arity: 1, ReturnType: TString},
	"chr": {Arity: 1, ReturnType: TString},
	"ord": {Arity: 1, ReturnType: TInteger},
	"eof": {Arity: 1, ReturnType: TBoolean},
}

// numericOnlyBuiltins preserve the input type for arity checks that require a
// numeric operand (abs/sqr); everything else accepts whatever and the
// individual analyzer rule narrows it further.
var numericOnlyBuiltins = map[string]bool{
	"abs": true, "sqr": true, "sqrt": true, "sin": true, "cos": true,
	"arctan": true, "ln": true, "exp": true, "trunc": true, "round": true,
	"odd": true,
}
