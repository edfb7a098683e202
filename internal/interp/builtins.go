package interp

import (
	"math"
	"strings"

	"github.com/cwbudde/go-pasc/internal/bytecode"
)

// builtin1 covers every single-argument, fixed-return-type built-in whose
// evaluation is "evaluate the argument, apply one function": the
// interpreter's counterpart of the compiler's builtin1 opcode table.
var builtin1 = map[string]func(bytecode.Value) bytecode.Value{
	"abs": func(v bytecode.Value) bytecode.Value {
		if v.Kind == bytecode.KindInt {
			if v.Int < 0 {
				return bytecode.IntValue(-v.Int)
			}
			return v
		}
		return bytecode.RealValue(math.Abs(v.AsFloat()))
	},
	"sqr": func(v bytecode.Value) bytecode.Value {
		if v.Kind == bytecode.KindInt {
			return bytecode.IntValue(v.Int * v.Int)
		}
		return bytecode.RealValue(v.AsFloat() * v.AsFloat())
	},
	"sqrt": func(v bytecode.Value) bytecode.Value { return bytecode.RealValue(math.Sqrt(v.AsFloat())) },
	"sin": func(v bytecode.Value) bytecode.Value { return bytecode.RealValue(math.Sin(v.AsFloat())) },
	"cos": func(v bytecode.Value) bytecode.Value { return bytecode.RealValue(math.Cos(v.AsFloat())) },
	"arctan": func(v bytecode.Value) bytecode.Value { return bytecode.RealValue(math.Atan(v.AsFloat())) },
	"ln": func(v bytecode.Value) bytecode.Value { return bytecode.RealValue(math.Log(v.AsFloat())) },
	"exp": func(v bytecode.Value) bytecode.Value { return bytecode.RealValue(math.Exp(v.AsFloat())) },
	"trunc": func(v bytecode.Value) bytecode.Value { return bytecode.IntValue(int64(v.AsFloat())) },
	"round": func(v bytecode.Value) bytecode.Value {
		return bytecode.IntValue(int64(math.Round(v.AsFloat())))
	},
	"odd": func(v bytecode.Value) bytecode.Value { return bytecode.BoolValue(v.Int%2 != 0) },
	"length": func(v bytecode.Value) bytecode.Value { return bytecode.IntValue(int64(len(v.Str))) },
	"upcase": func(v bytecode.Value) bytecode.Value { return bytecode.StrValue(strings.ToUpper(v.Str)) },
	"lowercase": func(v bytecode.Value) bytecode.Value { return bytecode.StrValue(strings.ToLower(v.Str)) },
	"chr": func(v bytecode.Value) bytecode.Value { return bytecode.StrValue(string(rune(v.Int))) },
	"ord": func(v bytecode.Value) bytecode.Value {
		if v.Kind == bytecode.KindStr {
			if len(v.Str) == 0 {
				return bytecode.IntValue(0)
			}
			return bytecode.IntValue(int64(v.Str[0]))
		}
		return bytecode.IntValue(v.Int)
	},
}

// isBuiltinName reports whether name is one of the fixed built-in functions,
// checked before arguments are evaluated so a call's argument expressions
// are evaluated exactly once regardless of which path handles the call.
func isBuiltinName(name string) bool {
	lname := canon(name)
	if _, ok := builtin1[lname]; ok {
		return true
	}
	switch lname {
	case "copy", "pos", "concat":
		return true
	}
	return false
}

// evalBuiltinCall evaluates a call to one of the fixed built-in functions
//; callers must check isBuiltinName first.
func (i *Interpreter) evalBuiltinCall(name string, args []bytecode.Value) (bytecode.Value, bool) {
	lname := canon(name)
	if fn, ok := builtin1[lname]; ok {
		if len(args) != 1 {
			i.fail("%s expects exactly 1 argument", name)
		}
		return fn(args[0]), true
	}
	switch lname {
	case "copy":
		if len(args) != 3 {
			i.fail("copy expects exactly 3 arguments")
		}
		return bytecode.StrValue(substr(args[0].Str, args[1].Int, args[2].Int)), true
	case "pos":
		if len(args) != 2 {
			i.fail("pos expects exactly 2 arguments")
		}
		return bytecode.IntValue(int64(strings.Index(args[1].Str, args[0].Str) + 1)), true
	case "concat":
		if len(args) < 2 {
			i.fail("concat expects at least 2 arguments")
		}
		parts := make([]string, len(args))
		for idx, a := range args {
			parts[idx] = a.Str
		}
		return bytecode.StrValue(strings.Join(parts, "")), true
	}
	return bytecode.Value{}, false
}
