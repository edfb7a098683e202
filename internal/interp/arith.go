package interp

import (
	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

func foldUnary(op lexer.TokenType, v bytecode.Value) (bytecode.Value, bool) {
	switch op {
	case lexer.MINUS:
		if v.Kind == bytecode.KindInt {
			return bytecode.IntValue(-v.Int), true
		}
		return bytecode.RealValue(-v.AsFloat()), true
	case lexer.PLUS:
		return v, true
	case lexer.NOT:
		return bytecode.BoolValue(!v.Bool), true
	}
	return bytecode.Value{}, false
}

func foldBinaryConst(op lexer.TokenType, a, b bytecode.Value) (bytecode.Value, bool) {
	bothInt := a.Kind == bytecode.KindInt && b.Kind == bytecode.KindInt
	switch op {
	case lexer.PLUS:
		if a.Kind == bytecode.KindStr && b.Kind == bytecode.KindStr {
			return bytecode.StrValue(a.Str + b.Str), true
		}
		if bothInt {
			return bytecode.IntValue(a.Int + b.Int), true
		}
		return bytecode.RealValue(a.AsFloat() + b.AsFloat()), true
	case lexer.MINUS:
		if bothInt {
			return bytecode.IntValue(a.Int - b.Int), true
		}
		return bytecode.RealValue(a.AsFloat() - b.AsFloat()), true
	case lexer.STAR:
		if bothInt {
			return bytecode.IntValue(a.Int * b.Int), true
		}
		return bytecode.RealValue(a.AsFloat() * b.AsFloat()), true
	case lexer.SLASH:
		return bytecode.RealValue(a.AsFloat() / b.AsFloat()), true
	case lexer.DIV:
		if !bothInt || b.Int == 0 {
			return bytecode.Value{}, false
		}
		return bytecode.IntValue(a.Int / b.Int), true
	case lexer.MOD:
		if !bothInt || b.Int == 0 {
			return bytecode.Value{}, false
		}
		return bytecode.IntValue(a.Int % b.Int), true
	}
	return bytecode.Value{}, false
}

// binaryOp evaluates a fully-dynamic binary expression at run time (the
// non-constant counterpart of foldBinaryConst), matching the VM's arith/
// compare helpers in internal/bytecode/vm.go except on a zero divisor:
// div and mod by zero fail here with a runtime error, while the VM's arith
// has no zero check.
func (i *Interpreter) binaryOp(op lexer.TokenType, a, b bytecode.Value) bytecode.Value {
	switch op {
	case lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH:
		v, ok := arithOp(op, a, b)
		if !ok {
			i.fail("bad arithmetic operator %s", op)
		}
		return v
	case lexer.DIV:
		if b.Int == 0 {
			i.fail("division by zero")
		}
		return bytecode.IntValue(a.Int / b.Int)
	case lexer.MOD:
		if b.Int == 0 {
			i.fail("division by zero")
		}
		return bytecode.IntValue(a.Int % b.Int)
	case lexer.AND:
		return bytecode.BoolValue(a.Bool && b.Bool)
	case lexer.OR:
		return bytecode.BoolValue(a.Bool || b.Bool)
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LE, lexer.GE:
		return bytecode.BoolValue(compareOp(op, a, b))
	}
	i.fail("unsupported binary operator %s", op)
	return bytecode.Value{}
}

func arithOp(op lexer.TokenType, a, b bytecode.Value) (bytecode.Value, bool) {
	bothInt := a.Kind == bytecode.KindInt && b.Kind == bytecode.KindInt
	switch op {
	case lexer.PLUS:
		if a.Kind == bytecode.KindStr {
			return bytecode.StrValue(a.Str + b.Str), true
		}
		if bothInt {
			return bytecode.IntValue(a.Int + b.Int), true
		}
		return bytecode.RealValue(a.AsFloat() + b.AsFloat()), true
	case lexer.MINUS:
		if bothInt {
			return bytecode.IntValue(a.Int - b.Int), true
		}
		return bytecode.RealValue(a.AsFloat() - b.AsFloat()), true
	case lexer.STAR:
		if bothInt {
			return bytecode.IntValue(a.Int * b.Int), true
		}
		return bytecode.RealValue(a.AsFloat() * b.AsFloat()), true
	case lexer.SLASH:
		return bytecode.RealValue(a.AsFloat() / b.AsFloat()), true
	}
	return bytecode.Value{}, false
}

func compareOp(op lexer.TokenType, a, b bytecode.Value) bool {
	if a.Kind == bytecode.KindStr && b.Kind == bytecode.KindStr {
		switch op {
		case lexer.EQ:
			return a.Str == b.Str
		case lexer.NEQ:
			return a.Str != b.Str
		case lexer.LT:
			return a.Str < b.Str
		case lexer.GT:
			return a.Str > b.Str
		case lexer.LE:
			return a.Str <= b.Str
		case lexer.GE:
			return a.Str >= b.Str
		}
	}
	if op == lexer.EQ {
		return a.Equal(b)
	}
	if op == lexer.NEQ {
		return !a.Equal(b)
	}
	x, y := a.AsFloat(), b.AsFloat()
	switch op {
	case lexer.LT:
		return x < y
	case lexer.GT:
		return x > y
	case lexer.LE:
		return x <= y
	case lexer.GE:
		return x >= y
	}
	return false
}

func substr(s string, start, count int64) string {
	if start < 1 {
		start = 1
	}
	idx := start - 1
	if idx >= int64(len(s)) {
		return ""
	}
	end := idx + count
	if end > int64(len(s)) {
		end = int64(len(s))
	}
	if end < idx {
		end = idx
	}
	return s[idx:end]
}
