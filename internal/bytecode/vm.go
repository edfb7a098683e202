package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/go-pasc/internal/errors"
)

// RuntimeError is a fatal error raised while executing bytecode (
// "Runtime: fatal, carries a stack trace").
type RuntimeError struct {
	Message string
	Trace errors.StackTrace
}

func (e *RuntimeError) Error() string {
	if len(e.Trace) == 0 {
		return e.Message
	}
	return e.Message + "\n" + e.Trace.String()
}

func runtimeErr(frames []frame, format string, args ...any) *RuntimeError {
	trace := make(errors.StackTrace, 0, len(frames))
	for i := 0; i < len(frames); i++ {
		trace = append(trace, errors.NewStackFrame(frames[i].funcName, "", nil))
	}
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Trace: trace}
}

// scope is one level of the VM's variable lookup chain: function locals
// innermost, globals outermost.
type scope struct {
	vars map[string]Value
	parent *scope
}

func newScope(parent *scope) *scope { return &scope{vars: map[string]Value{}, parent: parent} }

// lookup finds the innermost scope defining name, searching outward.
func (s *scope) lookup(name string) (Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[canon(name)]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// store writes to the first enclosing scope that already defines name,
// falling back to declaring it in s itself if no enclosing scope already
// defines the name.
func (s *scope) store(name string, v Value) {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.vars[canon(name)]; ok {
			sc.vars[canon(name)] = v
			return
		}
	}
	s.vars[canon(name)] = v
}

func (s *scope) declare(name string, v Value) { s.vars[canon(name)] = v }

// frame is one call-frame: where to resume in the caller, the callee's
// local scope, and the var-parameter back-mapping from local param name to
// the caller-side variable name it aliases.
type frame struct {
	returnIP int
	scope *scope
	byRef map[string]string // local param name (canon) -> caller variable name
	funcName string
	isFunc bool
	retName string
}

// arrayStore is one array's flat, row-major backing storage.
type arrayStore struct {
	meta ArrayMeta
	data []Value
}

func (a *arrayStore) index(idx []int64) (int, error) {
	if len(idx) != len(a.meta.Dimensions) {
		return 0, fmt.Errorf("array %s expects %d indices, got %d", a.meta.Name, len(a.meta.Dimensions), len(idx))
	}
	offset := int64(0)
	stride := int64(1)
	for i := len(a.meta.Dimensions) - 1; i >= 0; i-- {
		dim := a.meta.Dimensions[i]
		if idx[i] < dim.Low || idx[i] > dim.High {
			return 0, fmt.Errorf("array %s index %d out of bounds [%d..%d]", a.meta.Name, idx[i], dim.Low, dim.High)
		}
		offset += (idx[i] - dim.Low) * stride
		stride *= dim.High - dim.Low + 1
	}
	return int(offset), nil
}

// fileHandle is one open file variable's runtime state.
type fileHandle struct {
	name string
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
}

// VM executes compiled bytecode directly.
type VM struct {
	prog *Program

	stack []Value
	frames []frame
	globals *scope

	heap map[uint64]Value
	heapTop uint64

	arrays map[string]*arrayStore
	files map[string]*fileHandle

	Stdout io.Writer
	Stdin io.Reader
	stdinReader *bufio.Reader

	linked map[string]bool // unit names already merged in
}

func NewVM(prog *Program) *VM {
	vm := &VM{
		prog: prog,
		globals: newScope(nil),
		heap: map[uint64]Value{},
		arrays: map[string]*arrayStore{},
		files: map[string]*fileHandle{},
		Stdout: os.Stdout,
		Stdin: os.Stdin,
		linked: map[string]bool{},
	}
	for _, name := range prog.Globals {
		vm.globals.declare(name, NilValue())
	}
	for _, a := range prog.Arrays {
		vm.arrays[canon(a.Name)] = &arrayStore{meta: a, data: make([]Value, arraySize(a))}
	}
	return vm
}

func arraySize(a ArrayMeta) int64 {
	size := int64(1)
	for _, d := range a.Dimensions {
		size *= d.High - d.Low + 1
	}
	return size
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) curScope() *scope {
	if len(vm.frames) == 0 {
		return vm.globals
	}
	return vm.frames[len(vm.frames)-1].scope
}

func (vm *VM) funcMeta(name string) *FuncMeta {
	for i := range vm.prog.Funcs {
		if canon(vm.prog.Funcs[i].Name) == canon(name) {
			return &vm.prog.Funcs[i]
		}
	}
	return nil
}

func (vm *VM) arrayByName(name string) (*arrayStore, error) {
	a, ok := vm.arrays[canon(name)]
	if !ok {
		return nil, fmt.Errorf("unknown array %s", name)
	}
	return a, nil
}

// LinkUnit merges a compiled unit's code into the program's address space:
// instructions are appended with function entry points relocated by the
// base offset, the unit's labels (and the jumps that target them) are
// qualified with the unit name so they cannot collide with the program's
// own, globals/arrays/functions not already present are registered,
// and the unit's initialization block runs immediately via a scratch
// program sharing the merged symbol tables.
func (vm *VM) LinkUnit(u *Unit) error {
	if vm.linked[canon(u.Name)] {
		return nil
	}
	vm.linked[canon(u.Name)] = true

	base := len(vm.prog.Instructions)
	prefix := canon(u.Name) + ":"
	for _, ins := range u.Instructions {
		switch ins.Op {
		case OpJump, OpJumpIfFalse, OpJumpIfTrue:
			if _, local := u.Labels[ins.Operand.S]; local {
				ins.Operand.S = prefix + ins.Operand.S
			}
		}
		vm.prog.Instructions = append(vm.prog.Instructions, ins)
	}
	for label, addr := range u.Labels {
		vm.prog.Labels[prefix+label] = addr + base
	}
	for _, f := range u.Funcs {
		if vm.funcMeta(f.Name) != nil {
			continue
		}
		f.Entry += base
		vm.prog.Funcs = append(vm.prog.Funcs, f)
	}
	for _, name := range u.Globals {
		if _, exists := vm.globals.vars[canon(name)]; !exists {
			vm.globals.declare(name, NilValue())
		}
	}
	for _, a := range u.Arrays {
		if _, exists := vm.arrays[canon(a.Name)]; !exists {
			vm.arrays[canon(a.Name)] = &arrayStore{meta: a, data: make([]Value, arraySize(a))}
		}
	}
	vm.prog.Enums = append(vm.prog.Enums, u.Enums...)
	vm.prog.Records = append(vm.prog.Records, u.Records...)

	if len(u.Init) > 0 {
		start := vm.appendChunk(u.Init)
		if err := vm.runFrom(start); err != nil {
			return err
		}
	}
	return nil
}

// Finalize runs a unit's finalization block the same way LinkUnit runs its
// initialization block. Callers invoke this for each linked unit, typically
// in reverse link order, once the main program body has finished.
func (vm *VM) Finalize(u *Unit) error {
	if len(u.Final) == 0 {
		return nil
	}
	start := vm.appendChunk(u.Final)
	return vm.runFrom(start)
}

// appendChunk appends a standalone instruction list (a unit's init/final
// block) to the program's shared address space, terminated by its own
// HALT, and returns its start address. Function CALL targets inside these
// blocks resolve against the same vm.prog.Instructions/Labels the rest of
// the program uses, so no separate addressing scheme is needed.
func (vm *VM) appendChunk(code []Instruction) int {
	start := len(vm.prog.Instructions)
	vm.prog.Instructions = append(vm.prog.Instructions, code...)
	vm.prog.Instructions = append(vm.prog.Instructions, simple(OpHalt))
	return start
}

// Execute runs the program's main instruction stream to completion.
func (vm *VM) Execute() error {
	return vm.runFrom(0)
}

// runFrom executes vm.prog.Instructions starting at ip until a HALT fires.
func (vm *VM) runFrom(ip int) error {
	for ip < len(vm.prog.Instructions) {
		ins := vm.prog.Instructions[ip]
		if ins.Op == OpHalt {
			return nil
		}
		next, err := vm.step(ins, ip)
		if err != nil {
			return err
		}
		ip = next
	}
	return nil
}

func (vm *VM) resolveJump(label string) (int, error) {
	addr, ok := vm.prog.Labels[label]
	if !ok {
		return 0, fmt.Errorf("unresolved label %s", label)
	}
	return addr, nil
}

func (vm *VM) step(ins Instruction, ip int) (int, error) {
	switch ins.Op {
	case OpPush:
		vm.push(operandToValue(ins.Operand))
	case OpPushNil:
		vm.push(NilValue())
	case OpPop:
		vm.pop()
	case OpDup:
		top := vm.stack[len(vm.stack)-1]
		vm.push(top)

	case OpLoadVar:
		v, ok := vm.curScope().lookup(ins.Operand.S)
		if !ok {
			return 0, vm.err("undefined variable %s", ins.Operand.S)
		}
		vm.push(v)
	case OpStoreVar:
		v := vm.pop()
		vm.curScope().store(ins.Operand.S, v)

	case OpAdd, OpSub, OpMul, OpDiv, OpIDiv, OpMod:
		b := vm.pop()
		a := vm.pop()
		v, err := arith(ins.Op, a, b)
		if err != nil {
			return 0, vm.err("%s", err)
		}
		vm.push(v)
	case OpNeg:
		a := vm.pop()
		if a.Kind == KindInt {
			vm.push(IntValue(-a.Int))
		} else {
			vm.push(RealValue(-a.AsFloat()))
		}

	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolValue(compare(ins.Op, a, b)))

	case OpAnd:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolValue(a.Bool && b.Bool))
	case OpOr:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolValue(a.Bool || b.Bool))
	case OpNot:
		a := vm.pop()
		vm.push(BoolValue(!a.Bool))

	case OpJump:
		addr, err := vm.resolveJump(ins.Operand.S)
		if err != nil {
			return 0, vm.err("%s", err)
		}
		return addr, nil
	case OpJumpIfFalse:
		v := vm.pop()
		if !v.Bool {
			addr, err := vm.resolveJump(ins.Operand.S)
			if err != nil {
				return 0, vm.err("%s", err)
			}
			return addr, nil
		}
	case OpJumpIfTrue:
		v := vm.pop()
		if v.Bool {
			addr, err := vm.resolveJump(ins.Operand.S)
			if err != nil {
				return 0, vm.err("%s", err)
			}
			return addr, nil
		}
	case OpCaseJump:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolValue(a.Equal(b)))
	case OpCaseRange:
		selector := vm.pop()
		low, high := ins.Operand.MList[0].I, ins.Operand.MList[1].I
		vm.push(BoolValue(selector.Int >= low && selector.Int <= high))

	case OpCall:
		return vm.call(ins.Operand.S, ip+1)
	case OpReturn:
		return vm.ret()

	case OpWrite, OpWriteln:
		v := vm.pop()
		fmt.Fprint(vm.Stdout, v.String())
		if ins.Op == OpWriteln {
			fmt.Fprintln(vm.Stdout)
		}
	case OpRead:
		v, err := vm.readConsoleValue()
		if err != nil {
			return 0, vm.err("%s", err)
		}
		vm.curScope().store(ins.Operand.S, v)

	case OpNew:
		addr := vm.allocHeap(NilValue())
		vm.curScope().store(ins.Operand.S, HeapValue(addr))
	case OpDispose:
		// Monotonic heap: addresses are never reclaimed or reused.
	case OpDeref:
		p := vm.pop()
		v, ok := vm.heap[p.Addr]
		if !ok {
			return 0, vm.err("dereference of unallocated pointer")
		}
		vm.push(v)
	case OpStoreDeref:
		v := vm.pop()
		p, ok := vm.curScope().lookup(ins.Operand.S)
		if !ok {
			return 0, vm.err("undefined pointer variable %s", ins.Operand.S)
		}
		vm.heap[p.Addr] = v
	case OpAddrOf:
		v, ok := vm.curScope().lookup(ins.Operand.S)
		if !ok {
			return 0, vm.err("undefined variable %s", ins.Operand.S)
		}
		addr := vm.allocHeap(v) // shallow copy: later mutation of the source var is invisible here
		vm.push(HeapValue(addr))

	case OpFileAssign:
		name := vm.pop()
		vm.files[canon(ins.Operand.S)] = &fileHandle{name: name.Str}
	case OpFileReset:
		if err := vm.fileOpen(ins.Operand.S, false); err != nil {
			return 0, vm.err("%s", err)
		}
	case OpFileRewrite:
		if err := vm.fileOpen(ins.Operand.S, true); err != nil {
			return 0, vm.err("%s", err)
		}
	case OpFileClose:
		if h, ok := vm.files[canon(ins.Operand.S)]; ok && h.closer != nil {
			h.closer.Close()
		}
	case OpFileRead:
		v, err := vm.fileRead(ins.Operand.S)
		if err != nil {
			return 0, vm.err("%s", err)
		}
		vm.push(v)
	case OpFileWrite:
		v := vm.pop()
		if err := vm.fileWrite(ins.Operand.S, v); err != nil {
			return 0, vm.err("%s", err)
		}
	case OpFileEOF:
		vm.push(BoolValue(vm.fileEOF(ins.Operand.S)))

	case OpSetLiteral:
		n := int(ins.Operand.I)
		elems := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			elems[i] = vm.pop()
		}
		vm.push(SetValue(elems))
	case OpSetContains:
		set := vm.pop()
		v := vm.pop()
		vm.push(BoolValue(set.Contains(v)))

	case OpArrayLoad:
		v, err := vm.arrayLoad(ins.Operand.S)
		if err != nil {
			return 0, vm.err("%s", err)
		}
		vm.push(v)
	case OpArrayStore:
		if err := vm.arrayStoreOp(ins.Operand.S); err != nil {
			return 0, vm.err("%s", err)
		}

	case OpAbs:
		a := vm.pop()
		if a.Kind == KindInt {
			if a.Int < 0 {
				vm.push(IntValue(-a.Int))
			} else {
				vm.push(a)
			}
		} else {
			vm.push(RealValue(math.Abs(a.AsFloat())))
		}
	case OpSqr:
		a := vm.pop()
		if a.Kind == KindInt {
			vm.push(IntValue(a.Int * a.Int))
		} else {
			vm.push(RealValue(a.AsFloat() * a.AsFloat()))
		}
	case OpSqrt:
		vm.push(RealValue(math.Sqrt(vm.pop().AsFloat())))
	case OpSin:
		vm.push(RealValue(math.Sin(vm.pop().AsFloat())))
	case OpCos:
		vm.push(RealValue(math.Cos(vm.pop().AsFloat())))
	case OpArctan:
		vm.push(RealValue(math.Atan(vm.pop().AsFloat())))
	case OpLn:
		vm.push(RealValue(math.Log(vm.pop().AsFloat())))
	case OpExp:
		vm.push(RealValue(math.Exp(vm.pop().AsFloat())))
	case OpTrunc:
		vm.push(IntValue(int64(vm.pop().AsFloat()))) // toward zero, per Go's float->int cast
	case OpRound:
		vm.push(IntValue(int64(math.Round(vm.pop().AsFloat()))))
	case OpOdd:
		vm.push(BoolValue(vm.pop().Int%2 != 0))
	case OpLength:
		vm.push(IntValue(int64(len(vm.pop().Str))))
	case OpCopy:
		count := vm.pop().Int
		start := vm.pop().Int
		s := vm.pop().Str
		vm.push(StrValue(substr(s, start, count)))
	case OpConcat:
		n := int(ins.Operand.I)
		parts := make([]string, n)
		for i := n - 1; i >= 0; i-- {
			parts[i] = vm.pop().Str
		}
		vm.push(StrValue(strings.Join(parts, "")))
	case OpPos:
		s := vm.pop().Str
		sub := vm.pop().Str
		vm.push(IntValue(int64(strings.Index(s, sub) + 1)))
	case OpUpcase:
		vm.push(StrValue(strings.ToUpper(vm.pop().Str)))
	case OpLowercase:
		vm.push(StrValue(strings.ToLower(vm.pop().Str)))
	case OpChr:
		vm.push(StrValue(string(rune(vm.pop().Int))))
	case OpOrd:
		v := vm.pop()
		if v.Kind == KindStr {
			if len(v.Str) == 0 {
				vm.push(IntValue(0))
			} else {
				vm.push(IntValue(int64(v.Str[0])))
			}
		} else {
			vm.push(IntValue(v.Int))
		}

	case OpHalt, OpNop:
		// no-op for NOP; HALT stops the run loop in runFrom

	default:
		return 0, vm.err("unimplemented opcode %s", ins.Op)
	}
	return ip + 1, nil
}

func (vm *VM) err(format string, args ...any) error {
	return runtimeErr(vm.frames, format, args...)
}

func operandToValue(o Operand) Value {
	switch o.Tag {
	case TagInt:
		return IntValue(o.I)
	case TagFloat:
		return RealValue(o.F)
	case TagString:
		return StrValue(o.S)
	case TagBool:
		return BoolValue(o.B)
	default:
		return NilValue()
	}
}

func arith(op OpCode, a, b Value) (Value, error) {
	bothInt := a.Kind == KindInt && b.Kind == KindInt
	switch op {
	case OpAdd:
		if a.Kind == KindStr {
			return StrValue(a.Str + b.Str), nil
		}
		if bothInt {
			return IntValue(a.Int + b.Int), nil
		}
		return RealValue(a.AsFloat() + b.AsFloat()), nil
	case OpSub:
		if bothInt {
			return IntValue(a.Int - b.Int), nil
		}
		return RealValue(a.AsFloat() - b.AsFloat()), nil
	case OpMul:
		if bothInt {
			return IntValue(a.Int * b.Int), nil
		}
		return RealValue(a.AsFloat() * b.AsFloat()), nil
	case OpDiv:
		return RealValue(a.AsFloat() / b.AsFloat()), nil
	case OpIDiv:
		return IntValue(a.Int / b.Int), nil
	case OpMod:
		return IntValue(a.Int % b.Int), nil
	}
	return Value{}, fmt.Errorf("bad arithmetic opcode %s", op)
}

func compare(op OpCode, a, b Value) bool {
	if a.Kind == KindStr && b.Kind == KindStr {
		switch op {
		case OpEq:
			return a.Str == b.Str
		case OpNe:
			return a.Str != b.Str
		case OpLt:
			return a.Str < b.Str
		case OpGt:
			return a.Str > b.Str
		case OpLe:
			return a.Str <= b.Str
		case OpGe:
			return a.Str >= b.Str
		}
	}
	if op == OpEq {
		return a.Equal(b)
	}
	if op == OpNe {
		return !a.Equal(b)
	}
	x, y := a.AsFloat(), b.AsFloat()
	switch op {
	case OpLt:
		return x < y
	case OpGt:
		return x > y
	case OpLe:
		return x <= y
	case OpGe:
		return x >= y
	}
	return false
}

func substr(s string, start, count int64) string {
	if start < 1 {
		start = 1
	}
	i := start - 1
	if i >= int64(len(s)) {
		return ""
	}
	end := i + count
	if end > int64(len(s)) {
		end = int64(len(s))
	}
	if end < i {
		end = i
	}
	return s[i:end]
}

func (vm *VM) allocHeap(v Value) uint64 {
	vm.heapTop++
	vm.heap[vm.heapTop] = v
	return vm.heapTop
}

// call binds arguments into a fresh frame and jumps to the callee's entry
// address. Var-parameter arguments were compiled as a plain string push of
// the caller's variable name; the callee's ByRef metadata tells call which
// popped values to reinterpret that way.
func (vm *VM) call(name string, returnIP int) (int, error) {
	meta := vm.funcMeta(name)
	if meta == nil {
		return 0, vm.err("call to unknown function %s", name)
	}
	sc := newScope(vm.globals)
	byRef := map[string]string{}
	args := make([]Value, len(meta.Params))
	for i := len(meta.Params) - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	for i, param := range meta.Params {
		if i < len(meta.ByRef) && meta.ByRef[i] {
			callerVar := args[i].Str
			byRef[canon(param)] = callerVar
			v, _ := vm.curScope().lookup(callerVar)
			sc.declare(param, v)
		} else {
			sc.declare(param, args[i])
		}
	}
	for _, local := range meta.Locals {
		if _, exists := sc.vars[canon(local)]; !exists {
			sc.declare(local, NilValue())
		}
	}
	vm.frames = append(vm.frames, frame{
		returnIP: returnIP, scope: sc, byRef: byRef,
		funcName: name, isFunc: meta.IsFunction(), retName: name,
	})
	return meta.Entry, nil
}

// ret unwinds the current frame, writing any var-parameter locals back to
// their caller-side variables and, for a function, pushing its result.
func (vm *VM) ret() (int, error) {
	if len(vm.frames) == 0 {
		return 0, vm.err("return with no active call")
	}
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]

	for local, callerVar := range f.byRef {
		if v, ok := f.scope.vars[local]; ok {
			vm.curScope().store(callerVar, v)
		}
	}
	if f.isFunc {
		result := f.scope.vars[canon(f.retName)]
		vm.push(result)
	}
	return f.returnIP, nil
}

func (vm *VM) fileOpen(name string, write bool) error {
	h, ok := vm.files[canon(name)]
	if !ok {
		h = &fileHandle{}
		vm.files[canon(name)] = h
	}
	if h.name == "" {
		return fmt.Errorf("file variable %s was never assign()ed", name)
	}
	if write {
		f, err := os.Create(h.name)
		if err != nil {
			return err
		}
		h.writer, h.closer = f, f
	} else {
		f, err := os.Open(h.name)
		if err != nil {
			return err
		}
		h.reader, h.closer = bufio.NewReader(f), f
	}
	return nil
}

func (vm *VM) fileRead(name string) (Value, error) {
	h, ok := vm.files[canon(name)]
	if !ok || h.reader == nil {
		return Value{}, fmt.Errorf("file variable %s is not open for reading", name)
	}
	line, err := h.reader.ReadString('\n')
	if err != nil && line == "" {
		return StrValue(""), nil
	}
	return StrValue(strings.TrimRight(line, "\r\n")), nil
}

func (vm *VM) fileWrite(name string, v Value) error {
	h, ok := vm.files[canon(name)]
	if !ok || h.writer == nil {
		return fmt.Errorf("file variable %s is not open for writing", name)
	}
	_, err := fmt.Fprintln(h.writer, v.String())
	return err
}

func (vm *VM) fileEOF(name string) bool {
	h, ok := vm.files[canon(name)]
	if !ok || h.reader == nil {
		return true
	}
	_, err := h.reader.Peek(1)
	return err != nil
}

// consoleReader returns the VM's shared stdin reader, creating it on first
// use. Reusing one reader across calls keeps whatever it buffered past a
// line's '\n' available to the next read instead of discarding it.
func (vm *VM) consoleReader() *bufio.Reader {
	if vm.stdinReader == nil {
		vm.stdinReader = bufio.NewReader(vm.Stdin)
	}
	return vm.stdinReader
}

func (vm *VM) readConsoleValue() (Value, error) {
	line, _ := vm.consoleReader().ReadString('\n')
	line = strings.TrimSpace(line)
	if i, err := strconv.ParseInt(line, 10, 64); err == nil {
		return IntValue(i), nil
	}
	if f, err := strconv.ParseFloat(line, 64); err == nil {
		return RealValue(f), nil
	}
	return StrValue(line), nil
}

func (vm *VM) arrayIndices(dims int) ([]int64, error) {
	idx := make([]int64, dims)
	for i := dims - 1; i >= 0; i-- {
		v := vm.pop()
		if v.Kind != KindInt {
			return nil, fmt.Errorf("array index must be an integer")
		}
		idx[i] = v.Int
	}
	return idx, nil
}

func (vm *VM) arrayLoad(name string) (Value, error) {
	arr, err := vm.arrayByName(name)
	if err != nil {
		return Value{}, err
	}
	idx, err := vm.arrayIndices(len(arr.meta.Dimensions))
	if err != nil {
		return Value{}, err
	}
	offset, err := arr.index(idx)
	if err != nil {
		return Value{}, err
	}
	return arr.data[offset], nil
}

func (vm *VM) arrayStoreOp(name string) error {
	arr, err := vm.arrayByName(name)
	if err != nil {
		return err
	}
	value := vm.pop()
	idx, err := vm.arrayIndices(len(arr.meta.Dimensions))
	if err != nil {
		return err
	}
	offset, err := arr.index(idx)
	if err != nil {
		return err
	}
	arr.data[offset] = value
	return nil
}
