// Package interp implements a tree-walking evaluator for the same language
// the bytecode backend compiles: it shares the VM's state model (scope
// chain, heap, arrays, sets, files) and built-in catalog, and differs only
// in how control flow and calls are dispatched.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/cwbudde/go-pasc/internal/errors"
)

// RuntimeError is a fatal error raised while evaluating the AST, carrying a
// call-stack trace the same way the VM's RuntimeError does.
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

func canon(s string) string { return strings.ToLower(s) }

// scope is one level of the interpreter's variable lookup chain: function
// locals innermost, globals outermost, the same shape as the VM's scope.
type scope struct {
	vars map[string]bytecode.Value
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: map[string]bytecode.Value{}, parent: parent}
}

func (s *scope) lookup(name string) (bytecode.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[canon(name)]; ok {
			return v, true
		}
	}
	return bytecode.Value{}, false
}

func (s *scope) store(name string, v bytecode.Value) {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.vars[canon(name)]; ok {
			sc.vars[canon(name)] = v
			return
		}
	}
	s.vars[canon(name)] = v
}

func (s *scope) declare(name string, v bytecode.Value) { s.vars[canon(name)] = v }

// arrayStore is one array's flat, row-major backing storage, identical in
// shape to the VM's arrayStore.
type arrayStore struct {
	meta bytecode.ArrayMeta
	data []bytecode.Value
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

func arraySize(a bytecode.ArrayMeta) int64 {
	size := int64(1)
	for _, d := range a.Dimensions {
		size *= d.High - d.Low + 1
	}
	return size
}

// fileHandle is one open file variable's runtime state.
type fileHandle struct {
	name string
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
}

// recordType records a record type's field names (in declaration order) and
// their declared types.
type recordType struct {
	fieldOrder []string
	fieldType map[string]string
}

// funcInfo is a user procedure/function's signature plus its body, enough
// to evaluate a call without a separate compile step.
type funcInfo struct {
	decl *ast.ProcDecl
}

// callFrame is one active call's var-parameter back-mapping: local param
// name (canon) -> caller-side variable name it aliases.
type callFrame struct {
	funcName string
	byRef map[string]string
}

// gotoSignal unwinds the Go call stack up to the enclosing block that
// defines the target label, raised as a control-flow signal rather than
// threaded through return values.
type gotoSignal struct{ label string }

// returnSignal unwinds to the current call boundary, used by `exit`.
type returnSignal struct{}

// Interpreter walks program/unit ASTs directly, sharing the VM's notion of
// scope chain, heap, arrays, and files.
type Interpreter struct {
	recordTypes map[string]*recordType
	recordVar map[string]string // var name (canon) -> record type name
	arrayMeta map[string]bytecode.ArrayMeta
	enumOrdinal map[string]int64
	constVals map[string]bytecode.Value
	fileVars map[string]bool
	pointerVars map[string]bool
	setVars map[string]bool
	funcs map[string]*funcInfo

	globals *scope
	arrays map[string]*arrayStore
	files map[string]*fileHandle

	heap map[uint64]bytecode.Value
	heapTop uint64

	frames []callFrame

	linked map[string]bool // unit names already merged in

	Stdout io.Writer
	Stdin io.Reader
	stdinReader *bufio.Reader
}

// New creates an Interpreter with empty global state.
func New() *Interpreter {
	return &Interpreter{
		recordTypes: map[string]*recordType{},
		recordVar: map[string]string{},
		arrayMeta: map[string]bytecode.ArrayMeta{},
		enumOrdinal: map[string]int64{},
		constVals: map[string]bytecode.Value{},
		fileVars: map[string]bool{},
		pointerVars: map[string]bool{},
		setVars: map[string]bool{},
		funcs: map[string]*funcInfo{},
		globals: newScope(nil),
		arrays: map[string]*arrayStore{},
		files: map[string]*fileHandle{},
		heap: map[uint64]bytecode.Value{},
		linked: map[string]bool{},
		Stdout: os.Stdout,
		Stdin: os.Stdin,
	}
}

func (i *Interpreter) err(format string, args ...any) error {
	trace := make(errors.StackTrace, 0, len(i.frames))
	for idx := 0; idx < len(i.frames); idx++ {
		trace = append(trace, errors.NewStackFrame(i.frames[idx].funcName, "", nil))
	}
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Trace: trace}
}

// fatalSignal carries a RuntimeError up the Go call stack via panic/recover,
// the tree-walker's equivalent of the VM's step() returning an error: every
// enclosing call frame still pops its scope and runs var-parameter
// write-back via defer before the signal keeps propagating.
type fatalSignal struct{ err *RuntimeError }

func (i *Interpreter) fail(format string, args ...any) {
	panic(fatalSignal{err: i.err(format, args...).(*RuntimeError)})
}

func (i *Interpreter) fileOpen(name string, write bool) {
	h, ok := i.files[canon(name)]
	if !ok {
		h = &fileHandle{}
		i.files[canon(name)] = h
	}
	if h.name == "" {
		i.fail("file variable %s was never assign()ed", name)
	}
	if write {
		f, ferr := os.Create(h.name)
		if ferr != nil {
			i.fail("%s", ferr)
		}
		h.writer, h.closer = f, f
	} else {
		f, ferr := os.Open(h.name)
		if ferr != nil {
			i.fail("%s", ferr)
		}
		h.reader, h.closer = bufio.NewReader(f), f
	}
}

func (i *Interpreter) fileRead(name string) bytecode.Value {
	h, ok := i.files[canon(name)]
	if !ok || h.reader == nil {
		i.fail("file variable %s is not open for reading", name)
	}
	line, rerr := h.reader.ReadString('\n')
	if rerr != nil && line == "" {
		return bytecode.StrValue("")
	}
	return bytecode.StrValue(strings.TrimRight(line, "\r\n"))
}

func (i *Interpreter) fileWrite(name string, v bytecode.Value) {
	h, ok := i.files[canon(name)]
	if !ok || h.writer == nil {
		i.fail("file variable %s is not open for writing", name)
	}
	fmt.Fprintln(h.writer, v.String())
}

func (i *Interpreter) fileEOF(name string) bool {
	h, ok := i.files[canon(name)]
	if !ok || h.reader == nil {
		return true
	}
	_, perr := h.reader.Peek(1)
	return perr != nil
}

// consoleReader returns the interpreter's shared stdin reader, creating it
// on first use. Reusing one reader across calls keeps whatever it buffered
// past a line's '\n' available to the next read instead of discarding it.
func (i *Interpreter) consoleReader() *bufio.Reader {
	if i.stdinReader == nil {
		i.stdinReader = bufio.NewReader(i.Stdin)
	}
	return i.stdinReader
}

func (i *Interpreter) readConsoleValue() bytecode.Value {
	line, _ := i.consoleReader().ReadString('\n')
	line = strings.TrimSpace(line)
	if n, ierr := strconv.ParseInt(line, 10, 64); ierr == nil {
		return bytecode.IntValue(n)
	}
	if f, ferr := strconv.ParseFloat(line, 64); ferr == nil {
		return bytecode.RealValue(f)
	}
	return bytecode.StrValue(line)
}

func (i *Interpreter) allocHeap(v bytecode.Value) uint64 {
	i.heapTop++
	i.heap[i.heapTop] = v
	return i.heapTop
}

// Execute registers a program's declarations and runs its main block.
func (i *Interpreter) Execute(prog *ast.Program) error {
	i.registerAll(fromProgram(prog))
	return i.runBlock(prog.Body, i.globals)
}

// LinkUnit merges a unit's declarations into the interpreter's global state
// and runs its initialization block, mirroring the VM's LinkUnit.
func (i *Interpreter) LinkUnit(u *ast.Unit) error {
	if i.linked[canon(u.Name)] {
		return nil
	}
	i.linked[canon(u.Name)] = true
	i.registerAll(fromUnitSections(u.Interface, u.Implementation))
	if u.Init != nil {
		return i.runBlock(u.Init, i.globals)
	}
	return nil
}

// Finalize runs a linked unit's finalization block.
func (i *Interpreter) Finalize(u *ast.Unit) error {
	if u.Final == nil {
		return nil
	}
	return i.runBlock(u.Final, i.globals)
}

// runBlock executes a compound statement as a fresh top-level sequence
// (program body, unit init/final block), translating an escaping
// returnSignal (a bare `exit` at that level) into a normal stop.
func (i *Interpreter) runBlock(body *ast.CompoundStmt, sc *scope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch sig := r.(type) {
			case returnSignal:
			case gotoSignal:
				err = i.err("unresolved goto label %s", sig.label)
			case fatalSignal:
				err = sig.err
			default:
				panic(r)
			}
		}
	}()
	i.execStmt(body, sc)
	return nil
}
