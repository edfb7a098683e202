package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Magic numbers identifying a serialized program (.pbc) or unit (.pbu).
const (
	MagicProgram uint32 = 0x50415343 // "PASC"
	MagicUnit    uint32 = 0x50415355 // "PASU"
	FormatVersion uint16 = 1
)

// Serialize writes a compiled Program to w in the binary .pbc layout.
func Serialize(w io.Writer, p *Program) error {
	return writeProgram(w, MagicProgram, p, nil)
}

// SerializeUnit writes a compiled Unit to w in the binary .pbu layout.
func SerializeUnit(w io.Writer, u *Unit) error {
	return writeProgram(w, MagicUnit, &u.Program, u)
}

func writeProgram(w io.Writer, magic uint32, p *Program, u *Unit) error {
	bw := &byteWriter{w: w}
	bw.u32(magic)
	bw.u16(FormatVersion)
	bw.str(p.Name)
	bw.strList(p.Uses)

	bw.u32(uint32(len(p.Instructions)))
	for _, ins := range p.Instructions {
		bw.instruction(ins)
	}

	bw.strList(p.Globals)
	bw.strList(p.Pointers)
	bw.strList(p.Sets)
	bw.strList(p.Files)

	bw.u32(uint32(len(p.Arrays)))
	for _, a := range p.Arrays {
		bw.str(a.Name)
		bw.str(a.ElemType)
		bw.u32(uint32(len(a.Dimensions)))
		for _, d := range a.Dimensions {
			bw.i64(d.Low)
			bw.i64(d.High)
		}
	}

	bw.u32(uint32(len(p.Records)))
	for _, r := range p.Records {
		bw.str(r.Name)
		bw.strList(r.Fields)
	}

	bw.u32(uint32(len(p.Enums)))
	for _, e := range p.Enums {
		bw.str(e.Name)
		bw.strList(e.Values)
	}

	bw.u32(uint32(len(p.Funcs)))
	for _, f := range p.Funcs {
		bw.str(f.Name)
		bw.u32(uint32(f.Entry))
		bw.strList(f.Params)
		bw.u32(uint32(len(f.ByRef)))
		for _, b := range f.ByRef {
			bw.bool(b)
		}
		bw.str(f.ReturnType)
		bw.strList(f.Locals)
	}

	bw.u32(uint32(len(p.Labels)))
	for name, addr := range p.Labels {
		bw.str(name)
		bw.u32(uint32(addr))
	}

	if u != nil {
		bw.u32(uint32(len(u.Init)))
		for _, ins := range u.Init {
			bw.instruction(ins)
		}
		bw.u32(uint32(len(u.Final)))
		for _, ins := range u.Final {
			bw.instruction(ins)
		}
	}
	return bw.err
}

// Deserialize reads a .pbc program back from r.
func Deserialize(r io.Reader) (*Program, error) {
	p, _, err := readProgram(r, MagicProgram)
	return p, err
}

// DeserializeUnit reads a .pbu unit back from r.
func DeserializeUnit(r io.Reader) (*Unit, error) {
	p, br, err := readProgram(r, MagicUnit)
	if err != nil {
		return nil, err
	}
	u := &Unit{Program: *p}
	n := br.u32()
	u.Init = make([]Instruction, n)
	for i := range u.Init {
		u.Init[i] = br.instruction()
	}
	n = br.u32()
	u.Final = make([]Instruction, n)
	for i := range u.Final {
		u.Final[i] = br.instruction()
	}
	if br.err != nil {
		return nil, br.err
	}
	return u, nil
}

func readProgram(r io.Reader, wantMagic uint32) (*Program, *byteReader, error) {
	br := &byteReader{r: r}
	magic := br.u32()
	if br.err != nil {
		return nil, nil, br.err
	}
	if magic != wantMagic {
		return nil, nil, fmt.Errorf("bad magic number %#x, expected %#x", magic, wantMagic)
	}
	version := br.u16()
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("unsupported bytecode format version %d", version)
	}

	p := NewProgram(br.str())
	p.Uses = br.strList()

	n := br.u32()
	p.Instructions = make([]Instruction, n)
	for i := range p.Instructions {
		p.Instructions[i] = br.instruction()
	}

	p.Globals = br.strList()
	p.Pointers = br.strList()
	p.Sets = br.strList()
	p.Files = br.strList()

	n = br.u32()
	p.Arrays = make([]ArrayMeta, n)
	for i := range p.Arrays {
		p.Arrays[i].Name = br.str()
		p.Arrays[i].ElemType = br.str()
		dn := br.u32()
		p.Arrays[i].Dimensions = make([]Dimension, dn)
		for j := range p.Arrays[i].Dimensions {
			p.Arrays[i].Dimensions[j] = Dimension{Low: br.i64(), High: br.i64()}
		}
	}

	n = br.u32()
	p.Records = make([]RecordMeta, n)
	for i := range p.Records {
		p.Records[i].Name = br.str()
		p.Records[i].Fields = br.strList()
	}

	n = br.u32()
	p.Enums = make([]EnumMeta, n)
	for i := range p.Enums {
		p.Enums[i].Name = br.str()
		p.Enums[i].Values = br.strList()
	}

	n = br.u32()
	p.Funcs = make([]FuncMeta, n)
	for i := range p.Funcs {
		p.Funcs[i].Name = br.str()
		p.Funcs[i].Entry = int(br.u32())
		p.Funcs[i].Params = br.strList()
		bn := br.u32()
		p.Funcs[i].ByRef = make([]bool, bn)
		for j := range p.Funcs[i].ByRef {
			p.Funcs[i].ByRef[j] = br.bool()
		}
		p.Funcs[i].ReturnType = br.str()
		p.Funcs[i].Locals = br.strList()
	}

	n = br.u32()
	p.Labels = make(map[string]int, n)
	for i := uint32(0); i < n; i++ {
		name := br.str()
		addr := br.u32()
		p.Labels[name] = int(addr)
	}

	return p, br, br.err
}

// byteWriter/byteReader implement the length-prefixed-string, u32-count-
// prefixed-collection wire format shared by every aggregate above, plus the
// tagged instruction-operand encoding. All multi-byte integers are
// big-endian. Each instruction is a u32 opcode (not a single byte), a u8
// operand tag, then the payload keyed by tag:
//
//	tag 0 null, 1 i64 (eight bytes, not i32), 2 f64, 3 string, 4 bool,
//	5 string array, 6 array of (tag 1|3|4) primitives.
type byteWriter struct {
	w   io.Writer
	err error
}

func (bw *byteWriter) write(p []byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(p)
}

func (bw *byteWriter) u16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	bw.write(b[:])
}
func (bw *byteWriter) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	bw.write(b[:])
}
func (bw *byteWriter) i64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	bw.write(b[:])
}
func (bw *byteWriter) f64(v float64) { bw.i64(int64(math.Float64bits(v))) }
func (bw *byteWriter) bool(v bool) {
	if v {
		bw.write([]byte{1})
	} else {
		bw.write([]byte{0})
	}
}
func (bw *byteWriter) str(s string) {
	bw.u32(uint32(len(s)))
	bw.write([]byte(s))
}
func (bw *byteWriter) strList(list []string) {
	bw.u32(uint32(len(list)))
	for _, s := range list {
		bw.str(s)
	}
}

func (bw *byteWriter) instruction(ins Instruction) {
	bw.u32(uint32(ins.Op))
	o := ins.Operand
	bw.write([]byte{byte(o.Tag)})
	switch o.Tag {
	case TagNull:
	case TagInt:
		bw.i64(o.I)
	case TagFloat:
		bw.f64(o.F)
	case TagString:
		bw.str(o.S)
	case TagBool:
		bw.bool(o.B)
	case TagStringList:
		bw.strList(o.SList)
	case TagMixedList:
		bw.u32(uint32(len(o.MList)))
		for _, prim := range o.MList {
			bw.write([]byte{byte(prim.Tag)})
			switch prim.Tag {
			case TagInt:
				bw.i64(prim.I)
			case TagString:
				bw.str(prim.S)
			case TagBool:
				bw.bool(prim.B)
			}
		}
	}
}

type byteReader struct {
	r   io.Reader
	err error
}

func (br *byteReader) read(n int) []byte {
	if br.err != nil {
		return make([]byte, n)
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(br.r, buf)
	if err != nil {
		br.err = err
	}
	return buf
}

func (br *byteReader) u16() uint16 { return binary.BigEndian.Uint16(br.read(2)) }
func (br *byteReader) u32() uint32 { return binary.BigEndian.Uint32(br.read(4)) }
func (br *byteReader) i64() int64  { return int64(binary.BigEndian.Uint64(br.read(8))) }
func (br *byteReader) f64() float64 { return math.Float64frombits(uint64(br.i64())) }
func (br *byteReader) bool() bool  { return br.read(1)[0] != 0 }
func (br *byteReader) str() string {
	n := br.u32()
	return string(br.read(int(n)))
}
func (br *byteReader) strList() []string {
	n := br.u32()
	out := make([]string, n)
	for i := range out {
		out[i] = br.str()
	}
	return out
}

func (br *byteReader) instruction() Instruction {
	op := OpCode(br.u32())
	tag := OperandTag(br.read(1)[0])
	o := Operand{Tag: tag}
	switch tag {
	case TagInt:
		o.I = br.i64()
	case TagFloat:
		o.F = br.f64()
	case TagString:
		o.S = br.str()
	case TagBool:
		o.B = br.bool()
	case TagStringList:
		o.SList = br.strList()
	case TagMixedList:
		n := br.u32()
		o.MList = make([]Primitive, n)
		for i := range o.MList {
			ptag := OperandTag(br.read(1)[0])
			switch ptag {
			case TagInt:
				o.MList[i] = PInt(br.i64())
			case TagString:
				o.MList[i] = PStr(br.str())
			case TagBool:
				o.MList[i] = PBool(br.bool())
			}
		}
	}
	return Instruction{Op: op, Operand: o}
}

// RoundTripBytes serializes p and reads it straight back, used by tests to
// check the wire format is self-consistent without touching a filesystem.
func RoundTripBytes(p *Program) (*Program, error) {
	var buf bytes.Buffer
	if err := Serialize(&buf, p); err != nil {
		return nil, err
	}
	return Deserialize(&buf)
}
