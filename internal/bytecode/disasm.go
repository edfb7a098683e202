package bytecode

import (
	"fmt"
	"sort"
	"strings"
)

// Disassemble renders a compiled Program as human-readable text: one line
// per instruction plus a trailing dump of its function/array/enum/record
// metadata. Labels are inlined next to the address they resolve to.
func Disassemble(p *Program) string {
	var sb strings.Builder

	addrLabels := map[int][]string{}
	for name, addr := range p.Labels {
		addrLabels[addr] = append(addrLabels[addr], name)
	}

	fmt.Fprintf(&sb, "; program %s\n", p.Name)
	if len(p.Uses) > 0 {
		fmt.Fprintf(&sb, "; uses %s\n", strings.Join(p.Uses, ", "))
	}
	for addr, ins := range p.Instructions {
		if labels, ok := addrLabels[addr]; ok {
			sort.Strings(labels)
			for _, l := range labels {
				fmt.Fprintf(&sb, "%s:\n", l)
			}
		}
		fmt.Fprintf(&sb, "%6d: %s\n", addr, ins.String())
	}

	if len(p.Funcs) > 0 {
		sb.WriteString("\n; functions\n")
		for _, f := range p.Funcs {
			kind := "procedure"
			if f.IsFunction() {
				kind = "function"
			}
			fmt.Fprintf(&sb, "%s %s entry=%d params=%s byref=%v locals=%s\n",
				kind, f.Name, f.Entry, strings.Join(f.Params, ","), f.ByRef, strings.Join(f.Locals, ","))
		}
	}
	if len(p.Arrays) > 0 {
		sb.WriteString("\n; arrays\n")
		for _, a := range p.Arrays {
			fmt.Fprintf(&sb, "%s: array of %s dims=%v\n", a.Name, a.ElemType, a.Dimensions)
		}
	}
	if len(p.Records) > 0 {
		sb.WriteString("\n; records\n")
		for _, r := range p.Records {
			fmt.Fprintf(&sb, "%s: %s\n", r.Name, strings.Join(r.Fields, ","))
		}
	}
	if len(p.Enums) > 0 {
		sb.WriteString("\n; enums\n")
		for _, e := range p.Enums {
			fmt.Fprintf(&sb, "%s: (%s)\n", e.Name, strings.Join(e.Values, ","))
		}
	}
	return sb.String()
}

// DisassembleUnit disassembles a Unit, including its init/final blocks.
func DisassembleUnit(u *Unit) string {
	var sb strings.Builder
	sb.WriteString(Disassemble(&u.Program))
	if len(u.Init) > 0 {
		sb.WriteString("\n; initialization\n")
		for addr, ins := range u.Init {
			fmt.Fprintf(&sb, "%6d: %s\n", addr, ins.String())
		}
	}
	if len(u.Final) > 0 {
		sb.WriteString("\n; finalization\n")
		for addr, ins := range u.Final {
			fmt.Fprintf(&sb, "%6d: %s\n", addr, ins.String())
		}
	}
	return sb.String()
}
