package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/cwbudde/go-pasc/internal/errors"
	"github.com/cwbudde/go-pasc/internal/interp"
	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/cwbudde/go-pasc/internal/parser"
	"github.com/cwbudde/go-pasc/internal/semantic"
	"github.com/cwbudde/go-pasc/internal/units"
	"github.com/spf13/cobra"
)

var useVM bool

var runCmd = &cobra.Command{
	Use:   "run <file.pas>",
	Short: "Parse, type-check, and run a program",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&useVM, "vm", false, "run via the bytecode compiler and stack VM instead of the interpreter")
}

func runProgram(_ *cobra.Command, args []string) error {
	filename := args[0]
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	source := string(src)

	prog, err := parser.New(lexer.New(source)).ParseProgram()
	if err != nil {
		printParseError(err, source, filename)
		return err
	}

	dir := filepath.Dir(filename)
	loader := units.NewSourceLoader(dir, searchPathFlag)
	deps, err := loadDependencies(loader, prog.Uses)
	if err != nil {
		return err
	}
	if debugFlag && len(deps) > 0 {
		printUnitTree(deps, prog.Uses)
	}

	if err := typeCheckProgram(prog, deps, source, filename); err != nil {
		return err
	}

	if useVM {
		return runViaVM(prog, deps)
	}
	return runViaInterpreter(prog, deps)
}

// loadDependencies loads every unit prog (transitively) uses, through
// loader, returning them in dependency order: a unit never appears before
// everything it itself uses.
func loadDependencies(loader *units.SourceLoader, uses []string) ([]*ast.Unit, error) {
	var ordered []*ast.Unit
	seen := map[string]bool{}

	var visit func(name string) error
	visit = func(name string) error {
		key := strings.ToLower(name)
		if seen[key] {
			return nil
		}
		u, err := loader.LoadUnit(name)
		if err != nil {
			return err
		}
		seen[key] = true
		for _, dep := range u.Uses {
			if err := visit(dep); err != nil {
				return err
			}
		}
		ordered = append(ordered, u)
		return nil
	}

	for _, name := range uses {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func runViaInterpreter(prog *ast.Program, deps []*ast.Unit) error {
	in := interp.New()
	for _, u := range deps {
		if err := in.LinkUnit(u); err != nil {
			return err
		}
	}
	err := in.Execute(prog)
	for i := len(deps) - 1; i >= 0; i-- {
		if ferr := in.Finalize(deps[i]); err == nil {
			err = ferr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func runViaVM(prog *ast.Program, deps []*ast.Unit) error {
	compiled, err := bytecode.CompileProgramWithUnits(prog, deps)
	if err != nil {
		return err
	}
	vm := bytecode.NewVM(compiled)

	compiledUnits := make([]*bytecode.Unit, len(deps))
	for i, u := range deps {
		cu, err := bytecode.CompileUnitWithUnits(u, deps[:i])
		if err != nil {
			return err
		}
		compiledUnits[i] = cu
		if err := vm.LinkUnit(cu); err != nil {
			return err
		}
	}

	err = vm.Execute()
	for i := len(compiledUnits) - 1; i >= 0; i-- {
		if ferr := vm.Finalize(compiledUnits[i]); err == nil {
			err = ferr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func printParseError(err error, source, filename string) {
	if perr, ok := err.(*parser.ParseError); ok {
		ce := errors.NewCompilerError(perr.Pos, perr.Message, source, filename)
		fmt.Fprintln(os.Stderr, ce.Format(false))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func typeCheckProgram(prog *ast.Program, deps []*ast.Unit, source, filename string) error {
	analyzer := semantic.NewAnalyzer()
	analyzer.SetSource(source, filename)
	if err := analyzer.AnalyzeProgramWithUnits(prog, deps); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatErrors(analyzer.Errors(), false))
		return err
	}
	return nil
}

// printUnitTree renders the program's transitive unit dependencies as an
// ASCII tree, rooted at each name in roots.
func printUnitTree(deps []*ast.Unit, roots []string) {
	fmt.Fprintln(os.Stderr, "unit dependencies:")
	fmt.Fprint(os.Stderr, units.DependencyTree(deps, roots))
}
