package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/cwbudde/go-pasc/internal/errors"
	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/cwbudde/go-pasc/internal/parser"
	"github.com/cwbudde/go-pasc/internal/semantic"
	"github.com/cwbudde/go-pasc/internal/units"
	"github.com/spf13/cobra"
)

var compileUnitCmd = &cobra.Command{
	Use:   "compile-unit <file.pas>",
	Short: "Compile a unit to bytecode",
	Args:  cobra.ExactArgs(1),
	RunE:  compileUnit,
}

func init() {
	rootCmd.AddCommand(compileUnitCmd)
}

func compileUnit(_ *cobra.Command, args []string) error {
	filename := args[0]
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	source := string(src)

	u, err := parser.New(lexer.New(source)).ParseUnit()
	if err != nil {
		printParseError(err, source, filename)
		return err
	}

	dir := filepath.Dir(filename)
	loader := units.NewSourceLoader(dir, searchPathFlag)
	deps, err := loadDependencies(loader, u.Uses)
	if err != nil {
		return err
	}

	analyzer := semantic.NewAnalyzer()
	analyzer.SetSource(source, filename)
	if err := analyzer.AnalyzeUnitWithUnits(u, deps); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatErrors(analyzer.Errors(), false))
		return err
	}

	compiled, err := bytecode.CompileUnitWithUnits(u, deps)
	if err != nil {
		return err
	}

	out := outputFlag
	if out == "" {
		out = replaceExt(filename, ".pbu")
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	if err := bytecode.SerializeUnit(f, compiled); err != nil {
		return fmt.Errorf("serializing %s: %w", out, err)
	}
	debugf("wrote %s\n", out)
	return nil
}
