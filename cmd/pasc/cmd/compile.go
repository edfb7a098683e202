package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/cwbudde/go-pasc/internal/parser"
	"github.com/cwbudde/go-pasc/internal/units"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <file.pas>",
	Short: "Compile a program to bytecode",
	Args:  cobra.ExactArgs(1),
	RunE:  compileProgram,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func compileProgram(_ *cobra.Command, args []string) error {
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

	if err := typeCheckProgram(prog, deps, source, filename); err != nil {
		return err
	}

	compiled, err := bytecode.CompileProgramWithUnits(prog, deps)
	if err != nil {
		return err
	}

	out := outputFlag
	if out == "" {
		out = replaceExt(filename, ".pbc")
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	if err := bytecode.Serialize(f, compiled); err != nil {
		return fmt.Errorf("serializing %s: %w", out, err)
	}
	debugf("wrote %s\n", out)
	return nil
}

// replaceExt swaps path's extension for ext, or appends ext if path has none.
func replaceExt(path, ext string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	return trimmed + ext
}
