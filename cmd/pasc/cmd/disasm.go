package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.pbc|file.pbu>",
	Short: "Disassemble a compiled program or unit",
	Args:  cobra.ExactArgs(1),
	RunE:  disassemble,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func disassemble(_ *cobra.Command, args []string) error {
	filename := args[0]
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	defer f.Close()

	var text string
	if strings.EqualFold(filepath.Ext(filename), ".pbu") {
		u, err := bytecode.DeserializeUnit(f)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", filename, err)
		}
		text = bytecode.DisassembleUnit(u)
	} else {
		p, err := bytecode.Deserialize(f)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", filename, err)
		}
		text = bytecode.Disassemble(p)
	}

	if outputFlag == "" {
		fmt.Println(text)
		return nil
	}
	return os.WriteFile(outputFlag, []byte(text), 0o644)
}
