// Command pasc is the command-line front-end for the lexer, parser,
// semantic analyzer, bytecode compiler/VM, tree-walking interpreter, and
// unit loader implemented under internal/.
package main

import (
	"os"

	"github.com/cwbudde/go-pasc/cmd/pasc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
