package units

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-pasc/internal/ast"
)

// DependencyTree renders deps as an ASCII tree rooted at each name in roots,
// the same shape `--debug` prints for a program or unit's transitive uses
// clause. A unit already shown earlier in the tree is repeated as a leaf
// marked "(already shown)" rather than re-expanded, since uses cycles are
// already rejected at load time but diamond dependencies are common.
func DependencyTree(deps []*ast.Unit, roots []string) string {
	byName := map[string]*ast.Unit{}
	for _, u := range deps {
		byName[canon(u.Name)] = u
	}

	var sb strings.Builder
	shown := map[string]bool{}
	for i, root := range roots {
		writeNode(&sb, byName, root, "", shown, i == len(roots)-1)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, byName map[string]*ast.Unit, name, prefix string, shown map[string]bool, isLast bool) {
	connector := "├─ "
	nextPrefix := prefix + "│  "
	if isLast {
		connector = "└─ "
		nextPrefix = prefix + "   "
	}

	key := canon(name)
	if shown[key] {
		fmt.Fprintf(sb, "%s%s%s (already shown)\n", prefix, connector, name)
		return
	}
	fmt.Fprintf(sb, "%s%s%s\n", prefix, connector, name)

	u, ok := byName[key]
	if !ok {
		return
	}
	shown[key] = true
	for i, dep := range u.Uses {
		writeNode(sb, byName, dep, nextPrefix, shown, i == len(u.Uses)-1)
	}
}
