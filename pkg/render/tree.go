package render

import (
	"io"
	"strings"

	"github.com/matzehuels/cellar/pkg/dag"
)

// Tree writes the dependency tree below root using box-drawing connectors.
// A formula already printed in full is shown again with " (*)" and not
// expanded, which keeps diamond-heavy graphs readable.
func Tree(w io.Writer, g *dag.DAG, root string) error {
	seen := make(map[string]bool)
	var b strings.Builder
	b.WriteString(root)
	b.WriteByte('\n')
	seen[root] = true
	writeChildren(&b, g, root, "", seen)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChildren(b *strings.Builder, g *dag.DAG, id, indent string, seen map[string]bool) {
	children := g.Children(id)
	for i, child := range children {
		last := i == len(children)-1
		connector, next := "├── ", "│   "
		if last {
			connector, next = "└── ", "    "
		}
		b.WriteString(indent)
		b.WriteString(connector)
		b.WriteString(child)
		if seen[child] {
			if len(g.Children(child)) > 0 {
				b.WriteString(" (*)")
			}
			b.WriteByte('\n')
			continue
		}
		b.WriteByte('\n')
		seen[child] = true
		writeChildren(b, g, child, indent+next, seen)
	}
}
