package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/cellar/pkg/dag"
)

func diamond(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"d", "e"}} {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestTree(t *testing.T) {
	var buf bytes.Buffer
	if err := Tree(&buf, diamond(t), "a"); err != nil {
		t.Fatal(err)
	}
	want := "a\n" +
		"├── b\n" +
		"│   └── d\n" +
		"│       └── e\n" +
		"└── c\n" +
		"    └── d (*)\n"
	if buf.String() != want {
		t.Errorf("Tree() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestToDOT(t *testing.T) {
	g := diamond(t)
	n, _ := g.Node("d")
	n.Meta["version"] = "3.3.2"
	n.Meta["keg_only"] = true

	dot := ToDOT(g, Options{Detailed: true, Installed: map[string]bool{"a": true}})

	for _, want := range []string{
		`digraph deps {`,
		`"a" -> "b";`,
		`"c" -> "d";`,
		`version: 3.3.2`,
		`fillcolor="#d5f5e3"`,
		`dashed`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}

	plain := ToDOT(g, Options{})
	if strings.Contains(plain, "version:") {
		t.Error("non-detailed output should not include metadata")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="62" height="116"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	noViewBox := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(noViewBox)) != string(noViewBox) {
		t.Error("input without viewBox should be unchanged")
	}
}
