// Package render turns dependency graphs into text and images for the
// `deps` command.
//
//   - [Tree] prints an indented dependency tree, marking repeated subtrees.
//   - [ToDOT] emits Graphviz DOT; installed formulae are filled, keg-only
//     formulae dashed.
//   - [RenderSVG] renders DOT to SVG with the embedded Graphviz build from
//     github.com/goccy/go-graphviz, so no system Graphviz is needed.
package render
