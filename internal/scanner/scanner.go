// Package scanner extracts image link destinations from Markdown content.
package scanner

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// The engine is stateless and safe to share across calls.
var engine = goldmark.New()

// Images returns the destination of every image in src, in document order.
// Inline (![alt](dest)) and reference-style (![alt][id] with a separate
// [id]: dest definition) images both surface as image nodes with a resolved
// destination, so neither needs special-casing. Duplicates are preserved and
// plain hyperlinks are ignored. Malformed markdown degrades to fewer matches
// rather than an error.
func Images(src []byte) []string {
	root := engine.Parser().Parse(text.NewReader(src))

	var found []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			found = append(found, string(img.Destination))
		}
		return ast.WalkContinue, nil
	})
	return found
}
