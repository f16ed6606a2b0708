package gcode

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// Lexer tokenises G-code for syntax highlighting
var Lexer = chroma.MustNewLexer(
	&chroma.Config{
		Name:      "G-code",
		Aliases:   []string{"gcode", "g-code"},
		Filenames: []string{"*.gcode", "*.gco", "*.g"},
		MimeTypes: []string{"text/x-gcode"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `;[^\n]*`, Type: chroma.CommentSingle},
				{Pattern: `[GMT]\d+`, Type: chroma.Keyword},
				{Pattern: `([A-Z])(-?\d+(?:\.\d+)?)`, Type: chroma.ByGroups(chroma.NameAttribute, chroma.LiteralNumber)},
				{Pattern: `\s+`, Type: chroma.TextWhitespace},
				{Pattern: `.`, Type: chroma.Text},
			},
		}
	},
)

// Highlight writes text to w with terminal colors. Unknown style names fall
// back to the chroma default style.
func Highlight(w io.Writer, text, style string) error {
	it, err := Lexer.Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("failed to tokenise G-code: %w", err)
	}
	if err := formatters.TTY256.Format(w, styles.Get(style), it); err != nil {
		return fmt.Errorf("failed to highlight G-code: %w", err)
	}
	return nil
}
