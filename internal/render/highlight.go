package render

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Patch writes a commit patch to w, colored for a 256-color terminal when
// color is set.
func Patch(w io.Writer, patch string, pref ThemePreference, color bool) error {
	if !color {
		_, err := io.WriteString(w, patch)
		return err
	}
	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, patch)
	if err != nil {
		return fmt.Errorf("tokenise patch: %w", err)
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	if err := formatter.Format(w, styleForPreference(pref), iterator); err != nil {
		return fmt.Errorf("format patch: %w", err)
	}
	return nil
}
