package output

import (
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// NewTable returns a table writing to w with the standard header style.
func NewTable(w io.Writer, headers ...interface{}) table.Table {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	return table.New(headers...).
		WithWriter(w).
		WithHeaderFormatter(headerFmt)
}
