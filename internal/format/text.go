package format

import (
	"fmt"
	"io"
)

// TextFormatter handles simple text output formatting
type TextFormatter struct{}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format writes data as "Key: value" lines, one block per row
func (f *TextFormatter) Format(w io.Writer, data interface{}) error {
	if s, ok := data.(string); ok {
		fmt.Fprintln(w, s)
		return nil
	}

	headers, rows := tabulate(data, f.formatValue)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data")
		return nil
	}

	vertical := len(headers) == 2 && (headers[0] == "Property" || headers[0] == "Field")
	if vertical {
		for _, row := range rows {
			fmt.Fprintf(w, "%s: %s\n", row[0], row[1])
		}
		return nil
	}

	for i, row := range rows {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if len(rows) > 1 {
			fmt.Fprintf(w, "Item %d:\n", i+1)
		}
		for j, h := range headers {
			fmt.Fprintf(w, "  %s: %s\n", h, row[j])
		}
	}
	return nil
}

func (f *TextFormatter) formatValue(value interface{}) string {
	if value == nil {
		return "N/A"
	}
	return cellValue(value)
}
