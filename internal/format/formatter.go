package format

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/verifydesk/cli/internal/config"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(w io.Writer, data interface{}) error
}

// GetFormatter returns a formatter based on the specified format
func GetFormatter(format string, useColors bool) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(useColors), nil
	case "json":
		return NewJSONFormatter(true), nil
	case "json-compact":
		return NewJSONFormatter(false), nil
	case "yaml":
		return NewYAMLFormatter(), nil
	case "text":
		return NewTextFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Print formats and prints data to stdout using the configured output format
func Print(data interface{}) error {
	return Fprint(os.Stdout, data)
}

// Fprint formats data to w using the configured output format
func Fprint(w io.Writer, data interface{}) error {
	formatter, err := GetFormatter(config.GetOutputFormat(), config.Get().Format.Colors)
	if err != nil {
		return err
	}
	return formatter.Format(w, data)
}

func printColored(c *color.Color, prefix, message string, args ...interface{}) {
	if config.Get().Format.Colors {
		c.Printf(message+"\n", args...)
		return
	}
	fmt.Printf(prefix+message+"\n", args...)
}

// PrintSuccess prints a success message
func PrintSuccess(message string, args ...interface{}) {
	printColored(color.New(color.FgGreen), "", message, args...)
}

// PrintError prints an error message
func PrintError(message string, args ...interface{}) {
	printColored(color.New(color.FgRed), "Error: ", message, args...)
}

// PrintWarning prints a warning message
func PrintWarning(message string, args ...interface{}) {
	printColored(color.New(color.FgYellow, color.Bold), "Warning: ", message, args...)
}

// PrintInfo prints an info message
func PrintInfo(message string, args ...interface{}) {
	printColored(color.New(color.FgBlue), "Info: ", message, args...)
}

// PrintDebug prints a debug message if debug mode is enabled
func PrintDebug(message string, args ...interface{}) {
	if config.IsDebug() {
		printColored(color.New(color.FgCyan), "", "[DEBUG] "+message, args...)
	}
}
