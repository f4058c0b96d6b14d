package format

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Tabular is implemented by values that know their own column layout
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// TableFormatter handles table output formatting
type TableFormatter struct {
	useColors bool
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(useColors bool) *TableFormatter {
	return &TableFormatter{
		useColors: useColors,
	}
}

// Format writes data as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	headers, rows := tabulate(data, f.formatValue)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data to display")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	f.configureTable(table, len(headers))
	table.AppendBulk(rows)
	table.Render()
	return nil
}

// configureTable sets up table appearance
func (f *TableFormatter) configureTable(table *tablewriter.Table, columns int) {
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	if f.useColors && columns > 0 {
		colors := make([]tablewriter.Colors, columns)
		for i := range colors {
			colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiBlueColor}
		}
		table.SetHeaderColor(colors...)
	}
}

// formatValue formats a value for a table cell
func (f *TableFormatter) formatValue(value interface{}) string {
	if b, ok := value.(bool); ok && f.useColors {
		if b {
			return color.GreenString("true")
		}
		return color.RedString("false")
	}
	return cellValue(value)
}

// tabulate flattens supported shapes into headers and rows
func tabulate(data interface{}, cell func(interface{}) string) ([]string, [][]string) {
	if data == nil {
		return nil, nil
	}

	switch v := data.(type) {
	case Tabular:
		return v.Headers(), v.Rows()
	case []map[string]interface{}:
		return tabulateMaps(v, cell)
	case map[string]interface{}:
		return tabulateMap(v, cell)
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return tabulateStruct(rv, cell)
	case reflect.Slice, reflect.Array:
		return tabulateSlice(rv, cell)
	default:
		return []string{"Value"}, [][]string{{cell(data)}}
	}
}

func tabulateMaps(data []map[string]interface{}, cell func(interface{}) string) ([]string, [][]string) {
	if len(data) == 0 {
		return nil, nil
	}

	keySet := make(map[string]struct{})
	for _, row := range data {
		for k := range row {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]string, len(keys))
	for i, k := range keys {
		headers[i] = formatHeader(k)
	}

	rows := make([][]string, 0, len(data))
	for _, row := range data {
		values := make([]string, len(keys))
		for i, k := range keys {
			values[i] = cell(row[k])
		}
		rows = append(rows, values)
	}
	return headers, rows
}

func tabulateMap(data map[string]interface{}, cell func(interface{}) string) ([]string, [][]string) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{formatHeader(k), cell(data[k])})
	}
	return []string{"Property", "Value"}, rows
}

// tabulateStruct renders one struct as a vertical property table
func tabulateStruct(v reflect.Value, cell func(interface{}) string) ([]string, [][]string) {
	names, values := structFields(v)
	rows := make([][]string, len(names))
	for i := range names {
		rows[i] = []string{formatHeader(names[i]), cell(values[i])}
	}
	return []string{"Field", "Value"}, rows
}

func tabulateSlice(v reflect.Value, cell func(interface{}) string) ([]string, [][]string) {
	if v.Len() == 0 {
		return nil, nil
	}

	first := reflect.Indirect(v.Index(0))
	if first.Kind() != reflect.Struct {
		rows := make([][]string, v.Len())
		for i := 0; i < v.Len(); i++ {
			rows[i] = []string{cell(v.Index(i).Interface())}
		}
		return []string{"Value"}, rows
	}

	names, _ := structFields(first)
	headers := make([]string, len(names))
	for i, n := range names {
		headers[i] = formatHeader(n)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		_, values := structFields(reflect.Indirect(v.Index(i)))
		row := make([]string, len(values))
		for j, val := range values {
			row[j] = cell(val)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// structFields returns exported fields named by their json tag
func structFields(v reflect.Value) ([]string, []interface{}) {
	t := v.Type()
	names := make([]string, 0, t.NumField())
	values := make([]interface{}, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			n, vals := structFields(v.Field(i))
			names = append(names, n...)
			values = append(values, vals...)
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		names = append(names, name)
		values = append(values, v.Field(i).Interface())
	}
	return names, values
}

// formatHeader converts snake_case to Title Case
func formatHeader(header string) string {
	words := strings.Split(header, "_")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// cellValue formats a value for display without colour
func cellValue(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%.2f", v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Local().Format("2006-01-02 15:04:05")
	case time.Duration:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
