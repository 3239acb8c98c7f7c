package output

import (
	"fmt"
	"io"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"
	"unicode/utf8"
)

// narrowCellWidth bounds list cells outside wide mode.
const narrowCellWidth = 48

// TableFormatter renders data as aligned columns.
//
// A slice of structs gets one row per element and one column per exported
// field, named after its json tag. Fields tagged `table:"-"` are never
// shown and `table:"wide"` only in wide mode. A single struct is listed as
// FIELD/VALUE pairs with every field, a map as KEY/VALUE rows sorted by
// key. Anything else is written as JSON.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format renders data.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	var t *Table
	switch d := data.(type) {
	case nil:
		return nil
	case *Table:
		t = d
	case Table:
		t = &d
	default:
		var ok bool
		if t, ok = tabulate(reflect.ValueOf(data), f.Wide); !ok {
			return (&JSONFormatter{}).Format(w, data)
		}
	}
	return t.RenderWithOptions(w, f.NoHeaders)
}

func tabulate(v reflect.Value, wide bool) (*Table, bool) {
	v = indirect(v)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return listTable(v, wide), true
	case reflect.Map:
		return mapTable(v, wide), true
	case reflect.Struct:
		if v.Type() == timeType {
			return nil, false
		}
		return recordTable(v), true
	default:
		return nil, false
	}
}

// indirect follows pointers and interfaces. Nil yields the zero Value.
func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

type tableField struct {
	index int
	name  string
}

func tableFields(t reflect.Type, wide bool) []tableField {
	var fields []tableField
	for i := range t.NumField() {
		sf := t.Field(i)
		opt := sf.Tag.Get("table")
		if !sf.IsExported() || opt == "-" || (opt == "wide" && !wide) {
			continue
		}
		fields = append(fields, tableField{index: i, name: columnName(sf)})
	}
	return fields
}

func columnName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return toSnakeCase(sf.Name)
	}
	return name
}

func listTable(v reflect.Value, wide bool) *Table {
	t := &Table{}
	if v.Len() == 0 {
		return t
	}

	elem := v.Type().Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	switch {
	case elem.Kind() == reflect.Struct && elem != timeType:
		fields := tableFields(elem, wide)
		for _, f := range fields {
			t.Headers = append(t.Headers, strings.ToUpper(f.name))
		}
		for i := range v.Len() {
			item := indirect(v.Index(i))
			row := make([]string, len(fields))
			if item.IsValid() {
				for j, f := range fields {
					row[j] = cell(item.Field(f.index), wide)
				}
			}
			t.Rows = append(t.Rows, row)
		}
	case elem.Kind() == reflect.Map:
		t.Headers = []string{"KEY", "VALUE"}
		for i := range v.Len() {
			t.Rows = append(t.Rows, mapTable(indirect(v.Index(i)), wide).Rows...)
		}
	default:
		t.Headers = []string{"VALUE"}
		for i := range v.Len() {
			t.AddRow(cell(v.Index(i), wide))
		}
	}
	return t
}

func mapTable(v reflect.Value, wide bool) *Table {
	t := &Table{Headers: []string{"KEY", "VALUE"}}
	if !v.IsValid() {
		return t
	}
	for it := v.MapRange(); it.Next(); {
		t.AddRow(formatValue(it.Key()), cell(it.Value(), wide))
	}
	slices.SortFunc(t.Rows, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return t
}

// recordTable shows a single struct in full, wide fields included.
func recordTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, f := range tableFields(v.Type(), true) {
		t.AddRow(f.name, formatValue(v.Field(f.index)))
	}
	return t
}

func cell(v reflect.Value, wide bool) string {
	s := formatValue(v)
	if wide {
		return s
	}
	return truncate(s, narrowCellWidth)
}

// truncate keeps s on one line and shortens it to max runes.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

var timeType = reflect.TypeFor[time.Time]()

// formatValue renders one cell. Empty strings, empty collections and zero
// times show as "-", nil as an empty cell.
func formatValue(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return ""
	}

	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case time.Time:
			if x.IsZero() {
				return "-"
			}
			return x.Format("2006-01-02 15:04")
		case fmt.Stringer:
			return orDash(x.String())
		}
	}

	switch v.Kind() {
	case reflect.String:
		return orDash(v.String())
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', 2, 64)
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprint(v)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// toSnakeCase converts a Go field name to snake_case, keeping acronyms
// together: OwnerID becomes owner_id.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1])
				acronymEnd := unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || acronymEnd {
					b.WriteByte('_')
				}
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table is preformatted tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes the table with its header row.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions writes the table, optionally without the header row.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders replaces the header row.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
