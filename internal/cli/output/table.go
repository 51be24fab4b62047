package output

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"
)

// Tabler is implemented by results with their own table layout.
type Tabler interface {
	Table() *Table
}

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	NoHeaders bool
}

// Format renders a *Table, a Tabler, a struct (as FIELD/VALUE rows) or a
// slice of structs (one row per element). Anything else is printed with
// %v.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch d := data.(type) {
	case nil:
		return nil
	case *Table:
		return d.render(w, f.NoHeaders)
	case Tabler:
		return d.Table().render(w, f.NoHeaders)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.Struct:
		return structTable(v).render(w, f.NoHeaders)
	case v.Kind() == reflect.Slice && elemKind(v.Type()) == reflect.Struct:
		return sliceTable(v).render(w, f.NoHeaders)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

func elemKind(t reflect.Type) reflect.Kind {
	t = t.Elem()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind()
}

// Table is tabular data with optional headers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow appends a row, formatting each cell with Cell.
func (t *Table) AddRow(cells ...any) {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = Cell(c)
	}
	t.Rows = append(t.Rows, row)
}

// Render writes the table with headers.
func (t *Table) Render(w io.Writer) error {
	return t.render(w, false)
}

func (t *Table) render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Cell formats one value for a table.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case time.Duration:
		return x.Round(time.Microsecond).String()
	case time.Time:
		if x.IsZero() {
			return "-"
		}
		return x.Format(time.RFC3339)
	case float32, float64:
		return fmt.Sprintf("%.2f", x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", rv.Len())
	case reflect.Pointer:
		if rv.IsNil() {
			return "-"
		}
		return Cell(rv.Elem().Interface())
	}
	return fmt.Sprintf("%v", v)
}

// fieldName returns the header name of a struct field from its yaml or
// json tag, or "" for fields excluded with table:"-".
func fieldName(f reflect.StructField) string {
	if f.Tag.Get("table") == "-" {
		return ""
	}
	for _, key := range []string{"yaml", "json"} {
		if tag, _, _ := strings.Cut(f.Tag.Get(key), ","); tag != "" && tag != "-" {
			return tag
		}
	}
	return f.Name
}

func structTable(v reflect.Value) *Table {
	t := NewTable("FIELD", "VALUE")
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := fieldName(f)
		if !f.IsExported() || name == "" {
			continue
		}
		t.AddRow(name, v.Field(i).Interface())
	}
	return t
}

func sliceTable(v reflect.Value) *Table {
	typ := v.Type().Elem()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	t := &Table{}
	var fields []int
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := fieldName(f)
		if !f.IsExported() || name == "" {
			continue
		}
		t.Headers = append(t.Headers, strings.ToUpper(name))
		fields = append(fields, i)
	}

	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Pointer {
			if elem.IsNil() {
				continue
			}
			elem = elem.Elem()
		}
		cells := make([]any, len(fields))
		for j, idx := range fields {
			cells[j] = elem.Field(idx).Interface()
		}
		t.AddRow(cells...)
	}
	return t
}
