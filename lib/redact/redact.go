package redact

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"
)

const nestIndent = "    "

// A hidden field holding its zero value shows as unset, so that a missing
// secret is visible in startup output without leaking a set one.
const (
	redacted = "(redacted)"
	unset    = "(unset)"
)

// ToBytes renders a struct one field per line, descending into nested
// structs. Fields tagged `redact:"true"` have their values hidden.
func ToBytes(pointerToStruct any) ([]byte, error) {
	output := &bytes.Buffer{}
	err := toWriter(output, reflect.ValueOf(pointerToStruct).Elem(), "")
	if err != nil {
		return nil, fmt.Errorf("[toWriter]: %w", err)
	}
	return output.Bytes(), nil
}

func toWriter(w io.Writer, v reflect.Value, indent string) error {
	typ := v.Type()
	for i := range v.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		hide := strings.EqualFold(field.Tag.Get("redact"), "true")
		if err := writeField(w, field.Name, v.Field(i), hide, indent); err != nil {
			return err
		}
	}
	return nil
}

func writeField(w io.Writer, name string, f reflect.Value, hide bool, indent string) error {
	var err error
	switch f.Kind() {
	case reflect.Struct:
		if hide {
			_, err = fmt.Fprintf(w, "%v%v = %v\n", indent, name, hiddenValue(f))
			return err
		}
		if _, err = fmt.Fprintf(w, "%v%v\n", indent, name); err != nil {
			return err
		}
		return toWriter(w, f, indent+nestIndent)
	case reflect.Slice:
		return writeSlice(w, name, f, hide, indent)
	case reflect.String, reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		printVal := fmt.Sprint(f.Interface())
		if hide {
			printVal = hiddenValue(f)
		}
		_, err = fmt.Fprintf(w, "%v%v = %v\n", indent, name, printVal)
		return err
	case reflect.Invalid, reflect.Array, reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.UnsafePointer, reflect.Uintptr, reflect.Complex64, reflect.Complex128:
		fallthrough
	default:
		return fmt.Errorf("unsupported field kind: %v", f.Kind().String())
	}
}

func writeSlice(w io.Writer, name string, f reflect.Value, hide bool, indent string) error {
	if hide {
		_, err := fmt.Fprintf(w, "%v%v = %v (%d items)\n", indent, name, hiddenValue(f), f.Len())
		return err
	}
	if f.Type().Elem().Kind() != reflect.Struct {
		_, err := fmt.Fprintf(w, "%v%v = %v\n", indent, name, f.Interface())
		return err
	}
	for j := range f.Len() {
		if _, err := fmt.Fprintf(w, "%v%v[%d]\n", indent, name, j); err != nil {
			return err
		}
		if err := toWriter(w, f.Index(j), indent+nestIndent); err != nil {
			return err
		}
	}
	return nil
}

func hiddenValue(f reflect.Value) string {
	if f.IsZero() {
		return unset
	}
	return redacted
}
