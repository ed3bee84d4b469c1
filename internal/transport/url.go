package transport

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
)

// BuildURL appends params to base, keeping any query parameters base already
// carries. Nil values and nil pointers are skipped; booleans and numbers are
// written in their literal form and slices repeat the key.
func BuildURL(base string, params map[string]any) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", base, err)
	}
	q := u.Query()
	for k, v := range params {
		for _, s := range formatValues(v) {
			q.Add(k, s)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func formatValues(v any) []string {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case bool:
		return []string{strconv.FormatBool(t)}
	case int:
		return []string{strconv.Itoa(t)}
	case int64:
		return []string{strconv.FormatInt(t, 10)}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case []string:
		return t
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		return []string{t.String()}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return formatValues(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, formatValues(rv.Index(i).Interface())...)
		}
		return out
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return []string{strconv.FormatInt(rv.Int(), 10)}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []string{strconv.FormatUint(rv.Uint(), 10)}
	case reflect.Float32:
		return []string{strconv.FormatFloat(rv.Float(), 'f', -1, 32)}
	case reflect.String:
		return []string{rv.String()}
	case reflect.Bool:
		return []string{strconv.FormatBool(rv.Bool())}
	}
	return []string{fmt.Sprint(v)}
}
