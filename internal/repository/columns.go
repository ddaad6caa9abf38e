package repository

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// column is a struct field mapped to a table column through its db tag.
type column struct {
	name  string
	index int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf lists the db-tagged fields of T in declaration order.
func columnsOf[T any]() []column {
	var zero T
	typ := reflect.TypeOf(zero)
	if cached, ok := columnCache.Load(typ); ok {
		return cached.([]column)
	}
	var cols []column
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		cols = append(cols, column{name: tag, index: i})
	}
	columnCache.Store(typ, cols)
	return cols
}

func columnNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

func hasColumn(cols []column, name string) bool {
	for _, c := range cols {
		if c.name == name {
			return true
		}
	}
	return false
}

// valuesOf returns the field values of rec in column order.
func valuesOf[T any](rec *T, cols []column) []any {
	v := reflect.ValueOf(rec).Elem()
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = v.Field(c.index).Interface()
	}
	return vals
}

// fieldValue returns the value of the named column, dereferencing pointers.
// A nil pointer yields nil.
func fieldValue[T any](rec T, cols []column, name string) any {
	v := reflect.ValueOf(rec)
	for _, c := range cols {
		if c.name != name {
			continue
		}
		f := v.Field(c.index)
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				return nil
			}
			f = f.Elem()
		}
		return f.Interface()
	}
	return nil
}

// touch stamps created_at on insert and updated_at on every write.
func touch[T any](rec *T, cols []column, now time.Time, creating bool) {
	v := reflect.ValueOf(rec).Elem()
	for _, c := range cols {
		f := v.Field(c.index)
		if _, ok := f.Interface().(time.Time); !ok {
			continue
		}
		switch {
		case c.name == "updated_at":
			f.Set(reflect.ValueOf(now))
		case c.name == "created_at" && (creating && f.Interface().(time.Time).IsZero()):
			f.Set(reflect.ValueOf(now))
		}
	}
}

// keepCreatedAt copies created_at from the stored row onto rec.
func keepCreatedAt[T any](rec *T, existing T, cols []column) {
	created, ok := fieldValue(existing, cols, "created_at").(time.Time)
	if !ok {
		return
	}
	v := reflect.ValueOf(rec).Elem()
	for _, c := range cols {
		if c.name == "created_at" {
			v.Field(c.index).Set(reflect.ValueOf(created))
		}
	}
}

// validateFilter rejects filter keys that are not columns of the collection.
func validateFilter(cols []column, filter Filter) error {
	for key := range filter {
		if !hasColumn(cols, key) {
			return fmt.Errorf("unknown filter column %q", key)
		}
	}
	return nil
}

// Matches reports whether rec satisfies every condition of filter, the same
// way Select does.
func Matches[T any](rec T, filter Filter) bool {
	return matches(rec, columnsOf[T](), filter)
}

// matches reports whether rec satisfies every condition of filter.
func matches[T any](rec T, cols []column, filter Filter) bool {
	for key, want := range filter {
		got := fieldValue(rec, cols, key)
		if got == nil || want == nil {
			if got != want {
				return false
			}
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// compare orders two column values of the same type.
func compare(a, b any) int {
	switch av := a.(type) {
	case int:
		return cmpOrdered(av, b.(int))
	case int64:
		return cmpOrdered(av, b.(int64))
	case float64:
		return cmpOrdered(av, b.(float64))
	case time.Time:
		return av.Compare(b.(time.Time))
	case nil:
		if b == nil {
			return 0
		}
		return 1
	}
	if b == nil {
		return -1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func cmpOrdered[N int | int64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// toObject converts a record to the JSON object a client would receive.
func toObject[T any](rec T) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// clone deep-copies a record through its JSON form.
func clone[T any](rec T) (T, error) {
	var out T
	raw, err := json.Marshal(rec)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
