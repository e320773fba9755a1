// Package columns maps structs to SQL column lists and value maps using "db" tags.
// It is shared by the PostgreSQL and SQLite Record Stores.
package columns

import (
	"reflect"
	"slices"
	"sync"
)

type field struct {
	index  []int
	column string
}

var cache sync.Map // map[reflect.Type][]field

// fieldsOf returns the tagged fields of t, walking embedded structs.
// Results are cached per type.
func fieldsOf(t reflect.Type) []field {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := cache.Load(t); ok {
		return cached.([]field)
	}

	var out []field
	if t.Kind() == reflect.Struct {
		for _, sf := range reflect.VisibleFields(t) {
			if sf.Anonymous || !sf.IsExported() {
				continue
			}
			tag := sf.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			out = append(out, field{index: sf.Index, column: tag})
		}
	}

	cache.Store(t, out)
	return out
}

// Of returns the column names of T in declaration order.
//
//	cols := columns.Of[record.Record]()
//	// ["id", "first_name", "last_name", ...]
func Of[T any]() []string {
	fields := fieldsOf(reflect.TypeFor[T]())
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// Map converts a struct (or pointer to one) to column => value,
// skipping the excluded columns. It returns nil for non-structs.
func Map(v any, exclude ...string) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := fieldsOf(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		if slices.Contains(exclude, f.column) {
			continue
		}
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}
