package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds an INSERT from the `db` tags of model. Columns tagged
// with the auto option, such as `db:"id,auto"`, are assigned by the database
// and left out.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	value, err := structValue(model)
	if err != nil {
		return "", nil, err
	}

	fields := modelFields(value.Type())
	cols := make([]string, 0, len(fields))
	vals := make([]any, 0, len(fields))
	for _, f := range fields {
		if f.auto {
			continue
		}
		cols = append(cols, f.column)
		vals = append(vals, value.Field(f.index).Interface())
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("model has no insertable db columns")
	}

	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// Columns lists every tagged column of model in field order, auto columns
// included, ready for SELECT or RETURNING.
func Columns(model any) string {
	value, err := structValue(model)
	if err != nil {
		return ""
	}
	fields := modelFields(value.Type())
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.column)
	}
	return strings.Join(cols, ", ")
}

type modelField struct {
	index  int
	column string
	auto   bool
}

func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be struct")
	}
	return value, nil
}

func modelFields(typ reflect.Type) []modelField {
	out := make([]modelField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		f := modelField{index: i, column: name}
		for _, opt := range strings.Split(opts, ",") {
			if strings.TrimSpace(opt) == "auto" {
				f.auto = true
			}
		}
		out = append(out, f)
	}
	return out
}
