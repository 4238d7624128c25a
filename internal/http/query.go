package http

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"

	"github.com/fivetwenty-io/apikit/pkg/apikit"
	"github.com/go-viper/mapstructure/v2"
)

// EncodeParams converts a caller supplied parameter value into query values.
//
// Supported shapes are url.Values, map[string]string, map[string][]string,
// map[string]any and structs (or pointers to them). Struct fields are named
// by their `url` tag; `url:",omitempty"` skips zero values. Slices produce
// repeated keys. Nil yields no parameters.
func EncodeParams(params any) (url.Values, error) {
	if params == nil {
		return nil, nil
	}

	value := reflect.ValueOf(params)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil
		}

		value = value.Elem()
	}

	switch typed := value.Interface().(type) {
	case url.Values:
		return cloneValues(typed), nil
	case map[string][]string:
		return cloneValues(typed), nil
	case map[string]string:
		values := make(url.Values, len(typed))
		for key, v := range typed {
			values.Set(key, v)
		}

		return values, nil
	case map[string]any:
		return valuesFromMap(typed), nil
	}

	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", apikit.ErrInvalidParams, params)
	}

	var fields map[string]any

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "url",
		Result:  &fields,
	})
	if err != nil {
		return nil, fmt.Errorf("creating params decoder: %w", err)
	}

	err = decoder.Decode(value.Interface())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apikit.ErrInvalidParams, err)
	}

	return valuesFromMap(fields), nil
}

func valuesFromMap(fields map[string]any) url.Values {
	values := make(url.Values, len(fields))

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		addValue(values, key, reflect.ValueOf(fields[key]))
	}

	return values
}

func addValue(values url.Values, key string, value reflect.Value) {
	if !value.IsValid() {
		return
	}

	switch value.Kind() {
	case reflect.Pointer, reflect.Interface:
		if value.IsNil() {
			return
		}

		addValue(values, key, value.Elem())
	case reflect.Slice, reflect.Array:
		for i := range value.Len() {
			addValue(values, key, value.Index(i))
		}
	default:
		values.Add(key, fmt.Sprint(value.Interface()))
	}
}

func cloneValues(src map[string][]string) url.Values {
	values := make(url.Values, len(src))
	for key, v := range src {
		values[key] = append([]string(nil), v...)
	}

	return values
}
