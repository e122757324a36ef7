package model

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// assign sets fv to value, converting between numeric kinds and decoding
// anything else with weak typing. A nil value sets the zero value.
func assign(fv reflect.Value, value any) error {
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	if isNumeric(rv.Kind()) && isNumeric(fv.Kind()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
		Result:           fv.Addr().Interface(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(value)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
