package component

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeConfig populates a component's config struct from the node's typed
// configuration. Struct fields opt in with a `cty:"name"` tag; fields
// without a matching config key keep their zero (or pre-set default)
// value. A config key with no corresponding field is rejected so schema
// typos surface at create time, not silently.
func DecodeConfig(cfg Config, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config decode target must be a pointer to struct, got %T", out)
	}
	elem := rv.Elem()
	elemType := elem.Type()

	fields := make(map[string]reflect.Value)
	for i := 0; i < elemType.NumField(); i++ {
		field := elemType.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("cty")
		if tag == "" || tag == "-" {
			continue
		}
		fields[tag] = elem.Field(i)
	}

	for key, val := range cfg {
		target, ok := fields[key]
		if !ok {
			return fmt.Errorf("unknown config key '%s' for %s", key, elemType.Name())
		}
		if err := gocty.FromCtyValue(val, target.Addr().Interface()); err != nil {
			return fmt.Errorf("config key '%s': %w", key, err)
		}
	}
	return nil
}
