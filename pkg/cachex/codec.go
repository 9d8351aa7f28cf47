package cachex

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"
)

// The cache boundary has to round-trip values JSON cannot represent exactly:
// arbitrary-precision integers, timestamps and binary blobs. They are stored
// as single-field envelope objects so the stored form stays deterministic.
const (
	bigIntField = "$big"
	timeField   = "$time"
	bytesField  = "$bytes"
)

// Encode serializes a payload into its canonical cached form. Map keys are
// sorted by the JSON encoder, so equal payloads always produce equal bytes.
func Encode(v any) ([]byte, error) {
	tree, err := encodeValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return nil, ErrEncodeFailure().WithDetail("cause", err.Error())
	}

	return data, nil
}

// Decode deserializes cached bytes into target. An untyped target (*any or
// *map[string]any) gets envelopes restored as Go values (*big.Int, time.Time,
// []byte); a typed target gets them rewritten into the JSON forms its fields
// unmarshal natively. Undecodable envelopes are a corruption error, never a
// silent miss.
func Decode(data []byte, target any) error {
	switch t := target.(type) {
	case *any:
		tree, err := decodeTree(data)
		if err != nil {
			return err
		}
		*t = tree
		return nil
	case *map[string]any:
		tree, err := decodeTree(data)
		if err != nil {
			return err
		}
		m, ok := tree.(map[string]any)
		if !ok {
			return ErrCorruptedEntry().WithDetail("cause", "payload is not an object")
		}
		*t = m
		return nil
	}

	tree, err := parseTree(data)
	if err != nil {
		return err
	}

	native, err := nativize(tree)
	if err != nil {
		return err
	}

	buf, err := json.Marshal(native)
	if err != nil {
		return ErrCorruptedEntry().WithDetail("cause", err.Error())
	}

	if err := json.Unmarshal(buf, target); err != nil {
		return ErrCorruptedEntry().WithDetail("cause", err.Error())
	}

	return nil
}

// ============================================================================
// Encoding
// ============================================================================

func encodeValue(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}

	switch v := rv.Interface().(type) {
	case *big.Int:
		if v == nil {
			return nil, nil
		}
		return map[string]any{bigIntField: v.String()}, nil
	case big.Int:
		return map[string]any{bigIntField: v.String()}, nil
	case time.Time:
		return map[string]any{timeField: v.Format(time.RFC3339Nano)}, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return map[string]any{timeField: v.Format(time.RFC3339Nano)}, nil
	case []byte:
		if v == nil {
			return nil, nil
		}
		return map[string]any{bytesField: base64.StdEncoding.EncodeToString(v)}, nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return encodeValue(rv.Elem())

	case reflect.Struct:
		return encodeStruct(rv)

	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			var name string
			if key.Kind() == reflect.String {
				name = key.String()
			} else {
				name = fmt.Sprint(key.Interface())
			}
			enc, err := encodeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[name] = enc
		}
		return out, nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			enc, err := encodeValue(rv.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil

	default:
		return rv.Interface(), nil
	}
}

func encodeStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" && !field.Anonymous {
			continue // unexported
		}

		name, opts := parseJSONTag(field.Tag.Get("json"))
		if name == "-" {
			continue
		}

		fv := rv.Field(i)

		// Embedded structs inline their fields, matching encoding/json.
		if field.Anonymous && name == "" {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				inner, err := encodeStruct(fv)
				if err != nil {
					return nil, err
				}
				for k, v := range inner {
					if _, exists := out[k]; !exists {
						out[k] = v
					}
				}
				continue
			}
		}

		if strings.Contains(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}

		if name == "" {
			name = field.Name
		}

		enc, err := encodeValue(fv)
		if err != nil {
			return nil, err
		}
		out[name] = enc
	}

	return out, nil
}

func parseJSONTag(tag string) (name, opts string) {
	if tag == "" {
		return "", ""
	}
	if idx := strings.Index(tag, ","); idx != -1 {
		return tag[:idx], tag[idx+1:]
	}
	return tag, ""
}

func isEmptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// ============================================================================
// Decoding
// ============================================================================

func parseTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, ErrCorruptedEntry().WithDetail("cause", err.Error())
	}
	return tree, nil
}

func decodeTree(data []byte) (any, error) {
	tree, err := parseTree(data)
	if err != nil {
		return nil, err
	}
	return restore(tree)
}

// restore converts envelope objects back into Go values.
func restore(node any) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if raw, ok := envelope(n, bigIntField); ok {
			i, valid := new(big.Int).SetString(raw, 10)
			if !valid {
				return nil, ErrCorruptedEntry().WithDetail("big", raw)
			}
			return i, nil
		}
		if raw, ok := envelope(n, timeField); ok {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, ErrCorruptedEntry().WithDetail("time", raw)
			}
			return t, nil
		}
		if raw, ok := envelope(n, bytesField); ok {
			b, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return nil, ErrCorruptedEntry().WithDetail("cause", "undecodable binary segment")
			}
			return b, nil
		}

		out := make(map[string]any, len(n))
		for k, v := range n {
			rv, err := restore(v)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil

	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			rv, err := restore(v)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil

	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, ErrCorruptedEntry().WithDetail("number", n.String())
		}
		return f, nil

	default:
		return node, nil
	}
}

// nativize rewrites envelopes into the JSON forms typed targets unmarshal
// natively: numbers for big integers, RFC3339 strings for timestamps, base64
// strings for byte slices.
func nativize(node any) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if raw, ok := envelope(n, bigIntField); ok {
			if _, valid := new(big.Int).SetString(raw, 10); !valid {
				return nil, ErrCorruptedEntry().WithDetail("big", raw)
			}
			return json.Number(raw), nil
		}
		if raw, ok := envelope(n, timeField); ok {
			return raw, nil
		}
		if raw, ok := envelope(n, bytesField); ok {
			if _, err := base64.StdEncoding.DecodeString(raw); err != nil {
				return nil, ErrCorruptedEntry().WithDetail("cause", "undecodable binary segment")
			}
			return raw, nil
		}

		out := make(map[string]any, len(n))
		for k, v := range n {
			rv, err := nativize(v)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil

	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			rv, err := nativize(v)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil

	default:
		return node, nil
	}
}

func envelope(m map[string]any, field string) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	raw, ok := m[field]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}
