package connector

import (
	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

// Raw is an untouched JSON payload as received from an exchange.
//
// Accessors never fail: a missing key, a JSON null or a value of the wrong
// shape reads as unset. Numbers are read from their original text, so no
// value ever passes through a binary float.
type Raw []byte

// MarshalJSON emits the payload verbatim
func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a copy of the payload
func (r *Raw) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

func (r Raw) lookup(keys []string) ([]byte, jsonparser.ValueType, bool) {
	if len(r) == 0 {
		return nil, jsonparser.NotExist, false
	}
	v, t, _, err := jsonparser.Get(r, keys...)
	if err != nil || t == jsonparser.NotExist || t == jsonparser.Null {
		return nil, t, false
	}
	return v, t, true
}

// Has reports whether the key path exists, even when its value is null
func (r Raw) Has(keys ...string) bool {
	if len(r) == 0 {
		return false
	}
	_, t, _, err := jsonparser.Get(r, keys...)
	return err == nil && t != jsonparser.NotExist
}

// IsObject reports whether the payload is a JSON object
func (r Raw) IsObject() bool {
	_, t, ok := r.lookup(nil)
	return ok && t == jsonparser.Object
}

// Get returns the nested object or array at the key path
func (r Raw) Get(keys ...string) Raw {
	v, t, ok := r.lookup(keys)
	if !ok || (t != jsonparser.Object && t != jsonparser.Array) {
		return nil
	}
	return Raw(v)
}

// String returns the scalar at the key path as text. Numbers and booleans
// are returned as written.
func (r Raw) String(keys ...string) string {
	v, t, ok := r.lookup(keys)
	if !ok {
		return ""
	}
	switch t {
	case jsonparser.String:
		s, err := jsonparser.ParseString(v)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Number, jsonparser.Boolean:
		return string(v)
	}
	return ""
}

// Decimal returns the numeric value at the key path. Numeric strings are accepted.
func (r Raw) Decimal(keys ...string) decimal.NullDecimal {
	s := r.String(keys...)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Int64 returns the integer part of the numeric value at the key path
func (r Raw) Int64(keys ...string) (int64, bool) {
	d := r.Decimal(keys...)
	if !d.Valid {
		return 0, false
	}
	return d.Decimal.IntPart(), true
}

// Bool returns the boolean at the key path
func (r Raw) Bool(keys ...string) (bool, bool) {
	v, t, ok := r.lookup(keys)
	if !ok || t != jsonparser.Boolean {
		return false, false
	}
	b, err := jsonparser.ParseBoolean(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Truthy reports whether the boolean at the key path is present and true
func (r Raw) Truthy(keys ...string) bool {
	b, ok := r.Bool(keys...)
	return ok && b
}

// Items returns the elements of the array at the key path
func (r Raw) Items(keys ...string) []Raw {
	arr := r.Get(keys...)
	if len(arr) == 0 || arr[0] != '[' {
		return nil
	}
	var items []Raw
	_, _ = jsonparser.ArrayEach(arr, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil {
			return
		}
		if dataType == jsonparser.String {
			quoted := make([]byte, 0, len(value)+2)
			quoted = append(quoted, '"')
			quoted = append(quoted, value...)
			quoted = append(quoted, '"')
			items = append(items, Raw(quoted))
			return
		}
		items = append(items, Raw(value))
	})
	return items
}

// Strings returns the scalar elements of the array at the key path as text
func (r Raw) Strings(keys ...string) []string {
	items := r.Items(keys...)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}
