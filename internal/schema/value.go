package schema

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Kind tags the scalar type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindText
	KindBytes
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged scalar: one of null, int, float, bool, text, bytes or
// time. Row data never carries raw interface{} values through the sync path.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Text  string
	Bytes []byte
	Time  time.Time
}

func Null() Value            { return Value{Kind: KindNull} }
func Int(v int64) Value      { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value  { return Value{Kind: KindFloat, Float: v} }
func Bool(v bool) Value      { return Value{Kind: KindBool, Bool: v} }
func Text(v string) Value    { return Value{Kind: KindText, Text: v} }
func Blob(v []byte) Value    { return Value{Kind: KindBytes, Bytes: v} }
func Time(v time.Time) Value { return Value{Kind: KindTime, Time: v} }

// FromAny converts a value scanned from a database driver into a Value.
func FromAny(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Int(x), nil
	case int:
		return Int(int64(x)), nil
	case float64:
		return Float(x), nil
	case bool:
		return Bool(x), nil
	case string:
		return Text(x), nil
	case []byte:
		// Copy: drivers reuse scan buffers between rows.
		return Blob(append([]byte(nil), x...)), nil
	case time.Time:
		return Time(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported scan type %T", v)
	}
}

// ToAny converts the Value back into a driver-compatible argument.
func (v Value) ToAny() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindText:
		return v.Text
	case KindBytes:
		return v.Bytes
	case KindTime:
		return v.Time
	default:
		return nil
	}
}

// IsNull reports whether the value carries no data.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Equal reports whether two values carry the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindBool:
		return v.Bool == o.Bool
	case KindText:
		return v.Text == o.Text
	case KindBytes:
		return bytes.Equal(v.Bytes, o.Bytes)
	case KindTime:
		return v.Time.Equal(o.Time)
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		// shortest rendering that parses back to the same float64
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindText:
		return v.Text
	case KindBytes:
		return fmt.Sprintf("0x%x", v.Bytes)
	case KindTime:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("value(kind=%d)", int(v.Kind))
	}
}
