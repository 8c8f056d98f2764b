package fields

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindBool
	// kindOther holds numbers and structured values as compact JSON text.
	kindOther
)

// Value is a single form field value as submitted by the producer.
type Value struct {
	kind valueKind
	str  string
	b    bool
}

func Null() Value { return Value{kind: kindNull} }
func String(s string) Value { return Value{kind: kindString, str: s} }
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }
func RawJSON(text string) Value { return Value{kind: kindOther, str: text} }

// String stringifies the value the way it is forwarded downstream.
func (v Value) String() string {
	switch v.kind {
	case kindString, kindOther:
		return v.str
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Text returns the value only when it is a string.
func (v Value) Text() (string, bool) {
	if v.kind != kindString {
		return "", false
	}
	return v.str, true
}

// Empty reports null or empty-string values. false and 0 are not empty.
func (v Value) Empty() bool {
	return v.kind == kindNull || (v.kind == kindString && v.str == "")
}

// Truthy follows loose truthiness: null, "", false and numeric zero are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case kindString:
		return v.str != ""
	case kindBool:
		return v.b
	case kindOther:
		if f, err := strconv.ParseFloat(v.str, 64); err == nil {
			return f != 0
		}
		return true
	default:
		return false
	}
}

// IsFalse reports a boolean false or the literal string "false".
func (v Value) IsFalse() bool {
	return (v.kind == kindBool && !v.b) || (v.kind == kindString && v.str == "false")
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.str)
	case kindBool:
		return json.Marshal(v.b)
	case kindOther:
		return []byte(v.str), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Null()
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = String(s)
	case bytes.Equal(b, []byte("true")):
		*v = Bool(true)
	case bytes.Equal(b, []byte("false")):
		*v = Bool(false)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		*v = RawJSON(buf.String())
	}
	return nil
}

type Field struct {
	Name  string
	Value Value
}

// FormData is a form submission that keeps fields in the order the producer
// sent them. Setting an existing name replaces its value in place.
type FormData struct {
	fields []Field
	index  map[string]int
}

func NewFormData(fields ...Field) FormData {
	var f FormData
	for _, fd := range fields {
		f.Set(fd.Name, fd.Value)
	}
	return f
}

func (f *FormData) Set(name string, v Value) {
	if f.index == nil {
		f.index = map[string]int{}
	}
	if i, ok := f.index[name]; ok {
		f.fields[i].Value = v
		return
	}
	f.index[name] = len(f.fields)
	f.fields = append(f.fields, Field{Name: name, Value: v})
}

func (f FormData) Get(name string) (Value, bool) {
	i, ok := f.index[name]
	if !ok {
		return Null(), false
	}
	return f.fields[i].Value, true
}

func (f FormData) Fields() []Field { return f.fields }

func (f FormData) Len() int { return len(f.fields) }

func (f FormData) Names() []string {
	out := make([]string, 0, len(f.fields))
	for _, fd := range f.fields {
		out = append(out, fd.Name)
	}
	return out
}

func (f FormData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fd := range f.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(fd.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := fd.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var errNotObject = errors.New("form data must be a JSON object")

func (f *FormData) UnmarshalJSON(b []byte) error {
	*f = FormData{}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected form key %v", tok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode field %q: %w", name, err)
		}
		f.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// IsObject reports whether the value holds a JSON object.
func (v Value) IsObject() bool {
	return v.kind == kindOther && strings.HasPrefix(v.str, "{")
}
