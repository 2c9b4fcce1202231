package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxDepth bounds container nesting in a single message.
const maxDepth = 10000

// Kind identifies the type of a parsed JSON value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a node of a parsed message.
type Value interface {
	Kind() Kind
	// Interface returns the value as plain Go data: map[string]any, []any,
	// string, json.Number, bool or nil.
	Interface() any
}

// Null is the JSON null literal.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// Number is a JSON number, kept as its source literal.
type Number string

// String is a JSON string.
type String string

// Array is a JSON array.
type Array []Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }

func (Null) Interface() any     { return nil }
func (b Bool) Interface() any   { return bool(b) }
func (n Number) Interface() any { return json.Number(n) }
func (s String) Interface() any { return string(s) }

func (a Array) Interface() any {
	out := make([]any, len(a))
	for i, v := range a {
		out[i] = v.Interface()
	}
	return out
}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a JSON object that keeps its members in source order.
// A key that appears more than once keeps the position of its first
// occurrence and the value of its last.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an object holding members in the given order.
func NewObject(members ...Member) *Object {
	o := &Object{index: make(map[string]int, len(members))}
	for _, m := range members {
		o.set(m.Key, m.Value)
	}
	return o
}

func (*Object) Kind() Kind { return KindObject }

func (o *Object) Interface() any {
	out := make(map[string]any, len(o.members))
	for _, m := range o.members {
		out[m.Key] = m.Value.Interface()
	}
	return out
}

// Len returns the number of distinct keys.
func (o *Object) Len() int {
	return len(o.members)
}

// Members returns the members in source order.
func (o *Object) Members() []Member {
	return o.members
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

func (o *Object) set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

// SyntaxError describes a message that is not well-formed JSON.
type SyntaxError struct {
	Line int // 1-based
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json: error on line %d: %s", e.Line, e.Msg)
}

// Parse parses a single message. The top level must be an object or an
// array and must be followed by nothing but whitespace. The input must be
// valid UTF-8 and no string may contain a NUL character.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &parser{dec: dec, data: data}

	if off := invalidUTF8(data); off >= 0 {
		return nil, p.errorAt(int64(off), fmt.Sprintf("unable to decode byte 0x%02x", data[off]))
	}

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, p.errorAt(int64(len(data)), "'[' or '{' expected near end of input")
	}
	if err != nil {
		return nil, p.syntaxError(err)
	}
	if d, ok := tok.(json.Delim); !ok || (d != '{' && d != '[') {
		return nil, p.errorAt(dec.InputOffset(), "'[' or '{' expected")
	}

	v, err := p.value(tok, 1)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, p.syntaxError(err)
		}
		return nil, p.errorAt(dec.InputOffset(), "end of input expected")
	}
	return v, nil
}

type parser struct {
	dec  *json.Decoder
	data []byte
}

func (p *parser) value(tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		if depth > maxDepth {
			return nil, p.errorAt(p.dec.InputOffset(), "maximum nesting depth exceeded")
		}
		switch t {
		case '{':
			return p.object(depth)
		case '[':
			return p.array(depth)
		}
		return nil, p.errorAt(p.dec.InputOffset(), fmt.Sprintf("unexpected %q", rune(t)))
	case string:
		if err := p.checkString(t); err != nil {
			return nil, err
		}
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	}
	return nil, p.errorAt(p.dec.InputOffset(), fmt.Sprintf("unexpected token %v", tok))
}

func (p *parser) object(depth int) (Value, error) {
	obj := NewObject()
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.syntaxError(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.errorAt(p.dec.InputOffset(), "string or '}' expected")
		}
		if err := p.checkString(key); err != nil {
			return nil, err
		}
		tok, err = p.dec.Token()
		if err != nil {
			return nil, p.syntaxError(err)
		}
		v, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		obj.set(key, v)
	}
	if err := p.closing('}'); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *parser) array(depth int) (Value, error) {
	arr := Array{}
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.syntaxError(err)
		}
		v, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if err := p.closing(']'); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *parser) closing(want json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		return p.syntaxError(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return p.errorAt(p.dec.InputOffset(), fmt.Sprintf("'%c' expected", rune(want)))
	}
	return nil
}

// checkString rejects strings that decoded to a NUL character. Only a
// \u0000 escape can produce one since raw control bytes are a syntax error.
func (p *parser) checkString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return p.errorAt(p.dec.InputOffset(), "\\u0000 is not allowed")
	}
	return nil
}

// invalidUTF8 returns the offset of the first byte that does not start a
// valid UTF-8 sequence, or -1.
func invalidUTF8(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

func (p *parser) syntaxError(err error) error {
	var se *json.SyntaxError
	switch {
	case errors.As(err, &se):
		return p.errorAt(se.Offset, se.Error())
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return p.errorAt(int64(len(p.data)), "unexpected end of input")
	default:
		return p.errorAt(p.dec.InputOffset(), err.Error())
	}
}

func (p *parser) errorAt(offset int64, msg string) *SyntaxError {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(p.data)) {
		offset = int64(len(p.data))
	}
	return &SyntaxError{
		Line: 1 + bytes.Count(p.data[:offset], []byte{'\n'}),
		Msg:  msg,
	}
}
