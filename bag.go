package apexText

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Kind is the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one entry of a property bag. The zero Value is null.
type Value struct {
	kind Kind
	str  string // string text or number literal
	b    bool
	bag  *Bag
	list []Value
}

func NullValue() Value               { return Value{} }
func StringValue(s string) Value     { return Value{kind: KindString, str: s} }
func BoolValue(b bool) Value         { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value         { return Value{kind: KindNumber, str: strconv.FormatInt(i, 10)} }
func NumberValue(n Number) Value     { return Value{kind: KindNumber, str: string(n)} }
func BagValue(b *Bag) Value          { return Value{kind: KindMap, bag: b} }
func ListValue(items ...Value) Value { return Value{kind: KindList, list: items} }

// FloatValue returns a number Value. NaN and infinities have no text form
// and become null.
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, str: strconv.FormatFloat(f, 'g', -1, 64)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns string values, and the literal text of numbers.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString, KindNumber:
		return v.str, true
	case KindBool:
		return strconv.FormatBool(v.b), true
	}
	return "", false
}

// AsInt converts numbers, and strings holding an integer.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber && v.kind != KindString {
		return 0, false
	}
	i, err := strconv.ParseInt(v.str, 10, 64)
	return i, err == nil
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber && v.kind != KindString {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.str, 64)
	return f, err == nil
}

func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		b, err := strconv.ParseBool(v.str)
		return b, err == nil
	}
	return false, false
}

func (v Value) AsBag() (*Bag, bool) {
	return v.bag, v.kind == KindMap
}

func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// Interface returns the generic Go form: nil, string, Number, bool,
// map[string]any or []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return Number(v.str)
	case KindBool:
		return v.b
	case KindMap:
		return v.bag.Map()
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	}
	return nil
}

func (v Value) GoString() string {
	return fmt.Sprintf("apexText.Value{%s: %v}", v.kind, v.Interface())
}

// Bag is an ordered string-keyed collection of Values. Keys keep the order
// they were first set in. The zero Bag is empty and ready to use.
type Bag struct {
	keys []string
	vals map[string]Value
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Len() int { return len(b.keys) }

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	return append([]string(nil), b.keys...)
}

func (b *Bag) Get(key string) (Value, bool) {
	v, ok := b.vals[key]
	return v, ok
}

// Set stores v under key. An existing key keeps its position.
func (b *Bag) Set(key string, v Value) *Bag {
	if b.vals == nil {
		b.vals = make(map[string]Value)
	}
	if _, ok := b.vals[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.vals[key] = v
	return b
}

func (b *Bag) Delete(key string) {
	if _, ok := b.vals[key]; !ok {
		return
	}
	delete(b.vals, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

func (b *Bag) String(key string) (string, bool) { return b.vals[key].AsString() }
func (b *Bag) Int(key string) (int64, bool)     { return b.vals[key].AsInt() }
func (b *Bag) Float(key string) (float64, bool) { return b.vals[key].AsFloat() }
func (b *Bag) Bool(key string) (bool, bool)     { return b.vals[key].AsBool() }
func (b *Bag) Bag(key string) (*Bag, bool)      { return b.vals[key].AsBag() }
func (b *Bag) List(key string) ([]Value, bool)  { return b.vals[key].AsList() }

// Map returns the generic Go form of the bag.
func (b *Bag) Map() map[string]any {
	if b == nil {
		return nil
	}
	m := make(map[string]any, len(b.keys))
	for _, k := range b.keys {
		m[k] = b.vals[k].Interface()
	}
	return m
}

// ParseBag parses a map token into a Bag.
func (c *Codec) ParseBag(text string) (*Bag, error) {
	var b Bag
	if err := c.UnmarshalString(text, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ### Codec ###

func writeBagValue(e *encodeState, v reflect.Value) error {
	b := v.Interface().(Bag)
	return writeBag(e, &b)
}

func writeValueValue(e *encodeState, v reflect.Value) error {
	return writeValue(e, v.Interface().(Value))
}

func writeBag(e *encodeState, b *Bag) error {
	if b == nil {
		e.f.WriteNull(e.buf)
		return nil
	}
	ok := e.enter(bagType)
	defer e.leave()
	if !ok {
		e.f.WriteNull(e.buf)
		return nil
	}
	e.f.WriteMapStart(e.buf)
	for i, k := range b.keys {
		if i > 0 {
			e.f.WriteItemSeparator(e.buf)
		}
		e.f.WriteMapKey(e.buf, k, false)
		e.f.WriteKeySeparator(e.buf)
		if err := writeValue(e, b.vals[k]); err != nil {
			return err
		}
	}
	e.f.WriteMapEnd(e.buf)
	return nil
}

func writeValue(e *encodeState, v Value) error {
	switch v.kind {
	case KindString:
		e.f.WriteString(e.buf, v.str)
	case KindNumber:
		e.f.WriteRawNumber(e.buf, v.str)
	case KindBool:
		e.f.WriteBool(e.buf, v.b)
	case KindMap:
		return writeBag(e, v.bag)
	case KindList:
		ok := e.enter(valueType)
		defer e.leave()
		if !ok {
			e.f.WriteNull(e.buf)
			return nil
		}
		e.f.WriteListStart(e.buf)
		last := e.buf.Len()
		for i, item := range v.list {
			if i > 0 {
				e.f.WriteItemSeparator(e.buf)
			}
			last = e.buf.Len()
			if err := writeValue(e, item); err != nil {
				return err
			}
		}
		endList(e, len(v.list), last)
	default:
		e.f.WriteNull(e.buf)
	}
	return nil
}

func parseBagValue(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	if !startsMap(d.f, tok) {
		return d.mismatch(tok, bagType)
	}
	val, err := parseValue(d, tok)
	if err != nil {
		return err
	}
	if val.bag != nil {
		v.Set(reflect.ValueOf(*val.bag))
	}
	return nil
}

func parseValueValue(d *decodeState, tok View, v reflect.Value) error {
	val, err := parseValue(d, tok)
	if err != nil {
		return err
	}
	v.Set(reflect.ValueOf(val))
	return nil
}

// parseValue builds a Value from a token. Map keys keep their text order.
func parseValue(d *decodeState, tok View) (Value, error) {
	f := d.f
	if f.IsNull(tok) {
		return Value{}, nil
	}

	i := 0
	if f.EatMapStartChar(tok, &i) {
		ok := d.enter(bagType)
		defer d.leave()
		if !ok {
			return Value{}, nil
		}
		b := NewBag()
		if f.EatMapEndChar(tok, &i) {
			return BagValue(b), nil
		}
		for {
			key, val, err := eatEntry(f, tok, &i)
			if err != nil {
				return Value{}, err
			}
			item, err := parseValue(d, val)
			if err != nil {
				return Value{}, err
			}
			b.Set(key.String(), item)
			more, err := f.EatItemSeparatorOrMapEnd(tok, &i)
			if err != nil {
				return Value{}, err
			}
			if !more {
				return BagValue(b), nil
			}
		}
	}

	i = 0
	if f.EatListStartChar(tok, &i) {
		ok := d.enter(valueType)
		defer d.leave()
		if !ok {
			return Value{}, nil
		}
		var items []Value
		if f.EatListEndChar(tok, &i) {
			return ListValue(), nil
		}
		for {
			val, err := f.EatValue(tok, &i)
			if err != nil {
				return Value{}, err
			}
			item, err := parseValue(d, val)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
			more, err := f.EatItemSeparatorOrListEnd(tok, &i)
			if err != nil {
				return Value{}, err
			}
			if !more {
				return ListValue(items...), nil
			}
		}
	}

	scalar, err := f.ParseScalar(tok, true)
	if err != nil {
		return Value{}, err
	}
	switch s := scalar.(type) {
	case string:
		return StringValue(s), nil
	case Number:
		return NumberValue(s), nil
	case bool:
		return BoolValue(s), nil
	}
	return Value{}, nil
}
