package apexText_test

import (
	"apexText"
	"reflect"
	"testing"
)

func TestParseBag(t *testing.T) {
	text := `{"name":"widget","count":3,"ok":true,"tags":["a","b"],"nested":{"k":null}}`

	b, err := apexText.JSON.ParseBag(text)
	if err != nil {
		t.Fatal(err)
	}

	if got := b.Keys(); !reflect.DeepEqual(got, []string{"name", "count", "ok", "tags", "nested"}) {
		t.Errorf("Keys = %v", got)
	}
	if s, ok := b.String("name"); !ok || s != "widget" {
		t.Errorf("name = %q, %v", s, ok)
	}
	if n, ok := b.Int("count"); !ok || n != 3 {
		t.Errorf("count = %d, %v", n, ok)
	}
	if f, ok := b.Float("count"); !ok || f != 3 {
		t.Errorf("count as float = %v, %v", f, ok)
	}
	if v, ok := b.Bool("ok"); !ok || !v {
		t.Errorf("ok = %v, %v", v, ok)
	}
	if tags, ok := b.List("tags"); !ok || len(tags) != 2 {
		t.Errorf("tags = %v, %v", tags, ok)
	}
	nested, ok := b.Bag("nested")
	if !ok {
		t.Fatal("nested is not a bag")
	}
	if v, ok := nested.Get("k"); !ok || !v.IsNull() {
		t.Errorf("nested.k = %#v, %v", v, ok)
	}
	if _, ok := b.Int("name"); ok {
		t.Error("Int accepted a non-numeric string")
	}

	// writing preserves key order
	out, err := apexText.JSON.MarshalString(b)
	if err != nil {
		t.Fatal(err)
	}
	if out != text {
		t.Errorf("got %s\nwant %s", out, text)
	}
}

func TestBagJSV(t *testing.T) {
	b, err := apexText.JSV.ParseBag(`{name:"a, b",count:3,list:[x,y]}`)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := b.String("name"); s != "a, b" {
		t.Errorf("name = %q", s)
	}
	// JSV scalars are untyped; numeric accessors convert
	if n, ok := b.Int("count"); !ok || n != 3 {
		t.Errorf("count = %d, %v", n, ok)
	}

	out, err := apexText.JSV.MarshalString(b)
	if err != nil {
		t.Fatal(err)
	}
	if out != `{name:"a, b",count:3,list:[x,y]}` {
		t.Errorf("got %s", out)
	}
}

func TestBagJSVListNulls(t *testing.T) {
	b := apexText.NewBag().Set("l", apexText.ListValue(apexText.StringValue("x"), apexText.NullValue()))
	out, err := apexText.JSV.MarshalString(b)
	if err != nil {
		t.Fatal(err)
	}
	if out != `{l:[x,,]}` {
		t.Errorf("got %s", out)
	}

	back, err := apexText.JSV.ParseBag(out)
	if err != nil {
		t.Fatal(err)
	}
	l, _ := back.List("l")
	if len(l) != 2 || !l[1].IsNull() {
		t.Errorf("list = %#v", l)
	}
}

func TestBagBuild(t *testing.T) {
	b := apexText.NewBag().
		Set("id", apexText.IntValue(7)).
		Set("ratio", apexText.FloatValue(0.5)).
		Set("name", apexText.StringValue("x")).
		Set("items", apexText.ListValue(apexText.BoolValue(true), apexText.NullValue()))
	b.Set("id", apexText.IntValue(8))
	b.Delete("name")

	got, err := apexText.JSON.MarshalString(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"id":8,"ratio":0.5,"items":[true,null]}` {
		t.Errorf("got %s", got)
	}
	if b.Len() != 3 {
		t.Errorf("Len = %d", b.Len())
	}

	want := map[string]any{"id": apexText.Number("8"), "ratio": apexText.Number("0.5"), "items": []any{true, nil}}
	if m := b.Map(); !reflect.DeepEqual(m, want) {
		t.Errorf("Map = %#v", m)
	}
}

func TestBagMember(t *testing.T) {
	type Envelope struct {
		Kind  string
		Props apexText.Bag
		Extra *apexText.Bag
	}

	var e Envelope
	err := apexText.JSON.UnmarshalString(`{"Kind":"k","Props":{"b":1,"a":2},"Extra":{"x":"y"}}`, &e)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Props.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Props keys = %v", got)
	}
	if e.Extra == nil {
		t.Fatal("Extra is nil")
	}
	if s, _ := e.Extra.String("x"); s != "y" {
		t.Errorf("Extra.x = %q", s)
	}

	out, _ := apexText.JSON.MarshalString(e)
	if out != `{"Kind":"k","Props":{"b":1,"a":2},"Extra":{"x":"y"}}` {
		t.Errorf("got %s", out)
	}
}

func TestValueMember(t *testing.T) {
	type Setting struct {
		Key   string
		Value apexText.Value
	}
	for _, in := range []string{`{"Key":"a","Value":"s"}`, `{"Key":"a","Value":1.5}`, `{"Key":"a","Value":[1,{"x":false}]}`} {
		var s Setting
		if err := apexText.JSON.UnmarshalString(in, &s); err != nil {
			t.Fatal(err)
		}
		out, _ := apexText.JSON.MarshalString(s)
		if out != in {
			t.Errorf("got %s, want %s", out, in)
		}
	}
}
