package apexText_test

import (
	"apexText"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type Plain struct {
	Int int
	Str string
}

type Linked struct {
	Name string
	Next *Linked
}

type Tagged struct {
	ID       int    `json:"id"`
	Label    string `json:"label,omitempty"`
	Secret   string `json:"-"`
	internal int
	Callback func()
}

type Audit struct {
	ID string
}

type Document struct {
	Audit
	Title string
}

func TestPlainObject(t *testing.T) {
	tests := []struct {
		name  string
		codec *apexText.Codec
		want  string
	}{
		{"json", apexText.JSON, `{"Int":1,"Str":"a"}`},
		{"jsv", apexText.JSV, `{Int:1,Str:a}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.codec.MarshalString(Plain{Int: 1, Str: "a"})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("MarshalString = %s, want %s", got, tt.want)
			}

			var back Plain
			if err := tt.codec.UnmarshalString(got, &back); err != nil {
				t.Fatal(err)
			}
			if back != (Plain{Int: 1, Str: "a"}) {
				t.Errorf("round trip = %+v", back)
			}
		})
	}
}

func TestNullOmission(t *testing.T) {
	v := Linked{Name: "x"}

	tests := []struct {
		name  string
		codec *apexText.Codec
		want  string
	}{
		{"json default", apexText.JSON, `{"Name":"x"}`},
		{"json include nulls", apexText.NewJSONCodec(apexText.WithIncludeNullValues(true)), `{"Name":"x","Next":null}`},
		{"jsv default", apexText.JSV, `{Name:x}`},
		{"jsv include nulls", apexText.NewJSVCodec(apexText.WithIncludeNullValues(true)), `{Name:x,Next:}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.codec.MarshalString(v)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}

			back := Linked{Next: &Linked{}}
			if err := tt.codec.UnmarshalString(got, &back); err != nil {
				t.Fatal(err)
			}
			if back.Name != "x" {
				t.Errorf("Name = %q", back.Name)
			}
		})
	}
}

func TestMapNullsKeptUnlessConfigured(t *testing.T) {
	m := map[string]*int{"a": nil}

	got, _ := apexText.JSON.MarshalString(m)
	if got != `{"a":null}` {
		t.Errorf("default = %s", got)
	}

	c := apexText.NewJSONCodec(apexText.WithOmitNullsInMaps(true))
	got, _ = c.MarshalString(m)
	if got != `{}` {
		t.Errorf("OmitNullsInMaps = %s", got)
	}
}

func TestStructTags(t *testing.T) {
	got, err := apexText.JSON.MarshalString(Tagged{ID: 7, Secret: "s", internal: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"id":7}` {
		t.Errorf("got %s", got)
	}

	got, _ = apexText.JSON.MarshalString(Tagged{ID: 7, Label: "l"})
	if got != `{"id":7,"label":"l"}` {
		t.Errorf("got %s", got)
	}
}

func TestEmbeddedStructsArePromoted(t *testing.T) {
	doc := Document{Audit: Audit{ID: "d1"}, Title: "t"}
	got, err := apexText.JSON.MarshalString(doc)
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"ID":"d1","Title":"t"}` {
		t.Errorf("got %s", got)
	}

	var back Document
	if err := apexText.JSON.UnmarshalString(got, &back); err != nil {
		t.Fatal(err)
	}
	if back != doc {
		t.Errorf("round trip = %+v", back)
	}
}

func TestNameConventions(t *testing.T) {
	type Counter struct {
		TotalCount int
		ID         string
	}

	tests := []struct {
		nc   apexText.NameConvention
		want string
	}{
		{apexText.NameAsDeclared, `{"TotalCount":1,"ID":"x"}`},
		{apexText.NameCamelCase, `{"totalCount":1,"id":"x"}`},
		{apexText.NameLowerUnderscore, `{"total_count":1,"id":"x"}`},
	}

	for _, tt := range tests {
		c := apexText.NewJSONCodec(apexText.WithNameConvention(tt.nc))
		got, err := c.MarshalString(Counter{TotalCount: 1, ID: "x"})
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("convention %d: got %s, want %s", tt.nc, got, tt.want)
		}
	}
}

func TestLenientMemberMatching(t *testing.T) {
	type Stats struct {
		TotalCount int
		PageSize   int
	}
	input := `{"total_count":5,"page-size":20}`

	var exact Stats
	if err := apexText.JSON.UnmarshalString(input, &exact); err != nil {
		t.Fatal(err)
	}
	if exact != (Stats{}) {
		t.Errorf("exact matching populated %+v", exact)
	}

	c := apexText.NewJSONCodec(apexText.WithMemberMatching(apexText.MatchLenient))
	var lenient Stats
	if err := c.UnmarshalString(input, &lenient); err != nil {
		t.Fatal(err)
	}
	if lenient.TotalCount != 5 || lenient.PageSize != 20 {
		t.Errorf("lenient = %+v", lenient)
	}
}

func TestUnknownKeysAreSkipped(t *testing.T) {
	var p Plain
	err := apexText.JSON.UnmarshalString(`{"Extra":{"deep":[1,2,{"x":"}"}]},"Int":3,"More":null,"Str":"s"}`, &p)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Plain{Int: 3, Str: "s"}) {
		t.Errorf("got %+v", p)
	}
}

func TestDepthGuard(t *testing.T) {
	c := apexText.NewJSONCodec(apexText.WithMaxDepth(3))

	// a self-referencing graph terminates at the depth limit
	loop := &Linked{Name: "n"}
	loop.Next = loop

	got, err := c.MarshalString(loop)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Name":"n","Next":{"Name":"n","Next":{"Name":"n","Next":null}}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	var back Linked
	deep := `{"Name":"0","Next":{"Name":"1","Next":{"Name":"2","Next":{"Name":"3"}}}}`
	if err := c.UnmarshalString(deep, &back); err != nil {
		t.Fatal(err)
	}
	if back.Next == nil || back.Next.Next == nil {
		t.Fatalf("levels within the limit were dropped: %+v", back)
	}
	if back.Next.Next.Name != "2" || back.Next.Next.Next != nil {
		t.Errorf("level past the limit = %+v", back.Next.Next.Next)
	}
}

func TestDepthGuardOnLists(t *testing.T) {
	c := apexText.NewJSONCodec(apexText.WithMaxDepth(2))
	got, err := c.MarshalString([][][]int{{{1}}})
	if err != nil {
		t.Fatal(err)
	}
	if got != `[[null]]` {
		t.Errorf("got %s", got)
	}
}

func TestSyntaxErrors(t *testing.T) {
	inputs := []string{
		`{"Int":1`,
		`{"Int":1,"Str":"a}`,
		`{"Int" 1}`,
		`{"Int":1} trailing`,
		``,
		`[1,2`,
	}
	for _, in := range inputs {
		var p Plain
		err := apexText.JSON.UnmarshalString(in, &p)
		var se *apexText.SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: got %v, want *SyntaxError", in, err)
		}
	}
}

func TestSchemaMismatch(t *testing.T) {
	input := `{"Int":"abc","Str":"s"}`

	var p Plain
	if err := apexText.JSON.UnmarshalString(input, &p); err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if p.Int != 0 || p.Str != "s" {
		t.Errorf("got %+v", p)
	}

	strict := apexText.NewJSONCodec(apexText.WithStrictMode(true))
	err := strict.UnmarshalString(input, &p)
	var ute *apexText.UnmarshalTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("got %v, want *UnmarshalTypeError", err)
	}
	if ute.Field != "Int" || ute.Type.Kind() != reflect.Int {
		t.Errorf("error = %+v", ute)
	}
}

func TestLenientScalarConversions(t *testing.T) {
	type Nums struct {
		A int
		B int
		C float64
		D string
		E uint8
	}
	var n Nums
	err := apexText.JSON.UnmarshalString(`{"A":"42","B":2.0,"C":"1.5","D":17,"E":300}`, &n)
	if err != nil {
		t.Fatal(err)
	}
	want := Nums{A: 42, B: 2, C: 1.5, D: "17"}
	if n != want {
		t.Errorf("got %+v, want %+v", n, want)
	}
}

func TestNaNIsRejected(t *testing.T) {
	_, err := apexText.JSON.Marshal(struct{ F float64 }{F: nan()})
	var uve *apexText.UnsupportedValueError
	if !errors.As(err, &uve) {
		t.Errorf("got %v, want *UnsupportedValueError", err)
	}
}

func TestNonFiniteInputIsRejected(t *testing.T) {
	type F struct{ F float64 }
	strict := apexText.NewJSONCodec(apexText.WithStrictMode(true))
	for _, in := range []string{`{"F":NaN}`, `{"F":-Inf}`, `{"F":"Infinity"}`} {
		v := F{F: 1}
		if err := apexText.JSON.UnmarshalString(in, &v); err != nil || v.F != 1 {
			t.Errorf("lenient %s: F = %v, err = %v", in, v.F, err)
		}
		var ute *apexText.UnmarshalTypeError
		if err := strict.UnmarshalString(in, &v); !errors.As(err, &ute) {
			t.Errorf("strict %s: got %v", in, err)
		}
	}
}

func nan() float64 {
	f, _ := strconv.ParseFloat("NaN", 64)
	return f
}

func TestUnsupportedType(t *testing.T) {
	_, err := apexText.JSON.Marshal(map[[2]int]string{{1, 2}: "x"})
	var ute *apexText.UnsupportedTypeError
	if !errors.As(err, &ute) {
		t.Errorf("got %v, want *UnsupportedTypeError", err)
	}
}

func TestMaps(t *testing.T) {
	tests := []struct {
		name  string
		codec *apexText.Codec
		in    any
		want  string
	}{
		{"json string keys", apexText.JSON, map[string]int{"b": 2, "a": 1}, `{"a":1,"b":2}`},
		{"json int keys", apexText.JSON, map[int]string{2: "b", 1: "a"}, `{"1":"a","2":"b"}`},
		{"jsv int keys", apexText.JSV, map[int]string{2: "b", 1: "a"}, `{1:a,2:b}`},
		{"jsv nested", apexText.JSV, map[string][]string{"k": {"x y", "z"}}, `{k:["x y",z]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.codec.MarshalString(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}

			back := reflect.New(reflect.TypeOf(tt.in))
			if err := tt.codec.UnmarshalString(got, back.Interface()); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(back.Elem().Interface(), tt.in) {
				t.Errorf("round trip = %v", back.Elem().Interface())
			}
		})
	}
}

func TestSlicesAndArrays(t *testing.T) {
	s := make([]int, 1, 8)
	if err := apexText.JSON.UnmarshalString(`[4,5,6]`, &s); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s, []int{4, 5, 6}) || cap(s) != 8 {
		t.Errorf("slice = %v (cap %d)", s, cap(s))
	}

	a := [3]int{9, 9, 9}
	if err := apexText.JSON.UnmarshalString(`[1]`, &a); err != nil {
		t.Fatal(err)
	}
	if a != [3]int{1, 0, 0} {
		t.Errorf("short array = %v", a)
	}
	if err := apexText.JSON.UnmarshalString(`[1,2,3,4]`, &a); err != nil {
		t.Fatal(err)
	}
	if a != [3]int{1, 2, 3} {
		t.Errorf("long array = %v", a)
	}
}

func TestJSVListsKeepNulls(t *testing.T) {
	a, b := "a", "b"
	tests := []struct {
		in   []*string
		want string
	}{
		{[]*string{}, `[]`},
		{[]*string{&a}, `[a]`},
		{[]*string{nil}, `[,]`},
		{[]*string{nil, nil}, `[,,]`},
		{[]*string{&a, nil}, `[a,,]`},
		{[]*string{nil, &b}, `[,b]`},
		{[]*string{&a, nil, &b}, `[a,,b]`},
	}

	for _, tt := range tests {
		got, err := apexText.JSV.MarshalString(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("MarshalString(%d items) = %s, want %s", len(tt.in), got, tt.want)
		}

		var back []*string
		if err := apexText.JSV.UnmarshalString(got, &back); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(back, tt.in) {
			t.Errorf("%s parsed into %d items, want %d", got, len(back), len(tt.in))
		}
	}

	// a trailing separator after a value is still tolerated
	var back []string
	if err := apexText.JSV.UnmarshalString(`[x,y,]`, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, []string{"x", "y"}) {
		t.Errorf("got %q", back)
	}
}

func TestJSONStringMembersRejectBareWords(t *testing.T) {
	p := Plain{Str: "keep"}
	if err := apexText.JSON.UnmarshalString(`{"Int":1,"Str":abc}`, &p); err != nil {
		t.Fatal(err)
	}
	if p.Int != 1 || p.Str != "keep" {
		t.Errorf("got %+v", p)
	}

	strict := apexText.NewJSONCodec(apexText.WithStrictMode(true))
	var ute *apexText.UnmarshalTypeError
	if err := strict.UnmarshalString(`{"Str":abc}`, &p); !errors.As(err, &ute) || ute.Field != "Str" {
		t.Errorf("strict: got %v", err)
	}
	if err := strict.UnmarshalString(`{"Str":true}`, &p); err != nil || p.Str != "true" {
		t.Errorf("literal: %q, %v", p.Str, err)
	}
}

func TestJSVQuoting(t *testing.T) {
	type Note struct {
		Text string
	}
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `{Text:plain}`},
		{"x, y", `{Text:"x, y"}`},
		{`say "hi"`, `{Text:"say ""hi"""}`},
		{"a:b", `{Text:"a:b"}`},
		{"", `{Text:""}`},
	}

	for _, tt := range tests {
		got, err := apexText.JSV.MarshalString(Note{Text: tt.in})
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.in, got, tt.want)
		}
		var back Note
		if err := apexText.JSV.UnmarshalString(got, &back); err != nil {
			t.Fatal(err)
		}
		if back.Text != tt.in {
			t.Errorf("%q: round trip = %q", tt.in, back.Text)
		}
	}
}

type Color int

const (
	Red Color = iota + 1
	Green
)

func (c Color) MarshalText() ([]byte, error) {
	switch c {
	case Red:
		return []byte("red"), nil
	case Green:
		return []byte("green"), nil
	}
	return nil, errors.New("unknown color " + strconv.Itoa(int(c)))
}

func (c *Color) UnmarshalText(b []byte) error {
	switch string(b) {
	case "red":
		*c = Red
	case "green":
		*c = Green
	default:
		return errors.New("unknown color " + string(b))
	}
	return nil
}

func TestEnums(t *testing.T) {
	type Paint struct {
		Color Color
	}

	got, _ := apexText.JSON.MarshalString(Paint{Color: Green})
	if got != `{"Color":"green"}` {
		t.Errorf("as text = %s", got)
	}

	asInt := apexText.NewJSONCodec(apexText.WithEnumAsInteger(true))
	got, _ = asInt.MarshalString(Paint{Color: Green})
	if got != `{"Color":2}` {
		t.Errorf("as integer = %s", got)
	}

	for _, in := range []string{`{"Color":"green"}`, `{"Color":2}`} {
		var p Paint
		if err := apexText.JSON.UnmarshalString(in, &p); err != nil {
			t.Fatal(err)
		}
		if p.Color != Green {
			t.Errorf("%s: got %d", in, p.Color)
		}
	}
}

func TestDates(t *testing.T) {
	type Event struct {
		At time.Time
	}
	at := time.Date(2024, 3, 19, 10, 0, 0, 0, time.UTC)
	ms := strconv.FormatInt(at.UnixMilli(), 10)

	tests := []struct {
		enc  apexText.DateEncoding
		want string
	}{
		{apexText.DateISO8601, `{"At":"2024-03-19T10:00:00Z"}`},
		{apexText.DateUnixMillis, `{"At":` + ms + `}`},
		{apexText.DateWCF, `{"At":"/Date(` + ms + `)/"}`},
	}

	for _, tt := range tests {
		c := apexText.NewJSONCodec(apexText.WithDateEncoding(tt.enc))
		got, err := c.MarshalString(Event{At: at})
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("encoding %d: got %s, want %s", tt.enc, got, tt.want)
		}

		// every encoding is readable regardless of configuration
		var back Event
		if err := apexText.JSON.UnmarshalString(got, &back); err != nil {
			t.Fatal(err)
		}
		if !back.At.Equal(at) {
			t.Errorf("encoding %d: round trip = %v", tt.enc, back.At)
		}
	}

	var e Event
	if err := apexText.JSON.UnmarshalString(`{"At":"2024-03-19"}`, &e); err != nil {
		t.Fatal(err)
	}
	if !e.At.Equal(time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date only = %v", e.At)
	}
}

func TestBuiltinScalars(t *testing.T) {
	type Record struct {
		ID      uuid.UUID
		Timeout time.Duration
		Payload []byte
		Err     error
		Amount  apexText.Number
	}
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	in := Record{
		ID:      id,
		Timeout: 1500 * time.Millisecond,
		Payload: []byte("hi"),
		Err:     errors.New("boom"),
		Amount:  "12.50",
	}

	got, err := apexText.JSON.MarshalString(in)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"ID":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","Timeout":"1.5s","Payload":"aGk=","Err":"boom","Amount":12.50}`
	if got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}

	for _, c := range []*apexText.Codec{apexText.JSON, apexText.JSV} {
		text, err := c.MarshalString(in)
		if err != nil {
			t.Fatal(err)
		}
		var back Record
		if err := c.UnmarshalString(text, &back); err != nil {
			t.Fatalf("%s: %v", c.Format().Name(), err)
		}
		if back.ID != id || back.Timeout != in.Timeout || string(back.Payload) != "hi" ||
			back.Err == nil || back.Err.Error() != "boom" || back.Amount != "12.50" {
			t.Errorf("%s: round trip = %+v", c.Format().Name(), back)
		}
	}
}

func TestGenericValues(t *testing.T) {
	got, err := apexText.Deserialize[any](apexText.JSON, `{"a":[1,"x",true,null],"b":{}}`)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"a": []any{1.0, "x", true, nil}, "b": map[string]any{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("json = %#v", got)
	}

	got, err = apexText.Deserialize[any](apexText.JSV, `{a:[1,x]}`)
	if err != nil {
		t.Fatal(err)
	}
	want = map[string]any{"a": []any{"1", "x"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("jsv = %#v", got)
	}

	c := apexText.NewJSONCodec(apexText.WithUseNumber(true))
	got, err = apexText.Deserialize[any](c, `{"n":12.50}`)
	if err != nil {
		t.Fatal(err)
	}
	if n := got.(map[string]any)["n"]; n != apexText.Number("12.50") {
		t.Errorf("UseNumber = %#v", n)
	}
}

func TestUnmarshalTargetMustBePointer(t *testing.T) {
	var p Plain
	if err := apexText.JSON.UnmarshalString(`{}`, p); err == nil {
		t.Error("expected an error for a non-pointer target")
	}
	if err := apexText.JSON.UnmarshalString(`{}`, (*Plain)(nil)); err == nil {
		t.Error("expected an error for a nil pointer target")
	}
}

func TestUnmarshalBytesDoesNotAlias(t *testing.T) {
	data := []byte(`{"Int":1,"Str":"abc"}`)
	var p Plain
	if err := apexText.Unmarshal(data, &p); err != nil {
		t.Fatal(err)
	}
	copy(data, strings.Repeat("x", len(data)))
	if p.Str != "abc" {
		t.Errorf("string aliases the input: %q", p.Str)
	}
}

func TestOutputMatchesGjson(t *testing.T) {
	out, err := apexText.Marshal(map[string]any{
		"plain":  Plain{Int: 1, Str: "a"},
		"escape": "tab\there \"quoted\" é",
		"list":   []int{3, 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !gjson.ValidBytes(out) {
		t.Fatalf("invalid JSON: %s", out)
	}
	checks := map[string]string{
		"plain.Str": "a",
		"plain.Int": "1",
		"escape":    "tab\there \"quoted\" é",
		"list.1":    "4",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(out, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestSerializeTo(t *testing.T) {
	var sb strings.Builder
	if err := apexText.JSV.SerializeTo(&sb, Plain{Int: 2, Str: "b"}); err != nil {
		t.Fatal(err)
	}
	if sb.String() != `{Int:2,Str:b}` {
		t.Errorf("got %s", sb.String())
	}

	sb.Reset()
	if err := apexText.SerializeTo[[]int](apexText.JSON, &sb, []int{1, 2}); err != nil {
		t.Fatal(err)
	}
	if sb.String() != `[1,2]` {
		t.Errorf("got %s", sb.String())
	}
}
