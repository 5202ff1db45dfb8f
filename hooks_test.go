package apexText_test

import (
	"apexText"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type Money struct {
	Cents int64
}

type Point struct {
	X, Y int
}

type Invoice struct {
	Total Money
	At    Point
}

func TestSerializeHooks(t *testing.T) {
	c := apexText.NewJSONCodec()
	apexText.RegisterSerializeFn(c, func(m Money) (string, error) {
		return fmt.Sprintf("$%d.%02d", m.Cents/100, m.Cents%100), nil
	})
	apexText.RegisterDeserializeFn(c, func(s string) (Money, error) {
		var whole, frac int64
		if _, err := fmt.Sscanf(s, "$%d.%d", &whole, &frac); err != nil {
			return Money{}, err
		}
		return Money{Cents: whole*100 + frac}, nil
	})
	apexText.RegisterRawSerializeFn(c, func(p Point) (string, error) {
		return fmt.Sprintf("[%d,%d]", p.X, p.Y), nil
	})

	in := Invoice{Total: Money{Cents: 150}, At: Point{X: 1, Y: 2}}
	got, err := c.MarshalString(in)
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"Total":"$1.50","At":[1,2]}` {
		t.Errorf("got %s", got)
	}

	var back Invoice
	if err := c.UnmarshalString(`{"Total":"$3.05"}`, &back); err != nil {
		t.Fatal(err)
	}
	if back.Total.Cents != 305 {
		t.Errorf("Total = %+v", back.Total)
	}

	// hooks are per codec
	plain, _ := apexText.JSON.MarshalString(in)
	if plain != `{"Total":{"Cents":150},"At":{"X":1,"Y":2}}` {
		t.Errorf("default codec = %s", plain)
	}
}

func TestHookReplacesCachedCodec(t *testing.T) {
	c := apexText.NewJSONCodec()
	before, _ := c.MarshalString(Money{Cents: 5})
	if before != `{"Cents":5}` {
		t.Fatalf("before = %s", before)
	}

	apexText.RegisterSerializeFn(c, func(m Money) (string, error) { return "five", nil })
	after, _ := c.MarshalString(Money{Cents: 5})
	if after != `"five"` {
		t.Errorf("after register = %s", after)
	}

	apexText.UnregisterFns[Money](c)
	again, _ := c.MarshalString(Money{Cents: 5})
	if again != before {
		t.Errorf("after unregister = %s", again)
	}
}

func TestHookErrors(t *testing.T) {
	boom := errors.New("boom")
	c := apexText.NewJSONCodec(apexText.WithStrictMode(true))
	apexText.RegisterSerializeFn(c, func(Money) (string, error) { return "", boom })
	apexText.RegisterDeserializeFn(c, func(string) (Money, error) { return Money{}, boom })

	if _, err := c.Marshal(Invoice{}); !errors.Is(err, boom) {
		t.Errorf("serialize: got %v", err)
	}

	var inv Invoice
	err := c.UnmarshalString(`{"Total":"x"}`, &inv)
	var ute *apexText.UnmarshalTypeError
	if !errors.As(err, &ute) || !errors.Is(err, boom) {
		t.Errorf("deserialize: got %v", err)
	}
}

func TestHooksOnJSV(t *testing.T) {
	c := apexText.NewJSVCodec()
	apexText.RegisterSerializeFn(c, func(m Money) (string, error) {
		return strings.Repeat("$", int(m.Cents)), nil
	})
	got, _ := c.MarshalString(Invoice{Total: Money{Cents: 2}})
	if got != `{Total:$$,At:{X:0,Y:0}}` {
		t.Errorf("got %s", got)
	}
}
