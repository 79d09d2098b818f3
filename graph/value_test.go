package graph

import "testing"

func TestValueEqualCrossesNumberAndString(t *testing.T) {
	if !Number(5).Equal(String("5")) {
		t.Fatal("expected Number(5) to equal String(\"5\") under loose comparison")
	}
	if !String("5").Equal(Number(5)) {
		t.Fatal("expected String(\"5\") to equal Number(5) under loose comparison")
	}
}

func TestValueEqualDeepObjectsAndLists(t *testing.T) {
	a := Object(map[string]Value{"x": List(Number(1), Number(2))})
	b := Object(map[string]Value{"x": List(Number(1), Number(2))})
	c := Object(map[string]Value{"x": List(Number(1), Number(3))})
	if !a.Equal(b) {
		t.Fatal("expected structurally identical objects to be equal")
	}
	if a.Equal(c) {
		t.Fatal("expected objects with differing nested list elements to not be equal")
	}
}

func TestValueCompareNumbersAndStrings(t *testing.T) {
	r, ok := Number(1).Compare(Number(2))
	if !ok || r >= 0 {
		t.Fatalf("expected 1 < 2, got result=%d ok=%v", r, ok)
	}
	r, ok = String("b").Compare(String("a"))
	if !ok || r <= 0 {
		t.Fatalf("expected 'b' > 'a', got result=%d ok=%v", r, ok)
	}
	_, ok = Number(1).Compare(String("a"))
	if ok {
		t.Fatal("expected mismatched kinds to be incomparable")
	}
}

func TestValueIsEmptyAndTruthy(t *testing.T) {
	cases := []struct {
		v     Value
		empty bool
	}{
		{Null(), true},
		{Bool(false), true},
		{Bool(true), false},
		{Number(0), true},
		{Number(1), false},
		{String(""), true},
		{String("x"), false},
		{List(), true},
		{List(Number(1)), false},
		{Object(nil), true},
		{Object(map[string]Value{"a": Number(1)}), false},
	}
	for _, c := range cases {
		if c.v.IsEmpty() != c.empty {
			t.Errorf("IsEmpty() for kind %v: expected %v", c.v.Kind(), c.empty)
		}
		if c.v.Truthy() == c.empty {
			t.Errorf("Truthy() for kind %v: expected %v", c.v.Kind(), !c.empty)
		}
	}
}

func TestValueFromNativeRoundTrip(t *testing.T) {
	native := map[string]interface{}{
		"name":   "Ada",
		"age":    36.0,
		"active": true,
		"tags":   []interface{}{"admin", "eng"},
	}
	v := FromNative(native)
	if v.Kind() != KindObject {
		t.Fatalf("expected object kind, got %v", v.Kind())
	}
	name, _ := v.Get("name")
	if name.AsString() != "Ada" {
		t.Fatalf("expected name 'Ada', got %q", name.AsString())
	}
	back := v.Native()
	backMap, ok := back.(map[string]interface{})
	if !ok || backMap["name"] != "Ada" {
		t.Fatalf("expected Native() round trip to preserve fields, got %v", back)
	}
}

func TestValueMergeObjectsOverwritesLeftWithRight(t *testing.T) {
	a := Object(map[string]Value{"x": Number(1), "y": Number(2)})
	b := Object(map[string]Value{"y": Number(20), "z": Number(3)})
	merged := MergeObjects(a, b)
	x, _ := merged.Get("x")
	y, _ := merged.Get("y")
	z, _ := merged.Get("z")
	if x.AsNumber() != 1 || y.AsNumber() != 20 || z.AsNumber() != 3 {
		t.Fatalf("unexpected merge result: %v", merged.Native())
	}
}

func TestValueMarshalUnmarshalJSON(t *testing.T) {
	v := Object(map[string]Value{"n": Number(3), "s": String("hi"), "list": List(Bool(true), Null())})
	raw, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var decoded Value
	if err := decoded.UnmarshalJSON(raw); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !v.Equal(decoded) {
		t.Fatalf("expected round-tripped value to equal original, got %v", decoded.Native())
	}
}
