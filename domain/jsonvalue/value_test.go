package jsonvalue_test

import (
	"testing"

	"github.com/flowbridge/flowbridge/domain/jsonvalue"
)

func TestDecode_Scalars(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind jsonvalue.Kind
	}{
		{"null", `null`, jsonvalue.KindNull},
		{"bool", `true`, jsonvalue.KindBool},
		{"int", `42`, jsonvalue.KindInt},
		{"float", `3.14`, jsonvalue.KindFloat},
		{"string", `"hi"`, jsonvalue.KindString},
		{"sequence", `[1,2]`, jsonvalue.KindSequence},
		{"mapping", `{"a":1}`, jsonvalue.KindMapping},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := jsonvalue.Decode([]byte(tc.raw))
			if err != nil {
				t.Fatalf("Decode(%s): %v", tc.raw, err)
			}
			if v.Kind() != tc.kind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tc.kind)
			}
		})
	}
}

func TestDecode_IntVsFloat(t *testing.T) {
	intVal, err := jsonvalue.Decode([]byte(`5`))
	if err != nil {
		t.Fatal(err)
	}
	floatVal, err := jsonvalue.Decode([]byte(`5.0`))
	if err != nil {
		t.Fatal(err)
	}
	if intVal.Kind() != jsonvalue.KindInt {
		t.Errorf("expected int kind for 5")
	}
	if floatVal.Kind() != jsonvalue.KindFloat {
		t.Errorf("expected float kind for 5.0")
	}
	if !jsonvalue.Equal(intVal, floatVal) {
		t.Error("5 and 5.0 should cross-compare equal numerically")
	}
}

func TestDecode_TrailingData(t *testing.T) {
	_, err := jsonvalue.Decode([]byte(`{"a":1} garbage`))
	if err == nil {
		t.Error("expected error for trailing data")
	}
}

func TestDecode_NotJSON(t *testing.T) {
	_, err := jsonvalue.Decode([]byte(`not json`))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestEqual_Sequences(t *testing.T) {
	a, _ := jsonvalue.Decode([]byte(`[1,"x",true]`))
	b, _ := jsonvalue.Decode([]byte(`[1,"x",true]`))
	c, _ := jsonvalue.Decode([]byte(`[1,"x",false]`))

	if !jsonvalue.Equal(a, b) {
		t.Error("identical sequences should be equal")
	}
	if jsonvalue.Equal(a, c) {
		t.Error("differing sequences should not be equal")
	}
}

func TestLexical(t *testing.T) {
	cases := []struct {
		v    jsonvalue.Value
		want string
	}{
		{jsonvalue.String("abc"), "abc"},
		{jsonvalue.Bool(true), "true"},
		{jsonvalue.Bool(false), "false"},
		{jsonvalue.Int(42), "42"},
		{jsonvalue.Float(1.5), "1.5"},
		{jsonvalue.Null, "null"},
	}
	for _, tc := range cases {
		if got := jsonvalue.Lexical(tc.v); got != tc.want {
			t.Errorf("Lexical(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestMarshalJSON_RoundTrips(t *testing.T) {
	raw := []byte(`{"a":1,"b":[1,2,"x"],"c":null,"d":true}`)
	v, err := jsonvalue.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	v2, err := jsonvalue.Decode(out)
	if err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if !jsonvalue.Equal(v, v2) {
		t.Errorf("round trip changed value: %s -> %s", raw, out)
	}
}
