// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package vartype

import (
	"encoding/json"
	"testing"
)

func TestVariable(t *testing.T) {
	t.Run("zero value is unset", func(t *testing.T) {
		var v VarFloat64
		if v.IsSet() {
			t.Error("expected zero variable to be unset")
		}
		if v.String() != "<unset>" {
			t.Errorf("expected string of unset variable to be %q, got %q", "<unset>", v.String())
		}
	})
	t.Run("set and reset", func(t *testing.T) {
		var v VarFloat64
		v.Set(0.93)
		if !v.IsSet() || v.Value() != 0.93 {
			t.Errorf("expected variable to be set to 0.93, got %s", v)
		}
		v.Reset()
		if v.IsSet() || v.Value() != 0 {
			t.Errorf("expected variable to be reset, got %s", v)
		}
	})
	t.Run("a set zero value is distinct from unset", func(t *testing.T) {
		v := NewVariable(0.0)
		if !v.IsSet() {
			t.Error("expected variable to be set")
		}
	})
}

func TestVariable_JSON(t *testing.T) {
	type payload struct {
		Confidence VarFloat64       `json:"confidence"`
		Comuna     Variable[string] `json:"comuna"`
	}
	t.Run("unset values marshal to null", func(t *testing.T) {
		data, err := json.Marshal(payload{})
		if err != nil {
			t.Fatal(err)
		}
		want := `{"confidence":null,"comuna":null}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})
	t.Run("set values marshal to their value", func(t *testing.T) {
		data, err := json.Marshal(payload{Confidence: NewVariable(1.0), Comuna: NewVariable("Maipú")})
		if err != nil {
			t.Fatal(err)
		}
		want := `{"confidence":1,"comuna":"Maipú"}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})
	t.Run("null and values unmarshal", func(t *testing.T) {
		var p payload
		if err := json.Unmarshal([]byte(`{"confidence":0.5,"comuna":null}`), &p); err != nil {
			t.Fatal(err)
		}
		if !p.Confidence.IsSet() || p.Confidence.Value() != 0.5 {
			t.Errorf("expected confidence to be 0.5, got %s", p.Confidence)
		}
		if p.Comuna.IsSet() {
			t.Errorf("expected comuna to be unset, got %s", p.Comuna)
		}
	})
	t.Run("wrong type fails", func(t *testing.T) {
		var p payload
		if err := json.Unmarshal([]byte(`{"confidence":"high"}`), &p); err == nil {
			t.Error("expected unmarshal to fail")
		}
	})
}
