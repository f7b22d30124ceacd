package table

import (
	"testing"
)

func TestNewRowKeepsOrder(t *testing.T) {
	r := NewRow([]string{"Region", "Amt", "Note"}, []Value{"East", 10.0})

	cols := r.Columns()
	if len(cols) != 3 || cols[0] != "Region" || cols[2] != "Note" {
		t.Fatalf("unexpected columns: %v", cols)
	}
	if r.Get("Amt") != 10.0 {
		t.Errorf("Amt = %v", r.Get("Amt"))
	}
	if !r.Has("Note") || r.Get("Note") != nil {
		t.Errorf("Note should be present and nil, got %v", r.Get("Note"))
	}
	if r.Has("Missing") {
		t.Error("Missing should not be present")
	}
}

func TestNewRowDuplicateColumn(t *testing.T) {
	r := NewRow([]string{"A", "B", "A"}, []Value{"1", "2", "3"})
	if r.Len() != 2 {
		t.Fatalf("expected 2 columns, got %d", r.Len())
	}
	if r.Get("A") != "3" {
		t.Errorf("A = %v, want last value", r.Get("A"))
	}
}

func TestProject(t *testing.T) {
	r := NewRow([]string{"Region", "Amt", "Owner"}, []Value{"East", 10.0, "kim"})
	p := r.Project([]string{"Amt", "Extra", "Region"})

	cols := p.Columns()
	want := []string{"Amt", "Extra", "Region"}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}
	if p.Get("Extra") != nil || !p.Has("Extra") {
		t.Error("Extra should be an explicit nil")
	}
	if p.Has("Owner") {
		t.Error("Owner should be dropped")
	}
	// The source row is untouched.
	if r.Len() != 3 {
		t.Error("projection mutated the source row")
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   Value
		want string
		ok   bool
	}{
		{nil, "", false},
		{"", "", false},
		{"East", "East", true},
		{42.0, "42", true},
		{3.5, "3.5", true},
		{-0.25, "-0.25", true},
		{1e21, "1e+21", true},
		{1.5e22, "1.5e+22", true},
		{1e-7, "1e-7", true},
		{-2.5e-10, "-2.5e-10", true},
		{1e-6, "0.000001", true},
		{7, "7", true},
		{true, "true", true},
		{false, "false", true},
	}
	for _, tt := range tests {
		got, ok := Stringify(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Stringify(%#v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStringifyDeterministic(t *testing.T) {
	a, _ := Stringify(42.0)
	b, _ := Stringify(42.0)
	if a != b {
		t.Errorf("same value stringified differently: %q vs %q", a, b)
	}
}

func TestMapIsACopy(t *testing.T) {
	r := NewRow([]string{"Region", "Amt"}, []Value{"East", nil})
	m := r.Map()
	if len(m) != 2 || m["Region"] != "East" || m["Amt"] != nil {
		t.Fatalf("unexpected map: %v", m)
	}
	m["Region"] = "West"
	if r.Get("Region") != "East" {
		t.Error("mutating the map changed the row")
	}
}
