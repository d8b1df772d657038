package expression

import "testing"

func TestEvalBasicArithmetic(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1 + 2", 3},
		{"10 - 4", 6},
		{"3 * 4", 12},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2 ** 10", 1024},
		{"-5 + 3", -2},
		{"(1 + 2) * 3", 9},
		{"2 * (3 + (4 - 1))", 12},
	}
	for _, c := range cases {
		got, err := Eval(c.in)
		if err != nil {
			t.Fatalf("Eval(%q) unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Eval(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	if _, err := Eval("1 / 0"); err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestEvalModuloByZero(t *testing.T) {
	if _, err := Eval("1 % 0"); err == nil {
		t.Fatal("expected modulo by zero error")
	}
}

func TestEvalRejectsIdentifiers(t *testing.T) {
	rejected := []string{
		"__import__('os')",
		"x + 1",
		"1 + open('/etc/passwd')",
		"True",
		"1 == 1",
		"1; 2",
	}
	for _, in := range rejected {
		if _, err := Eval(in); err == nil {
			t.Errorf("Eval(%q) expected to be rejected, got no error", in)
		}
	}
}

func TestEvalUnaryAndNested(t *testing.T) {
	got, err := Eval("-(2 + 3) * -2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Fatalf("got %v, want 10", got)
	}
}
