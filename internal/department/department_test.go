package department

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Department
		ok   bool
	}{
		{in: "DESIGN", want: Design, ok: true},
		{in: "design", want: Design, ok: true},
		{in: " machining ", want: Machining, ok: true},
		{in: "INSPECTION", want: Inspection, ok: true},
		{in: "ADMIN", want: Admin, ok: true},
		{in: "COMPLETED", want: Completed, ok: true},
		{in: "SHIPPING", ok: false},
		{in: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Parse(tc.in)
			if ok != tc.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsOperational(t *testing.T) {
	for _, d := range OperationalStages {
		if !d.IsOperational() {
			t.Errorf("%s should be operational", d)
		}
	}
	for _, d := range []Department{Admin, Enquiry, Completed} {
		if d.IsOperational() {
			t.Errorf("%s should not be operational", d)
		}
	}
}
