package storage

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "nesting plan.pdf", want: "nesting-plan.pdf"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\docs\plan.pdf`, want: "plan.pdf"},
		{in: "план.pdf", want: ".pdf"},
		{in: "///", want: "attachment"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
