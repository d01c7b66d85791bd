package rbac

import (
	"testing"

	"swiftflow/api/internal/department"
)

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		dept   department.Department
		action Action
		allow  bool
	}{
		{name: "design base select", dept: department.Design, action: ActionBaseSelect, allow: true},
		{name: "design assign", dept: department.Design, action: ActionAssign, allow: false},
		{name: "production assign", dept: department.Production, action: ActionAssign, allow: true},
		{name: "production merge", dept: department.Production, action: ActionMerge, allow: false},
		{name: "machining merge", dept: department.Machining, action: ActionMerge, allow: true},
		{name: "inspection select", dept: department.Inspection, action: ActionSelect, allow: true},
		{name: "inspection assign", dept: department.Inspection, action: ActionAssign, allow: false},
		{name: "admin everything", dept: department.Admin, action: ActionMerge, allow: true},
		{name: "enquiry read", dept: department.Enquiry, action: ActionRead, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.dept, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.dept, tc.action, got, tc.allow)
			}
		})
	}
}
