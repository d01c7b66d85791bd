package selection

import (
	"errors"
	"testing"

	"swiftflow/api/internal/department"
)

func TestResolveWriteRoleAdmin(t *testing.T) {
	cases := []struct {
		name    string
		body    RoleBody
		want    department.Department
		wantErr error
	}{
		{
			name: "designer array wins",
			body: RoleBody{DesignerSelectedRowIDs: []string{"1"}},
			want: department.Design,
		},
		{
			name: "production array wins",
			body: RoleBody{ProductionSelectedRowIDs: []string{"1"}},
			want: department.Production,
		},
		{
			name:    "both arrays ambiguous",
			body:    RoleBody{DesignerSelectedRowIDs: []string{"1"}, ProductionSelectedRowIDs: []string{"2"}},
			wantErr: ErrAmbiguousAdminRole,
		},
		{
			name:    "no arrays ambiguous",
			body:    RoleBody{},
			wantErr: ErrAmbiguousAdminRole,
		},
		{
			name:    "machine array does not count",
			body:    RoleBody{MachineSelectedRowIDs: []string{"1"}},
			wantErr: ErrAmbiguousAdminRole,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveWriteRole(department.Admin, tc.body, ContextHints{})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Fatalf("role = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveWriteRoleBodyInference(t *testing.T) {
	got, err := ResolveWriteRole(department.Inspection, RoleBody{DesignerSelectedRowIDs: []string{"1"}}, ContextHints{})
	if err != nil {
		t.Fatalf("ResolveWriteRole: %v", err)
	}
	if got != department.Design {
		t.Fatalf("role = %q, want DESIGN", got)
	}

	// Two non-empty arrays disable body inference for non-admins; the
	// resolver falls through to the authority claim.
	got, err = ResolveWriteRole(department.Inspection, RoleBody{
		DesignerSelectedRowIDs:   []string{"1"},
		ProductionSelectedRowIDs: []string{"2"},
	}, ContextHints{})
	if err != nil {
		t.Fatalf("ResolveWriteRole: %v", err)
	}
	if got != department.Inspection {
		t.Fatalf("role = %q, want INSPECTION", got)
	}
}

func TestResolveWriteRoleContextHints(t *testing.T) {
	cases := []struct {
		name  string
		hints ContextHints
		want  department.Department
	}{
		{name: "referer design", hints: ContextHints{Referer: "https://app.example.com/designuser/orders/9"}, want: department.Design},
		{name: "forwarded production", hints: ContextHints{ForwardedURI: "/productionuser/orders"}, want: department.Production},
		{name: "mechanist spelling", hints: ContextHints{OriginalURI: "/mechanistuser/queue"}, want: department.Machining},
		{name: "machinist spelling", hints: ContextHints{OriginalURL: "/machinistuser/queue"}, want: department.Machining},
		{name: "inspection", hints: ContextHints{Referer: "/inspectionuser/review"}, want: department.Inspection},
		{name: "case insensitive", hints: ContextHints{Referer: "/DesignUser/orders"}, want: department.Design},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveWriteRole("", RoleBody{}, tc.hints)
			if err != nil {
				t.Fatalf("ResolveWriteRole: %v", err)
			}
			if got != tc.want {
				t.Fatalf("role = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveWriteRoleAuthorityFallback(t *testing.T) {
	for _, dept := range department.OperationalStages {
		got, err := ResolveWriteRole(dept, RoleBody{}, ContextHints{})
		if err != nil {
			t.Fatalf("ResolveWriteRole(%s): %v", dept, err)
		}
		if got != dept {
			t.Fatalf("role = %q, want %q", got, dept)
		}
	}
}

func TestResolveWriteRoleUndetermined(t *testing.T) {
	_, err := ResolveWriteRole("", RoleBody{}, ContextHints{Referer: "https://app.example.com/home"})
	if !errors.Is(err, ErrRoleUndetermined) {
		t.Fatalf("err = %v, want ErrRoleUndetermined", err)
	}
}
