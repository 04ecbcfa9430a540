package rbac

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Permission
		wantErr bool
	}{
		{in: "appointments:create", want: Permission{ResourceAppointments, ActionCreate}},
		{in: "billing:read", want: Permission{ResourceBilling, ActionRead}},
		{in: "*:manage", want: Permission{ResourceAll, ActionManage}},
		{in: " Appointments:Create ", want: Permission{ResourceAppointments, ActionCreate}},
		{in: "appointments", wantErr: true},
		{in: "unknown:read", wantErr: true},
		{in: "appointments:fly", wantErr: true},
		{in: "", wantErr: true},
		{in: ":", wantErr: true},
	}

	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseAllDropsMalformed(t *testing.T) {
	perms, malformed := ParseAll([]string{"appointments:read", "bogus", "inventory:fly", "billing:manage"})
	if len(perms) != 2 {
		t.Errorf("expected 2 valid permissions, got %d", len(perms))
	}
	if len(malformed) != 2 {
		t.Errorf("expected 2 malformed entries, got %d", len(malformed))
	}
}

func TestSubsumes(t *testing.T) {
	cases := []struct {
		grant     Permission
		requested Permission
		want      bool
	}{
		// Exact match.
		{Permission{ResourceBilling, ActionRead}, Permission{ResourceBilling, ActionRead}, true},
		{Permission{ResourceBilling, ActionRead}, Permission{ResourceBilling, ActionUpdate}, false},
		{Permission{ResourceBilling, ActionRead}, Permission{ResourceInventory, ActionRead}, false},

		// manage covers every action on its resource.
		{Permission{ResourceBilling, ActionManage}, Permission{ResourceBilling, ActionDelete}, true},
		{Permission{ResourceBilling, ActionManage}, Permission{ResourceInventory, ActionRead}, false},

		// Wildcard resource covers the action everywhere.
		{Permission{ResourceAll, ActionRead}, Permission{ResourceBilling, ActionRead}, true},
		{Permission{ResourceAll, ActionRead}, Permission{ResourceBilling, ActionUpdate}, false},

		// Full wildcard covers everything.
		{Permission{ResourceAll, ActionManage}, Permission{ResourceBilling, ActionDelete}, true},
		{Permission{ResourceAll, ActionManage}, Permission{ResourceRoles, ActionManage}, true},

		// A specific action never implies manage on the wildcard side only.
		{Permission{ResourceBilling, ActionRead}, Permission{ResourceBilling, ActionManage}, false},
	}

	for _, tc := range cases {
		if got := Subsumes(tc.grant, tc.requested); got != tc.want {
			t.Errorf("Subsumes(%v, %v) = %v, want %v", tc.grant, tc.requested, got, tc.want)
		}
	}
}

func TestStaticGrantsClientRole(t *testing.T) {
	grants := StaticGrants("CLIENT")
	check := func(p Permission, want bool) {
		got := false
		for _, g := range grants {
			if Subsumes(g, p) {
				got = true
				break
			}
		}
		if got != want {
			t.Errorf("CLIENT %v: got %v, want %v", p, got, want)
		}
	}

	check(Permission{ResourceAppointments, ActionCreate}, true)
	check(Permission{ResourceAppointments, ActionRead}, true)
	check(Permission{ResourcePatients, ActionRead}, true)
	check(Permission{ResourceBilling, ActionRead}, false)
	check(Permission{ResourceMedicalRecords, ActionRead}, false)
}
