package team

import "testing"

func TestRoleForName(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{in: "superuser", want: RoleAdmin},
		{in: " SuperUser ", want: RoleAdmin},
		{in: "test", want: RoleSeed},
		{in: "TEST", want: RoleSeed},
		{in: "red team", want: RoleStandard},
		{in: "superusers", want: RoleStandard},
	}

	for _, tt := range tests {
		if got := RoleForName(tt.in); got != tt.want {
			t.Fatalf("RoleForName(%q)=%s want=%s", tt.in, got, tt.want)
		}
	}
}

func TestTeamValidate(t *testing.T) {
	valid := Team{Name: "blue", EventID: "evt-1", Role: RoleStandard}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid team, got %v", err)
	}

	cases := map[string]Team{
		"missing name":  {EventID: "evt-1", Role: RoleStandard},
		"missing event": {Name: "blue", Role: RoleStandard},
		"bad role":      {Name: "blue", EventID: "evt-1", Role: "owner"},
	}
	for name, item := range cases {
		if err := item.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
