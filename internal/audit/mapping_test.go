package audit

import "testing"

func TestParseFullMethod(t *testing.T) {
	testCases := []struct {
		in       string
		action   string
		resource string
	}{
		{"/clubqueue.membership.v1.MembershipService/AddMember", "membership.add_member", "membership"},
		{"/clubqueue.organization.v1.OrganizationService/RotateKey", "organization.rotate_key", "organization"},
		{"/clubqueue.queue.v1.QueueService/SetOpenToOutside", "queue.set_open_to_outside", "queue"},
		{"/clubqueue.user.v1.UserService/Login", "user.login", "user"},
		{"/grpc.health.v1.Health/Check", "health.check", "health"},
		{"NoSlash", "NoSlash", "NoSlash"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParseFullMethod(tc.in)
			if got.Action != tc.action || got.Resource != tc.resource {
				t.Errorf("ParseFullMethod(%q) = %+v, want {%s %s}", tc.in, got, tc.action, tc.resource)
			}
		})
	}
}

func TestToSnake(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"AddMember", "add_member"},
		{"Login", "login"},
		{"SetOpenToOutside", "set_open_to_outside"},
		{"list", "list"},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := toSnake(tc.in); got != tc.want {
			t.Errorf("toSnake(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
