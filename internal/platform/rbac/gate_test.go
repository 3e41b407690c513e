package rbac

import (
	"context"
	"errors"
	"testing"

	"clubqueue/backend/internal/apperrors"
	membershipdomain "clubqueue/backend/internal/membership/domain"
	userdomain "clubqueue/backend/internal/user/domain"
)

func TestDecide(t *testing.T) {
	member := Caller{UserID: "u", GlobalRole: userdomain.RoleUser, MembershipRole: membershipdomain.RoleMember}
	officer := Caller{UserID: "u", GlobalRole: userdomain.RoleOfficer, MembershipRole: membershipdomain.RoleOfficer}
	owner := Caller{UserID: "u", GlobalRole: userdomain.RoleSuperuser, IsOrgSuperuser: true}
	orgOwnerOnly := Caller{UserID: "u", GlobalRole: userdomain.RoleUser, IsOrgSuperuser: true}
	admin := Caller{UserID: "u", GlobalRole: userdomain.RoleAdmin}
	outsider := Caller{UserID: "u", GlobalRole: userdomain.RoleUser}
	guest := Caller{UserID: "u", GlobalRole: userdomain.RoleGuest}

	testCases := []struct {
		name   string
		op     Operation
		caller Caller
		want   bool
	}{
		{"member reads org", OpOrgRead, member, true},
		{"member reads queue", OpQueueRead, member, true},
		{"member lists members", OpMemberList, member, true},
		{"member cannot update settings", OpOrgSettingsUpdate, member, false},
		{"member cannot update queue", OpQueueUpdate, member, false},
		{"member cannot add members", OpMemberAdd, member, false},
		{"member cannot rotate key", OpOrgKeyRotate, member, false},
		{"member cannot delete org", OpOrgDelete, member, false},

		{"officer reads org", OpOrgRead, officer, true},
		{"officer updates settings", OpOrgSettingsUpdate, officer, true},
		{"officer updates queue", OpQueueUpdate, officer, true},
		{"officer adds members", OpMemberAdd, officer, true},
		{"officer removes members", OpMemberRemove, officer, true},
		{"officer changes roles", OpMemberRoleChange, officer, true},
		{"officer cannot rotate key", OpOrgKeyRotate, officer, false},
		{"officer cannot delete org", OpOrgDelete, officer, false},

		{"owner rotates key", OpOrgKeyRotate, owner, true},
		{"owner deletes org", OpOrgDelete, owner, true},
		{"org owner without global role rotates key", OpOrgKeyRotate, orgOwnerOnly, true},
		{"org owner without global role deletes org", OpOrgDelete, orgOwnerOnly, true},

		{"admin bypasses everything", OpOrgDelete, admin, true},
		{"admin rotates key", OpOrgKeyRotate, admin, true},
		{"admin adds members", OpMemberAdd, admin, true},

		{"outsider cannot read", OpOrgRead, outsider, false},
		{"outsider cannot list", OpMemberList, outsider, false},
		{"guest cannot read", OpOrgRead, guest, false},

		{"unknown op denied", Operation("org.transfer"), officer, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.op, tc.caller); got != tc.want {
				t.Errorf("Decide(%s, %+v) = %v, want %v", tc.op, tc.caller, got, tc.want)
			}
		})
	}
}

type stubEvaluator struct {
	allow bool
	err   error
	calls int
}

func (s *stubEvaluator) Authorize(_ context.Context, _ string, _ Operation, _ Caller) (bool, error) {
	s.calls++
	return s.allow, s.err
}

func TestGateEvaluatorWins(t *testing.T) {
	// The policy may deny what the table allows.
	eval := &stubEvaluator{allow: false}
	gate := NewGate(eval)
	officer := Caller{UserID: "u", GlobalRole: userdomain.RoleOfficer, MembershipRole: membershipdomain.RoleOfficer}

	if gate.Allowed(context.Background(), "org-1", OpMemberAdd, officer) {
		t.Error("evaluator denial should override the built-in table")
	}

	// And allow what the table denies.
	eval.allow = true
	member := Caller{UserID: "u", GlobalRole: userdomain.RoleUser, MembershipRole: membershipdomain.RoleMember}
	if !gate.Allowed(context.Background(), "org-1", OpMemberAdd, member) {
		t.Error("evaluator grant should override the built-in table")
	}
}

func TestGateFallsBackOnEvaluatorError(t *testing.T) {
	eval := &stubEvaluator{allow: false, err: errors.New("rego compile failed")}
	gate := NewGate(eval)
	officer := Caller{UserID: "u", GlobalRole: userdomain.RoleOfficer, MembershipRole: membershipdomain.RoleOfficer}

	if !gate.Allowed(context.Background(), "org-1", OpMemberAdd, officer) {
		t.Error("a broken policy must fall back to the built-in table")
	}
	if eval.calls != 1 {
		t.Errorf("evaluator calls = %d, want 1", eval.calls)
	}
}

func TestGateNilEvaluator(t *testing.T) {
	gate := NewGate(nil)
	admin := Caller{UserID: "u", GlobalRole: userdomain.RoleAdmin}
	if !gate.Allowed(context.Background(), "org-1", OpOrgDelete, admin) {
		t.Error("nil evaluator should use the built-in table")
	}
}

func TestRequire(t *testing.T) {
	gate := NewGate(nil)
	member := Caller{UserID: "u", GlobalRole: userdomain.RoleUser, MembershipRole: membershipdomain.RoleMember}

	if err := gate.Require(context.Background(), "org-1", OpOrgRead, member); err != nil {
		t.Errorf("allowed op: err = %v", err)
	}
	err := gate.Require(context.Background(), "org-1", OpOrgDelete, member)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}
