package engine

import (
	"context"
	"testing"

	memdomain "clubqueue/backend/internal/membership/domain"
	"clubqueue/backend/internal/platform/rbac"
	policydomain "clubqueue/backend/internal/policy/domain"
	userdomain "clubqueue/backend/internal/user/domain"
)

type fakePolicyRepo struct {
	policies map[string][]*policydomain.Policy // keyed by org ID
}

func (f *fakePolicyRepo) GetByID(_ context.Context, id string) (*policydomain.Policy, error) {
	for _, ps := range f.policies {
		for _, p := range ps {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return nil, nil
}

func (f *fakePolicyRepo) ListEnabledByOrg(_ context.Context, orgID string) ([]*policydomain.Policy, error) {
	return f.policies[orgID], nil
}

func (f *fakePolicyRepo) Create(_ context.Context, p *policydomain.Policy) error {
	f.policies[p.OrgID] = append(f.policies[p.OrgID], p)
	return nil
}

func (f *fakePolicyRepo) Update(_ context.Context, _ *policydomain.Policy) error { return nil }

func TestHealthCheck(t *testing.T) {
	e := NewOPAEvaluator(nil)
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

// The default policy must reproduce the built-in table so that orgs with no
// custom policies get identical decisions from either path.
func TestDefaultPolicyMatchesBuiltinTable(t *testing.T) {
	e := NewOPAEvaluator(nil)
	ctx := context.Background()

	callers := map[string]rbac.Caller{
		"member":    {UserID: "u", GlobalRole: userdomain.RoleUser, MembershipRole: memdomain.RoleMember},
		"officer":   {UserID: "u", GlobalRole: userdomain.RoleOfficer, MembershipRole: memdomain.RoleOfficer},
		"owner":     {UserID: "u", GlobalRole: userdomain.RoleUser, IsOrgSuperuser: true},
		"admin":     {UserID: "u", GlobalRole: userdomain.RoleAdmin},
		"superuser": {UserID: "u", GlobalRole: userdomain.RoleSuperuser},
		"outsider":  {UserID: "u", GlobalRole: userdomain.RoleUser},
	}
	ops := []rbac.Operation{
		rbac.OpOrgRead, rbac.OpOrgSettingsUpdate, rbac.OpOrgKeyRotate, rbac.OpOrgDelete,
		rbac.OpQueueRead, rbac.OpQueueUpdate,
		rbac.OpMemberList, rbac.OpMemberAdd, rbac.OpMemberRemove, rbac.OpMemberRoleChange,
	}

	for name, c := range callers {
		for _, op := range ops {
			got, err := e.Authorize(ctx, "org-1", op, c)
			if err != nil {
				t.Fatalf("Authorize(%s, %s): %v", name, op, err)
			}
			if want := rbac.Decide(op, c); got != want {
				t.Errorf("Authorize(%s, %s) = %v, builtin table says %v", name, op, got, want)
			}
		}
	}
}

func TestCustomOrgPolicy(t *testing.T) {
	// An org policy that lets plain members manage the queue.
	repo := &fakePolicyRepo{policies: map[string][]*policydomain.Policy{
		"org-1": {{
			ID: "p-1", OrgID: "org-1", Enabled: true,
			Rules: `package clubqueue.org_access

default allow = false

allow if {
	input.operation == "queue.update"
	input.caller.membership_role != ""
}
`,
		}},
	}}
	e := NewOPAEvaluator(repo)
	ctx := context.Background()
	member := rbac.Caller{UserID: "u", GlobalRole: userdomain.RoleUser, MembershipRole: memdomain.RoleMember}

	ok, err := e.Authorize(ctx, "org-1", rbac.OpQueueUpdate, member)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !ok {
		t.Error("custom policy should grant queue.update to members")
	}

	// The custom policy replaces the default one entirely: everything it does
	// not grant is denied, even for callers the default table would allow.
	officer := rbac.Caller{UserID: "u", GlobalRole: userdomain.RoleOfficer, MembershipRole: memdomain.RoleOfficer}
	ok, err = e.Authorize(ctx, "org-1", rbac.OpMemberAdd, officer)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if ok {
		t.Error("custom policy grants only queue.update")
	}

	// Orgs without a custom policy still get the default.
	ok, err = e.Authorize(ctx, "org-2", rbac.OpMemberAdd, officer)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !ok {
		t.Error("default policy should grant membership.add to officers")
	}
}

func TestBrokenPolicyReturnsError(t *testing.T) {
	repo := &fakePolicyRepo{policies: map[string][]*policydomain.Policy{
		"org-1": {{ID: "p-1", OrgID: "org-1", Enabled: true, Rules: "package clubqueue.org_access\n\nallow if {"}},
	}}
	e := NewOPAEvaluator(repo)

	member := rbac.Caller{UserID: "u", GlobalRole: userdomain.RoleUser, MembershipRole: memdomain.RoleMember}
	if _, err := e.Authorize(context.Background(), "org-1", rbac.OpOrgRead, member); err == nil {
		t.Error("a policy that fails to compile must surface an error so the gate can fall back")
	}
}
