package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"clubqueue/backend/internal/platform/rbac"
	policyrepo "clubqueue/backend/internal/policy/repository"
)

const allowQuery = "data.clubqueue.org_access.allow"

// Default Rego policy reproducing the built-in rbac table, so an org with no
// custom policies gets identical decisions from either path.
const defaultRegoPolicy = `package clubqueue.org_access

default allow = false

allow if {
	input.caller.global_role == "admin"
}

allow if {
	input.caller.global_role == "superuser"
}

allow if {
	input.caller.is_org_superuser
}

allow if {
	read_ops[input.operation]
	input.caller.membership_role != ""
}

allow if {
	manage_ops[input.operation]
	input.caller.membership_role == "officer"
}

read_ops := {"org.read", "queue.read", "membership.list"}

manage_ops := {"org.settings.update", "queue.update", "membership.add", "membership.remove", "membership.role.change"}
`

// OPAEvaluator evaluates org access policies using OPA Rego. Per-org enabled
// policies from the policy repository are compiled alongside nothing else;
// when an org has none, the default policy is used.
type OPAEvaluator struct {
	policyRepo policyrepo.Repository
}

// NewOPAEvaluator returns an OPA-based access policy evaluator. policyRepo
// may be nil; then only the default policy is ever evaluated.
func NewOPAEvaluator(policyRepo policyrepo.Repository) *OPAEvaluator {
	return &OPAEvaluator{policyRepo: policyRepo}
}

// HealthCheck verifies that the in-process Rego engine can compile and
// evaluate the default policy. Does not touch the policy repo or database.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	input := buildInput(rbac.OpOrgRead, rbac.Caller{})
	_, err := evalAllow(ctx, map[string]string{"policy_0.rego": defaultRegoPolicy}, input)
	if err != nil {
		return fmt.Errorf("default policy: %w", err)
	}
	return nil
}

// Authorize evaluates the org's access policy for the operation and caller.
// Returns an error when policies fail to compile or evaluate; the rbac gate
// falls back to its built-in table in that case.
func (e *OPAEvaluator) Authorize(ctx context.Context, orgID string, op rbac.Operation, c rbac.Caller) (bool, error) {
	modules := map[string]string{}
	if e.policyRepo != nil && orgID != "" {
		policies, err := e.policyRepo.ListEnabledByOrg(ctx, orgID)
		if err != nil {
			log.Printf("authz: failed to load policies for org %s: %v", orgID, err)
		} else {
			for i, p := range policies {
				if p.Rules != "" {
					modules[fmt.Sprintf("policy_%d.rego", i)] = p.Rules
				}
			}
		}
	}
	if len(modules) == 0 {
		modules["policy_0.rego"] = defaultRegoPolicy
	}
	return evalAllow(ctx, modules, buildInput(op, c))
}

func buildInput(op rbac.Operation, c rbac.Caller) map[string]interface{} {
	return map[string]interface{}{
		"operation": string(op),
		"caller": map[string]interface{}{
			"user_id":          c.UserID,
			"global_role":      string(c.GlobalRole),
			"membership_role":  string(c.MembershipRole),
			"is_org_superuser": c.IsOrgSuperuser,
		},
	}
}

func evalAllow(ctx context.Context, modules map[string]string, input map[string]interface{}) (bool, error) {
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return false, fmt.Errorf("compile policies: %w", err)
	}
	q := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval policies: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("policy query returned no result")
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy allow is not a boolean")
	}
	return v, nil
}
