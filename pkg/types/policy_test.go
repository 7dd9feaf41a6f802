package types

import "testing"

func TestStaticTransitionPolicyValidate(t *testing.T) {
	policy := DefaultTransitionPolicy()

	if err := policy.Validate(DecisionUnresolved, DecisionResolved); err != nil {
		t.Fatalf("expected unresolved->resolved to be allowed: %v", err)
	}

	if err := policy.Validate(DecisionResolved, DecisionScoped); err != nil {
		t.Fatalf("expected resolved->scoped allowed: %v", err)
	}

	if err := policy.Validate(DecisionUnresolved, DecisionScoped); err == nil {
		t.Fatalf("expected unresolved->scoped to be rejected")
	}

	if err := policy.Validate(DecisionDenied, DecisionResolved); err == nil {
		t.Fatalf("expected denied to be terminal")
	}
}

func TestStaticTransitionPolicyAllowedTargets(t *testing.T) {
	policy := DefaultTransitionPolicy()
	targets := policy.AllowedTargets(DecisionResolved)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets for resolved, got %d", len(targets))
	}
	if len(policy.AllowedTargets(DecisionScoped)) != 0 {
		t.Fatalf("expected scoped to be terminal")
	}
}

func TestNormalizeRoleAliases(t *testing.T) {
	cases := map[string]RoleTag{
		"exam":          RoleExamOfficer,
		"Exam_Officer":  RoleExamOfficer,
		" exam-officer": RoleExamOfficer,
		"SECRETARY":     RoleSecretary,
	}
	for raw, want := range cases {
		got, _ := NormalizeRole(raw)
		if got != want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, aliased := NormalizeRole("admin"); aliased {
		t.Fatalf("expected admin to be canonical")
	}
}

func TestRecordWithRefDoesNotMutateOriginal(t *testing.T) {
	original := Record{Type: ResourceRoom}
	updated := original.WithRef("building", UUIDGenerator{}.UUID())
	if original.Refs != nil {
		t.Fatalf("expected original refs untouched")
	}
	if updated.Ref("building") == [16]byte{} {
		t.Fatalf("expected building ref set")
	}
}
