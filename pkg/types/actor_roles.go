package types

import "strings"

// RoleTag is one of the closed set of role tags.
type RoleTag string

const (
	// RoleAdmin sees and manages every row.
	RoleAdmin RoleTag = "admin"
	// RoleStudent is scoped to the faculty of its student profile.
	RoleStudent RoleTag = "student"
	// RoleProfessor is scoped to the faculty of its professor profile.
	RoleProfessor RoleTag = "professor"
	// RoleSecretary is scoped to the faculty of its secretary profile.
	RoleSecretary RoleTag = "secretary"
	// RoleFinance sees every row of the resources it is granted.
	RoleFinance RoleTag = "finance"
	// RoleLibrarian is scoped to the faculty owning its library.
	RoleLibrarian RoleTag = "librarian"
	// RoleExamOfficer sees every row of the resources it is granted.
	RoleExamOfficer RoleTag = "exam-officer"
	// RoleLibrary is a catch-all universal tag distinct from librarian.
	RoleLibrary RoleTag = "library"
)

// roleAliases maps stored tags that differ from the canonical ones.
var roleAliases = map[string]RoleTag{
	"exam":         RoleExamOfficer,
	"exam_officer": RoleExamOfficer,
	"examofficer":  RoleExamOfficer,
}

// AllRoles lists the canonical role tags in a stable order.
func AllRoles() []RoleTag {
	return []RoleTag{
		RoleAdmin,
		RoleStudent,
		RoleProfessor,
		RoleSecretary,
		RoleFinance,
		RoleLibrarian,
		RoleExamOfficer,
		RoleLibrary,
	}
}

// NormalizeRole maps a raw tag to its canonical form. The second value
// reports whether an alias was applied.
func NormalizeRole(raw string) (RoleTag, bool) {
	role := normalizeRole(raw)
	if alias, ok := roleAliases[role]; ok {
		return alias, true
	}
	return RoleTag(role), false
}

// RoleName normalizes the actor role for comparisons.
func (a ActorRef) RoleName() RoleTag {
	role, _ := NormalizeRole(a.Role)
	return role
}

// IsRole reports whether the actor matches the provided role.
func (a ActorRef) IsRole(role RoleTag) bool {
	normalized, _ := NormalizeRole(string(role))
	return a.RoleName() == normalized
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
