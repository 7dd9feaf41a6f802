package scope

import (
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
)

// OwnerMatch selects the identity value an owner path is compared against.
type OwnerMatch string

const (
	// MatchProfile compares against the actor's profile ID.
	MatchProfile OwnerMatch = "profile"
	// MatchActor compares against the actor (credential) ID.
	MatchActor OwnerMatch = "actor"
)

// OwnerBinding narrows a scoped role to rows it owns.
type OwnerBinding struct {
	Role  types.RoleTag
	Path  Path
	Match OwnerMatch
}

func (b OwnerBinding) expected(identity types.ResolvedIdentity) uuid.UUID {
	if b.Match == MatchActor {
		return identity.Actor.ID
	}
	return identity.ProfileID
}

// StampSource selects the identity value written into a created row.
type StampSource string

const (
	StampUnit    StampSource = "unit"
	StampProfile StampSource = "profile"
	StampActor   StampSource = "actor"
)

// Stamp forces Ref on created rows to a value taken from the creator. Roles
// limits the stamp to some creators; empty means every scoped creator.
type Stamp struct {
	Ref    string
	Source StampSource
	Roles  []types.RoleTag
}

// AppliesTo reports whether the stamp binds rows created by role.
func (s Stamp) AppliesTo(role types.RoleTag) bool {
	if len(s.Roles) == 0 {
		return true
	}
	for _, candidate := range s.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// Value returns the identifier to stamp, or uuid.Nil when the identity has
// none.
func (s Stamp) Value(identity types.ResolvedIdentity) uuid.UUID {
	switch s.Source {
	case StampUnit:
		return identity.Unit
	case StampProfile:
		return identity.ProfileID
	case StampActor:
		return identity.Actor.ID
	default:
		return uuid.Nil
	}
}

// Catalog describes how each resource type relates to units and owners. It is
// read-only after construction.
type Catalog struct {
	units  map[types.ResourceType]Path
	owners map[types.ResourceType][]OwnerBinding
	stamps map[types.ResourceType][]Stamp
	unique map[types.ResourceType][][]string
}

// CatalogConfig lists the declarations of a catalog.
type CatalogConfig struct {
	Units  map[types.ResourceType]Path
	Owners map[types.ResourceType][]OwnerBinding
	Stamps map[types.ResourceType][]Stamp
	// Unique lists ref tuples that may appear on at most one row.
	Unique map[types.ResourceType][][]string
}

// NewCatalog copies the declarations into an immutable catalog.
func NewCatalog(cfg CatalogConfig) *Catalog {
	c := &Catalog{
		units:  make(map[types.ResourceType]Path, len(cfg.Units)),
		owners: make(map[types.ResourceType][]OwnerBinding, len(cfg.Owners)),
		stamps: make(map[types.ResourceType][]Stamp, len(cfg.Stamps)),
		unique: make(map[types.ResourceType][][]string, len(cfg.Unique)),
	}
	for resource, path := range cfg.Units {
		c.units[resource] = append(Path{}, path...)
	}
	for resource, bindings := range cfg.Owners {
		c.owners[resource] = append([]OwnerBinding(nil), bindings...)
	}
	for resource, stamps := range cfg.Stamps {
		c.stamps[resource] = append([]Stamp(nil), stamps...)
	}
	for resource, tuples := range cfg.Unique {
		for _, refs := range tuples {
			c.unique[resource] = append(c.unique[resource], append([]string(nil), refs...))
		}
	}
	return c
}

// UnitPath returns the unit path of resource. ok is false for unscoped types.
func (c *Catalog) UnitPath(resource types.ResourceType) (Path, bool) {
	path, ok := c.units[resource]
	return path, ok
}

// Owners returns the owner bindings of resource that apply to role.
func (c *Catalog) Owners(resource types.ResourceType, role types.RoleTag) []OwnerBinding {
	out := make([]OwnerBinding, 0)
	for _, binding := range c.owners[resource] {
		if binding.Role == role {
			out = append(out, binding)
		}
	}
	return out
}

// Stamps returns the create stamps of resource.
func (c *Catalog) Stamps(resource types.ResourceType) []Stamp {
	return append([]Stamp(nil), c.stamps[resource]...)
}

// UniqueRefs returns the ref tuples a new row of resource must not share with
// an existing one.
func (c *Catalog) UniqueRefs(resource types.ResourceType) [][]string {
	out := make([][]string, 0, len(c.unique[resource]))
	for _, refs := range c.unique[resource] {
		out = append(out, append([]string(nil), refs...))
	}
	return out
}

func hop(ref string, target types.ResourceType) Hop {
	return Hop{Ref: ref, Target: target}
}

// DefaultCatalog describes the academic records domain.
func DefaultCatalog() *Catalog {
	toFaculty := hop(types.RefFaculty, types.ResourceFaculty)
	viaStudent := Path{hop(types.RefStudent, types.ResourceStudent), toFaculty}
	viaSubject := Path{
		hop(types.RefSubject, types.ResourceSubject),
		hop(types.RefDepartment, types.ResourceDepartment),
		toFaculty,
	}
	viaLibrary := Path{hop(types.RefLibrary, types.ResourceLibrary), toFaculty}

	ownStudent := Path{hop(types.RefStudent, types.ResourceStudent)}
	subjectProfessor := Path{
		hop(types.RefSubject, types.ResourceSubject),
		hop(types.RefProfessor, types.ResourceProfessor),
	}

	return NewCatalog(CatalogConfig{
		Units: map[types.ResourceType]Path{
			types.ResourceFaculty:    {},
			types.ResourceDepartment: {toFaculty},
			types.ResourceStudent:    {toFaculty},
			types.ResourceProfessor:  {toFaculty},
			types.ResourceSecretary:  {toFaculty},
			types.ResourceLibrary:    {toFaculty},
			types.ResourceBuilding:   {toFaculty},
			types.ResourceSubject: {
				hop(types.RefDepartment, types.ResourceDepartment),
				toFaculty,
			},
			types.ResourceLibrarian: viaLibrary,
			types.ResourceBook:      viaLibrary,
			types.ResourceBookLoan: {
				hop(types.RefBook, types.ResourceBook),
				hop(types.RefLibrary, types.ResourceLibrary),
				toFaculty,
			},
			types.ResourceRoom: {
				hop(types.RefBuilding, types.ResourceBuilding),
				toFaculty,
			},
			types.ResourcePayment:        viaStudent,
			types.ResourceGrade:          viaStudent,
			types.ResourceEnrollment:     viaStudent,
			types.ResourceAttendance:     viaStudent,
			types.ResourceExamSubmission: viaStudent,
			types.ResourceExam:           viaSubject,
			types.ResourceSchedule:       viaSubject,
		},
		Owners: map[types.ResourceType][]OwnerBinding{
			types.ResourceStudent:   {{Role: types.RoleStudent, Match: MatchProfile}},
			types.ResourceProfessor: {{Role: types.RoleProfessor, Match: MatchProfile}},
			types.ResourceSecretary: {{Role: types.RoleSecretary, Match: MatchProfile}},
			types.ResourceLibrarian: {{Role: types.RoleLibrarian, Match: MatchProfile}},
			types.ResourceGrade:     {{Role: types.RoleStudent, Path: ownStudent, Match: MatchProfile}},
			types.ResourceEnrollment: {
				{Role: types.RoleStudent, Path: ownStudent, Match: MatchProfile},
			},
			types.ResourcePayment: {{Role: types.RoleStudent, Path: ownStudent, Match: MatchProfile}},
			types.ResourceAttendance: {
				{Role: types.RoleStudent, Path: ownStudent, Match: MatchProfile},
				{Role: types.RoleProfessor, Path: subjectProfessor, Match: MatchProfile},
			},
			types.ResourceExamSubmission: {
				{Role: types.RoleStudent, Path: ownStudent, Match: MatchProfile},
				{Role: types.RoleProfessor, Path: subjectProfessor, Match: MatchProfile},
			},
			types.ResourceSubject: {
				{Role: types.RoleProfessor, Path: Path{hop(types.RefProfessor, types.ResourceProfessor)}, Match: MatchProfile},
			},
			types.ResourceScholarship: {
				{Role: types.RoleStudent, Path: Path{hop(types.RefStudentUser, types.ResourceUser)}, Match: MatchActor},
			},
			types.ResourceScholarshipApplication: {
				{Role: types.RoleStudent, Path: Path{hop(types.RefStudentUser, types.ResourceUser)}, Match: MatchActor},
			},
		},
		Stamps: map[types.ResourceType][]Stamp{
			types.ResourceBuilding:   {{Ref: types.RefFaculty, Source: StampUnit}},
			types.ResourceDepartment: {{Ref: types.RefFaculty, Source: StampUnit}},
			types.ResourceLibrary:    {{Ref: types.RefFaculty, Source: StampUnit}},
			types.ResourceEnrollment: {
				{Ref: types.RefStudent, Source: StampProfile, Roles: []types.RoleTag{types.RoleStudent}},
			},
			types.ResourceExamSubmission: {
				{Ref: types.RefStudent, Source: StampProfile, Roles: []types.RoleTag{types.RoleStudent}},
			},
			types.ResourceScholarshipApplication: {
				{Ref: types.RefStudentUser, Source: StampActor, Roles: []types.RoleTag{types.RoleStudent}},
			},
		},
		Unique: map[types.ResourceType][][]string{
			types.ResourceExamSubmission:         {{types.RefStudent, types.RefSubject}},
			types.ResourceScholarshipApplication: {{types.RefStudentUser, types.RefOpening}},
		},
	})
}
