package types

import "strings"

// ResourceType names a table of the academic records domain.
type ResourceType string

const (
	ResourceFaculty                ResourceType = "faculty"
	ResourceDepartment             ResourceType = "department"
	ResourceSubject                ResourceType = "subject"
	ResourceStudent                ResourceType = "student"
	ResourceProfessor              ResourceType = "professor"
	ResourceSecretary              ResourceType = "secretary"
	ResourceLibrarian              ResourceType = "librarian"
	ResourceFinanceStaff           ResourceType = "finance_staff"
	ResourceExamOfficer            ResourceType = "exam_officer"
	ResourceBuilding               ResourceType = "building"
	ResourceRoom                   ResourceType = "room"
	ResourceLibrary                ResourceType = "library"
	ResourceBook                   ResourceType = "book"
	ResourceBookLoan               ResourceType = "book_loan"
	ResourceGrade                  ResourceType = "grade"
	ResourceExam                   ResourceType = "exam"
	ResourceSchedule               ResourceType = "schedule"
	ResourceAttendance             ResourceType = "attendance"
	ResourceEnrollment             ResourceType = "enrollment"
	ResourcePayment                ResourceType = "payment"
	ResourceScholarship            ResourceType = "scholarship"
	ResourceScholarshipApplication ResourceType = "scholarship_application"
	ResourceScholarshipOpening     ResourceType = "scholarship_opening"
	ResourceStaffPayment           ResourceType = "staff_payment"
	ResourceExamSubmission         ResourceType = "exam_submission"

	// ResourceUser is the credential row backing every actor. It is not
	// exposed through the permission matrix.
	ResourceUser ResourceType = "user"
)

// AllResources lists every resource type covered by the permission matrix.
func AllResources() []ResourceType {
	return []ResourceType{
		ResourceFaculty,
		ResourceDepartment,
		ResourceSubject,
		ResourceStudent,
		ResourceProfessor,
		ResourceSecretary,
		ResourceLibrarian,
		ResourceFinanceStaff,
		ResourceExamOfficer,
		ResourceBuilding,
		ResourceRoom,
		ResourceLibrary,
		ResourceBook,
		ResourceBookLoan,
		ResourceGrade,
		ResourceExam,
		ResourceSchedule,
		ResourceAttendance,
		ResourceEnrollment,
		ResourcePayment,
		ResourceScholarship,
		ResourceScholarshipApplication,
		ResourceScholarshipOpening,
		ResourceStaffPayment,
		ResourceExamSubmission,
	}
}

// ProfileResources lists the role profile tables. Each profile row owns the
// credential row it references, so removing one removes the other.
func ProfileResources() []ResourceType {
	return []ResourceType{
		ResourceStudent,
		ResourceProfessor,
		ResourceSecretary,
		ResourceLibrarian,
		ResourceFinanceStaff,
		ResourceExamOfficer,
	}
}

// IsProfileResource reports whether resource is a role profile table.
func IsProfileResource(resource ResourceType) bool {
	for _, candidate := range ProfileResources() {
		if candidate == resource {
			return true
		}
	}
	return false
}

var resourceIndex = func() map[ResourceType]struct{} {
	out := make(map[ResourceType]struct{})
	for _, resource := range AllResources() {
		out[resource] = struct{}{}
	}
	return out
}()

// ParseResource validates a resource name.
func ParseResource(raw string) (ResourceType, error) {
	resource := ResourceType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := resourceIndex[resource]; !ok {
		return "", ErrUnknownResource
	}
	return resource, nil
}

// OperationClass groups CRUD operations for permission checks. Write covers
// create and update.
type OperationClass string

const (
	OperationRead   OperationClass = "read"
	OperationWrite  OperationClass = "write"
	OperationDelete OperationClass = "delete"
)

// AllOperations lists the operation classes.
func AllOperations() []OperationClass {
	return []OperationClass{OperationRead, OperationWrite, OperationDelete}
}

// ParseOperation validates an operation class name.
func ParseOperation(raw string) (OperationClass, error) {
	switch op := OperationClass(strings.ToLower(strings.TrimSpace(raw))); op {
	case OperationRead, OperationWrite, OperationDelete:
		return op, nil
	default:
		return "", ErrUnknownOperation
	}
}

// Effect is the outcome of a permission rule.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// PermissionRule maps (role, operation, resource) to an effect.
type PermissionRule struct {
	Role      RoleTag
	Operation OperationClass
	Resource  ResourceType
	Effect    Effect
}

// Relation names used in Record.Refs.
const (
	RefFaculty     = "faculty"
	RefDepartment  = "department"
	RefLibrary     = "library"
	RefBuilding    = "building"
	RefBook        = "book"
	RefStudent     = "student"
	RefSubject     = "subject"
	RefProfessor   = "professor"
	RefStudentUser = "student_user"
	RefUser        = "user"
	RefOpening     = "opening"
	RefExam        = "exam"
	RefRoom        = "room"
)
