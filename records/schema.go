package records

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-campus-authz/pkg/types"
)

// Table maps a resource type onto its SQL table. Every ref is stored in a
// "<ref>_id" column; attrs are copied verbatim.
type Table struct {
	Resource types.ResourceType
	Name     string
	Refs     []string
	Attrs    []string
}

// RefColumn returns the column holding ref.
func RefColumn(ref string) string {
	return ref + "_id"
}

// Columns lists every column of the table, id first.
func (t Table) Columns() []string {
	cols := make([]string, 0, 1+len(t.Refs)+len(t.Attrs))
	cols = append(cols, "id")
	for _, ref := range t.Refs {
		cols = append(cols, RefColumn(ref))
	}
	return append(cols, t.Attrs...)
}

func (t Table) hasRef(ref string) bool {
	for _, candidate := range t.Refs {
		if candidate == ref {
			return true
		}
	}
	return false
}

// Schema indexes tables by resource type.
type Schema struct {
	tables map[types.ResourceType]Table
}

// NewSchema builds a schema. Later tables replace earlier ones for the same
// resource.
func NewSchema(tables ...Table) *Schema {
	s := &Schema{tables: make(map[types.ResourceType]Table, len(tables))}
	for _, table := range tables {
		s.tables[table.Resource] = table
	}
	return s
}

// Table returns the table of resource.
func (s *Schema) Table(resource types.ResourceType) (Table, error) {
	table, ok := s.tables[resource]
	if !ok {
		return Table{}, fmt.Errorf("records: %w: %s", types.ErrUnknownResource, resource)
	}
	return table, nil
}

// Tables returns the tables ordered by name.
func (s *Schema) Tables() []Table {
	out := make([]Table, 0, len(s.tables))
	for _, table := range s.tables {
		out = append(out, table)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultSchema maps the academic records tables created by the bundled
// migrations.
func DefaultSchema() *Schema {
	return NewSchema(
		Table{Resource: types.ResourceUser, Name: "users", Attrs: []string{"username", "email", "role"}},
		Table{Resource: types.ResourceFaculty, Name: "faculties", Attrs: []string{"name", "code"}},
		Table{Resource: types.ResourceDepartment, Name: "departments", Refs: []string{types.RefFaculty}, Attrs: []string{"name"}},
		Table{
			Resource: types.ResourceSubject,
			Name:     "subjects",
			Refs:     []string{types.RefDepartment, types.RefProfessor},
			Attrs:    []string{"name", "code", "credits"},
		},
		Table{Resource: types.ResourceStudent, Name: "students", Refs: []string{types.RefUser, types.RefFaculty}, Attrs: []string{"student_number"}},
		Table{Resource: types.ResourceProfessor, Name: "professors", Refs: []string{types.RefUser, types.RefFaculty}, Attrs: []string{"title"}},
		Table{Resource: types.ResourceSecretary, Name: "secretaries", Refs: []string{types.RefUser, types.RefFaculty}},
		Table{Resource: types.ResourceLibrarian, Name: "librarians", Refs: []string{types.RefUser, types.RefLibrary}},
		Table{Resource: types.ResourceFinanceStaff, Name: "finance_staff", Refs: []string{types.RefUser}, Attrs: []string{"position"}},
		Table{Resource: types.ResourceExamOfficer, Name: "exam_officers", Refs: []string{types.RefUser}},
		Table{Resource: types.ResourceBuilding, Name: "buildings", Refs: []string{types.RefFaculty}, Attrs: []string{"name"}},
		Table{Resource: types.ResourceRoom, Name: "rooms", Refs: []string{types.RefBuilding}, Attrs: []string{"name", "capacity"}},
		Table{Resource: types.ResourceLibrary, Name: "libraries", Refs: []string{types.RefFaculty}, Attrs: []string{"name"}},
		Table{Resource: types.ResourceBook, Name: "books", Refs: []string{types.RefLibrary}, Attrs: []string{"title", "isbn"}},
		Table{
			Resource: types.ResourceBookLoan,
			Name:     "book_loans",
			Refs:     []string{types.RefBook, types.RefStudent},
			Attrs:    []string{"due_date", "returned"},
		},
		Table{Resource: types.ResourceGrade, Name: "grades", Refs: []string{types.RefStudent, types.RefSubject}, Attrs: []string{"value"}},
		Table{Resource: types.ResourceExam, Name: "exams", Refs: []string{types.RefSubject, types.RefRoom}, Attrs: []string{"scheduled_at"}},
		Table{
			Resource: types.ResourceSchedule,
			Name:     "schedules",
			Refs:     []string{types.RefSubject, types.RefRoom},
			Attrs:    []string{"day_of_week", "starts_at"},
		},
		Table{
			Resource: types.ResourceAttendance,
			Name:     "attendance",
			Refs:     []string{types.RefStudent, types.RefSubject},
			Attrs:    []string{"attended_on", "present"},
		},
		Table{
			Resource: types.ResourceEnrollment,
			Name:     "enrollments",
			Refs:     []string{types.RefStudent, types.RefSubject},
			Attrs:    []string{"academic_year"},
		},
		Table{Resource: types.ResourcePayment, Name: "payments", Refs: []string{types.RefStudent}, Attrs: []string{"amount", "status"}},
		Table{Resource: types.ResourceStaffPayment, Name: "staff_payments", Refs: []string{types.RefUser}, Attrs: []string{"amount", "period"}},
		Table{Resource: types.ResourceScholarshipOpening, Name: "scholarship_openings", Attrs: []string{"title", "deadline"}},
		Table{Resource: types.ResourceScholarship, Name: "scholarships", Refs: []string{types.RefStudentUser}, Attrs: []string{"name", "amount"}},
		Table{
			Resource: types.ResourceScholarshipApplication,
			Name:     "scholarship_applications",
			Refs:     []string{types.RefStudentUser, types.RefOpening},
			Attrs:    []string{"status"},
		},
		Table{
			Resource: types.ResourceExamSubmission,
			Name:     "exam_submissions",
			Refs:     []string{types.RefStudent, types.RefSubject, types.RefExam},
			Attrs:    []string{"submitted_at"},
		},
	)
}
