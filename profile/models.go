package profile

import (
	"time"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRecord models the users row every actor authenticates as.
type UserRecord struct {
	bun.BaseModel `bun:"table:users"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Username  string    `bun:"username,notnull"`
	Email     string    `bun:"email"`
	Role      string    `bun:"role,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero"`
}

// StudentRecord models the students row.
type StudentRecord struct {
	bun.BaseModel `bun:"table:students"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	UserID        uuid.UUID `bun:"user_id,type:uuid,nullzero"`
	StudentNumber string    `bun:"student_number"`
	FacultyID     uuid.UUID `bun:"faculty_id,type:uuid,nullzero"`
}

// ProfessorRecord models the professors row.
type ProfessorRecord struct {
	bun.BaseModel `bun:"table:professors"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,nullzero"`
	Title     string    `bun:"title"`
	FacultyID uuid.UUID `bun:"faculty_id,type:uuid,nullzero"`
}

// SecretaryRecord models the secretaries row.
type SecretaryRecord struct {
	bun.BaseModel `bun:"table:secretaries"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,nullzero"`
	FacultyID uuid.UUID `bun:"faculty_id,type:uuid,nullzero"`
}

// LibrarianRecord models the librarians row. Librarians reach their faculty
// through the library they work at.
type LibrarianRecord struct {
	bun.BaseModel `bun:"table:librarians"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,nullzero"`
	LibraryID uuid.UUID `bun:"library_id,type:uuid,nullzero"`
}

func (r *UserRecord) identity() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.ID
}

func (r *UserRecord) setIdentity(id uuid.UUID) {
	if r != nil {
		r.ID = id
	}
}

func (r *StudentRecord) identity() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.ID
}

func (r *StudentRecord) setIdentity(id uuid.UUID) {
	if r != nil {
		r.ID = id
	}
}

func (r *StudentRecord) profile() types.ProfileRecord {
	return types.ProfileRecord{
		ID:      r.ID,
		ActorID: r.UserID,
		Refs:    refs(types.RefUser, r.UserID, types.RefFaculty, r.FacultyID),
	}
}

func (r *ProfessorRecord) identity() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.ID
}

func (r *ProfessorRecord) setIdentity(id uuid.UUID) {
	if r != nil {
		r.ID = id
	}
}

func (r *ProfessorRecord) profile() types.ProfileRecord {
	return types.ProfileRecord{
		ID:      r.ID,
		ActorID: r.UserID,
		Refs:    refs(types.RefUser, r.UserID, types.RefFaculty, r.FacultyID),
	}
}

func (r *SecretaryRecord) identity() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.ID
}

func (r *SecretaryRecord) setIdentity(id uuid.UUID) {
	if r != nil {
		r.ID = id
	}
}

func (r *SecretaryRecord) profile() types.ProfileRecord {
	return types.ProfileRecord{
		ID:      r.ID,
		ActorID: r.UserID,
		Refs:    refs(types.RefUser, r.UserID, types.RefFaculty, r.FacultyID),
	}
}

func (r *LibrarianRecord) identity() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.ID
}

func (r *LibrarianRecord) setIdentity(id uuid.UUID) {
	if r != nil {
		r.ID = id
	}
}

func (r *LibrarianRecord) profile() types.ProfileRecord {
	return types.ProfileRecord{
		ID:      r.ID,
		ActorID: r.UserID,
		Refs:    refs(types.RefUser, r.UserID, types.RefLibrary, r.LibraryID),
	}
}

// refs builds a relation map from name/id pairs, skipping null relations.
func refs(pairs ...any) map[string]uuid.UUID {
	out := make(map[string]uuid.UUID, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		id, _ := pairs[i+1].(uuid.UUID)
		if name == "" || id == uuid.Nil {
			continue
		}
		out[name] = id
	}
	return out
}
