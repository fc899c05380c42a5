// Package types defines the shared domain model, error taxonomy, and
// messaging envelopes for the zoo platform. Entities map 1:1 to the
// relational schema (tables areas, species, animals, users, comments);
// JSON tags use the column names the public API has always exposed.
package types

import "time"

// UserRole enumerates the access levels recognized by the API.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEmpleado UserRole = "EMPLEADO"
	RoleUsuario  UserRole = "USUARIO"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmpleado, RoleUsuario:
		return true
	}
	return false
}

// User is an account that can authenticate and own animals.
// PasswordHash is never serialized.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
}

// Zone is a physical area of the zoo (table "areas"). Species belong to
// exactly one zone.
type Zone struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// Species groups animals and belongs to a zone.
type Species struct {
	ID     string `json:"id"`
	Name   string `json:"nombre"`
	ZoneID string `json:"id_area"`
}

// Animal belongs to a species and has an owning user. The owner is the
// recipient of the daily comment report for this animal.
type Animal struct {
	ID        string    `json:"id"`
	Name      string    `json:"nombre"`
	SpeciesID string    `json:"id_especie"`
	OwnerID   string    `json:"id_user"`
	CreatedAt time.Time `json:"fecha"`
}

// Comment is a remark on an animal. A nil ParentID marks a top-level
// comment; replies reference their parent through ParentID.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"comentario"`
	AnimalID  string    `json:"id_animal"`
	AuthorID  string    `json:"id_user"`
	ParentID  *string   `json:"id_comentario_principal,omitempty"`
	CreatedAt time.Time `json:"fecha"`
}

// IsReply reports whether the comment references a parent comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}
