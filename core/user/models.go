package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/darasahq/darasa/core"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
	RoleParent     = "parent"
)

var (
	AllRoles = []string{RoleAdmin, RoleInstructor, RoleStudent, RoleParent}

	roleHomes = map[string]string{
		RoleAdmin:      "/dashboard",
		RoleInstructor: "/instructor-dashboard",
		RoleStudent:    "/student-dashboard",
	}
)

// RoleHome returns the default screen a freshly logged-in user of the given
// role lands on. Unknown roles fall back to the admin dashboard.
func RoleHome(role string) string {
	if home, ok := roleHomes[role]; ok {
		return home
	}
	return "/dashboard"
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsStudent() bool    { return u.Role == RoleStudent }

func (u *User) Home() string { return RoleHome(u.Role) }

// Login contains the credentials exchanged for a session.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (l *Login) Validate() error {
	l.Email = core.CleanString(l.Email, true /* lower */)
	return core.Validate.Struct(l)
}

// Register contains information needed to sign up a brand new account.
type Register struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	AcceptTerms     bool   `json:"accept_terms" validate:"accepted"`
}

func (r *Register) Validate() error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}

// InviteRegistration contains the invitation token plus the new account fields.
type InviteRegistration struct {
	Token           string `json:"token" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	AcceptTerms     bool   `json:"accept_terms" validate:"accepted"`
}

func (ir *InviteRegistration) Validate() error {
	ir.Token = core.CleanString(ir.Token)
	ir.Name = core.CleanString(ir.Name)
	return core.Validate.Struct(ir)
}

// Invite is a pending invitation to join a school with a preassigned role.
type Invite struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// NewInvite contains information needed to issue an Invite.
type NewInvite struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,role"`
}

func (ni *NewInvite) Validate() error {
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	ni.Role = core.CleanString(ni.Role, true /* lower */)
	return core.Validate.Struct(ni)
}
