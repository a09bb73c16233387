package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// ParseRole maps stored values onto the closed role set. Anything that is
// not explicitly admin, including an absent field, is a standard user.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleStandard
}

type UserStatus string

const (
	StatusActive  UserStatus = "active"
	StatusBlocked UserStatus = "blocked"
)

func ParseUserStatus(s string) UserStatus {
	if UserStatus(s) == StatusBlocked {
		return StatusBlocked
	}
	return StatusActive
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email      string             `bson:"email" json:"email"`
	Name       string             `bson:"name" json:"name"`
	Avatar     string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	BloodGroup string             `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	District   string             `bson:"district,omitempty" json:"district,omitempty"`
	Upazila    string             `bson:"upazila,omitempty" json:"upazila,omitempty"`
	Role       Role               `bson:"role" json:"role"`
	Status     UserStatus         `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Normalize fills role and status for documents written before both fields
// were stored explicitly.
func (u *User) Normalize() {
	u.Role = ParseRole(string(u.Role))
	u.Status = ParseUserStatus(string(u.Status))
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type RegisterUserReq struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	BloodGroup string `json:"bloodGroup"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
}

func (r *RegisterUserReq) Validate() error {
	email, err := NormalizeEmail(r.Email)
	if err != nil {
		return err
	}
	r.Email = email
	r.Name = strings.TrimSpace(r.Name)
	return nil
}

// ProfilePatch carries the self-service fields. Role and status are not
// reachable from here.
type ProfilePatch struct {
	Name       *string `json:"name,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
	BloodGroup *string `json:"bloodGroup,omitempty"`
	District   *string `json:"district,omitempty"`
	Upazila    *string `json:"upazila,omitempty"`
}

func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Avatar == nil && p.BloodGroup == nil && p.District == nil && p.Upazila == nil
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("%w: invalid email %q", ErrValidation, s)
	}
	return s, nil
}

// SameEmail compares two addresses the way the store indexes them.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
