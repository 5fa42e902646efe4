package account

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is the identity record. HumanID and GoogleID are pointers so
// absent values stay NULL under their unique indexes.
type Account struct {
	ID           string  `gorm:"primaryKey"`
	HumanID      *string `gorm:"uniqueIndex"`
	Name         string
	Email        string  `gorm:"uniqueIndex;not null"`
	PasswordHash string
	GoogleID     *string `gorm:"uniqueIndex"`
	Role         Role    `gorm:"not null;default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// Draft holds the caller-supplied fields for account creation. Role is
// deliberately absent: self-service paths never choose one.
type Draft struct {
	Name     string
	Email    string
	Password string
	GoogleID string
}

// View is the outward representation of an account. It never carries
// the password digest.
type View struct {
	ID      string `json:"id"`
	HumanID string `json:"humanId,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
}

func (a *Account) View() View {
	v := View{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Role:  a.Role,
	}
	if a.HumanID != nil {
		v.HumanID = *a.HumanID
	}
	return v
}

// NormalizeEmail lower-cases and trims an address. Every lookup and
// write goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
