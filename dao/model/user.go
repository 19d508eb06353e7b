package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"golang.org/x/crypto/bcrypt"
)

// User is the basic entity of the system.
type User struct {
	gorm.Model
	Name     string     `gorm:"uniqueIndex;type:varchar(64);not null;comment:login name (student code or faculty code)"`
	Nickname *string    `gorm:"type:varchar(64);comment:display name"`
	Password *string    `gorm:"type:varchar(128);comment:bcrypt hash, nil for LDAP-only accounts"`
	Role     Role       `gorm:"not null;comment:platform role"`
	Status   UserStatus `gorm:"not null;comment:account status"`

	FacultyID  uint                              `gorm:"index;comment:faculty the account belongs to"`
	Attributes datatypes.JSONType[UserAttribute] `gorm:"comment:extra attributes synced from the registry"`
}

// UserAttribute holds registry fields the core never filters on.
type UserAttribute struct {
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
	ClassCode  *string `json:"classCode,omitempty"`
}

// UserInfo is the embedded shape handlers return for related users.
type UserInfo struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Nickname *string `json:"nickname"`
}

// SetPassword hashes and stores a new password.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s := string(hash)
	u.Password = &s
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	if u.Password == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(plain)) == nil
}

// Info converts to the embedded response shape.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Username: u.Name, Nickname: u.Nickname}
}
