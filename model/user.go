package model

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ===== Utilities =====

// NormalizeEmail lowercases and trims the email string
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	ErrUserNotFound = fmt.Errorf("user not found")
	ErrEmailExists  = fmt.Errorf("email already exists")
)

// ===== User =====

// User is a managed directory entry.
type User struct {
	gorm.Model
	Name  string `gorm:"not null"`
	Email string `gorm:"uniqueIndex;not null"` // always stored lowercase
}

// Normalize fields before saving
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func (s *Store) GetUserByID(id uint) (*User, error) {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(email string) (*User, error) {
	email = NormalizeEmail(email)
	var user User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether a record other than excludeID owns the
// normalized email. excludeID 0 means no exclusion.
func (s *Store) EmailExists(email string, excludeID uint) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	db := s.db.Model(&User{}).Where("email = ?", email)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser inserts the user. The stored email is the normalized form and
// the id is backfilled on return. A taken email fails with ErrEmailExists;
// the unique index on email is the last line of defense against a racing
// writer that passes this pre-check.
func (s *Store) CreateUser(u *User) error {
	if exists, err := s.EmailExists(u.Email, 0); err != nil {
		return err
	} else if exists {
		return ErrEmailExists
	}
	return s.db.Create(u).Error
}

// UpdateUser saves changes to an existing user. Updating a user to an email
// it already owns is not a conflict.
func (s *Store) UpdateUser(u *User) error {
	existing, err := s.GetUserByID(u.ID)
	if err != nil {
		return err
	}
	if exists, err := s.EmailExists(u.Email, u.ID); err != nil {
		return err
	} else if exists {
		return ErrEmailExists
	}
	u.CreatedAt = existing.CreatedAt
	return s.db.Save(u).Error
}

// DeleteUser removes the user for good. The delete is unscoped: a
// soft-deleted row would still occupy the unique email index and block
// re-creating a user with the same address.
func (s *Store) DeleteUser(id uint) error {
	u, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	return s.db.Unscoped().Delete(u).Error
}
