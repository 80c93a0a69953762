package models

import (
	"errors"
	"fmt"

	"github.com/medportal/medportal/server/auth"
	"gorm.io/gorm"
)

var (
	allFieldsExceptPassword = []string{"id",
		"first_name",
		"last_name",
		"phone_number",
		"email",
		"date_of_birth",
		"blood_group",
		"allergies",
		"vaccinations",
		"role_id",
		"created_at",
		"updated_at",
	}

	updatableFields = []string{"first_name",
		"last_name",
		"phone_number",
		"password",
		"date_of_birth",
		"blood_group",
		"allergies",
		"vaccinations",
	}
)

type User struct {
	BaseModel
	FirstName         string             `json:"first_name" validate:"required"`
	LastName          string             `json:"last_name" validate:"required"`
	PhoneNumber       string             `json:"phone_number" validate:"required,e164" gorm:"not null;unique"`
	Email             string             `json:"email" validate:"required,email" gorm:"not null;unique"`
	Password          string             `json:"password,omitempty" validate:"required,password" gorm:"not null"`
	DateOfBirth       string             `json:"date_of_birth"`
	BloodGroup        string             `json:"blood_group"`
	Allergies         string             `json:"allergies"`
	Vaccinations      string             `json:"vaccinations"`
	RoleID            uint               `json:"role_id" gorm:"null"`
	Guardians         []Guardian         `json:"guardians,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	MedicalFiles      []MedicalFile      `json:"medical_files,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	EmergencyRequests []EmergencyRequest `json:"emergency_requests,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// FullName is the display name used in guardian alerts
func (user *User) FullName() string {
	return fmt.Sprintf("%v %v", user.FirstName, user.LastName)
}

func (user *User) Update(data map[string]interface{}) error {
	if data["password"] != nil {
		passwordHash, err := auth.HashPassword(data["password"].(string))
		if err != nil {
			return err
		}
		data["password"] = passwordHash
	}

	return db.Model(&User{}).Where("id = ?", user.ID).Select(updatableFields).Updates(data).Error
}

func (user *User) IsAdmin() (bool, error) {
	if user.RoleID == 0 {
		return false, nil
	}

	adminRole, err := FindRole(ADMIN_USER_ROLE)
	if err != nil {
		return false, err
	}

	return adminRole.ID == user.RoleID, nil
}

func (user *User) AddGuardian(guardian *Guardian) error {
	guardian.UserID = user.ID
	return db.Create(guardian).Error
}

func (user *User) UpdateGuardian(guardianID string, data map[string]interface{}) error {
	return db.Table("guardians").Where("id = ? AND user_id = ?", guardianID, user.ID).Updates(data).Error
}

func FindUserBy(field string, value interface{}) (*User, error) {
	user := User{}
	err := db.Select(allFieldsExceptPassword).First(&user, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserWithGuardians(userID interface{}) (*User, error) {
	user := User{}
	err := db.Preload("Guardians").Select(allFieldsExceptPassword).First(&user, userID).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserPassword(email string) (string, error) {
	user := &User{}
	err := db.Select("Password").First(user, "email = ?", email).Error

	if err != nil {
		return "", err
	}
	return user.Password, nil
}

func CreateUser(user *User) error {
	passwordHash, err := auth.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = passwordHash

	return db.Create(user).Error
}

func DeleteUser(id interface{}) error {
	return db.Delete(&User{}, id).Error
}

func AtLeastOneUserExists() (bool, error) {
	err := db.First(&User{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
