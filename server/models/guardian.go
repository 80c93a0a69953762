package models

type Guardian struct {
	BaseModel
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Relationship string `json:"relationship"`
	PhoneNumber  string `json:"phone_number" validate:"required,phone_number" gorm:"not null"`
	Email        string `json:"email" validate:"omitempty,email"`
	UserID       uint   `json:"user_id" gorm:"not null"`
}

func FindGuardian(id interface{}, userID interface{}) (*Guardian, error) {
	guardian := Guardian{}
	err := db.First(&guardian, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}

	return &guardian, nil
}

func GuardiansForUser(userID interface{}) ([]Guardian, error) {
	guardians := []Guardian{}
	err := db.Find(&guardians, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return guardians, nil
}

func DeleteGuardian(id interface{}, userID interface{}) error {
	return db.Delete(&Guardian{}, "id = ? AND user_id = ?", id, userID).Error
}
