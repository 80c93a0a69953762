package models

type MedicalFile struct {
	BaseModel
	UserID      uint   `json:"user_id" gorm:"not null"`
	FileID      string `json:"file_id" gorm:"not null;unique"`
	FileName    string `json:"file_name"`
	Description string `json:"description"`
	ContentType string `json:"content_type"`
}

func CreateMedicalFile(medicalFile *MedicalFile) error {
	return db.Create(medicalFile).Error
}

func FindMedicalFile(id interface{}, userID interface{}) (*MedicalFile, error) {
	medicalFile := MedicalFile{}
	err := db.First(&medicalFile, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}

	return &medicalFile, nil
}

func MedicalFilesForUser(userID interface{}) ([]MedicalFile, error) {
	medicalFiles := []MedicalFile{}
	err := db.Find(&medicalFiles, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return medicalFiles, nil
}

func DeleteMedicalFile(id interface{}, userID interface{}) error {
	return db.Delete(&MedicalFile{}, "id = ? AND user_id = ?", id, userID).Error
}
