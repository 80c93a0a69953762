package models

const (
	PENDING_REQUEST  = "pending"
	APPROVED_REQUEST = "approve"
	DENIED_REQUEST   = "deny"
)

var RequestStatusNameMap = map[string]bool{
	PENDING_REQUEST:  true,
	APPROVED_REQUEST: true,
	DENIED_REQUEST:   true,
}

type RequestStatus struct {
	BaseModel
	Name              string             `json:"name"`
	EmergencyRequests []EmergencyRequest `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func FindRequestStatus(name string) (*RequestStatus, error) {
	requestStatus := RequestStatus{}
	err := db.Select("id", "name").First(&requestStatus, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return &requestStatus, nil
}
