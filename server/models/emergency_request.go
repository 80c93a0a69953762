package models

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// ErrAlreadyResolved is returned when a request has already left 'pending'
var ErrAlreadyResolved = errors.New("emergency request has already been resolved")

type EmergencyRequest struct {
	BaseModel
	RequestID       string         `json:"request_id" gorm:"not null;unique"`
	UserID          uint           `json:"user_id" gorm:"not null"`
	RequestStatusID uint           `json:"request_status_id"`
	RequestStatus   *RequestStatus `json:"status,omitempty"`
	Latitude        *float64       `json:"latitude,omitempty"`
	Longitude       *float64       `json:"longitude,omitempty"`
}

// StatusName returns the name of the request's current status or "" when not loaded
func (request *EmergencyRequest) StatusName() string {
	if request.RequestStatus == nil {
		return ""
	}
	return request.RequestStatus.Name
}

// CreateEmergencyRequest persists a new 'pending' request. When requestID is
// empty a fresh one is generated, otherwise the caller-provided id is kept
// so it can be echoed back.
func CreateEmergencyRequest(requestID string, userID uint, latitude, longitude *float64) (*EmergencyRequest, error) {
	pendingStatus, err := FindRequestStatus(PENDING_REQUEST)
	if err != nil {
		return nil, err
	}

	if requestID == "" {
		requestID = newRequestID()
	}

	request := EmergencyRequest{
		RequestID:       requestID,
		UserID:          userID,
		RequestStatusID: pendingStatus.ID,
		Latitude:        latitude,
		Longitude:       longitude,
	}

	err = db.Create(&request).Error
	if err != nil {
		return nil, err
	}
	request.RequestStatus = pendingStatus

	return &request, nil
}

func FindEmergencyRequest(requestID string) (*EmergencyRequest, error) {
	request := EmergencyRequest{}
	err := db.Preload("RequestStatus").First(&request, "request_id = ?", requestID).Error
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// ResolveEmergencyRequest transitions a request from 'pending' to statusName
// exactly once. The update is a compare-and-set on the pending status, so the
// first resolution wins and any later one gets ErrAlreadyResolved.
func ResolveEmergencyRequest(requestID string, statusName string) error {
	if !RequestStatusNameMap[statusName] || statusName == PENDING_REQUEST {
		return fmt.Errorf("cannot resolve request to status %q", statusName)
	}

	// Surface 'not found' before attempting the transition
	_, err := FindEmergencyRequest(requestID)
	if err != nil {
		return err
	}

	pendingStatus, err := FindRequestStatus(PENDING_REQUEST)
	if err != nil {
		return err
	}

	targetStatus, err := FindRequestStatus(statusName)
	if err != nil {
		return err
	}

	res := db.Model(&EmergencyRequest{}).
		Where("request_id = ? AND request_status_id = ?", requestID, pendingStatus.ID).
		Update("request_status_id", targetStatus.ID)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrAlreadyResolved
	}

	return nil
}

func FetchEmergencyRequests(page int, query ...interface{}) ([]EmergencyRequest, *Paging, error) {
	var total int64
	requests := []EmergencyRequest{}

	err := db.Model(&EmergencyRequest{}).Count(&total).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	err = db.Scopes(paginate(page, MAX_PAGE_SIZE)).
		Preload("RequestStatus").Order("emergency_requests.id desc").
		Find(&requests, query...).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	return requests, newPaging(int64(page), MAX_PAGE_SIZE, total), nil
}

// DeleteStaleEmergencyRequests removes pending requests that have been
// sitting around for more than 'hoursAgo' hours. Their action tokens expired
// long before, so the records are just noise at this point.
//
// WARNING: THIS QUERY IS UNIQUE TO SQLITE, REMEMBER TO UPDATE IT IF/WHEN
// OTHER SQL DATABASES ARE SUPPORTED
func DeleteStaleEmergencyRequests(hoursAgo uint) (int64, error) {
	pendingStatus, err := FindRequestStatus(PENDING_REQUEST)
	if err != nil {
		return 0, err
	}

	res := db.Where(
		fmt.Sprintf("request_status_id = ? AND datetime(created_at, '+%v hour') <= datetime('now')", hoursAgo),
		pendingStatus.ID,
	).Delete(&EmergencyRequest{})

	return res.RowsAffected, res.Error
}

func newRequestID() string {
	return fmt.Sprintf("emerg-%v-%v", time.Now().UnixMilli(), rand.Intn(1000))
}
