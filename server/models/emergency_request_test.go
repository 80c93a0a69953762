package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateEmergencyRequest(t *testing.T) {
	InitializeTestDb()
	user := newDbTestUser(t)

	// Caller-provided id is echoed back exactly
	request, err := CreateEmergencyRequest("emerg-1693200000000-42", user.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "emerg-1693200000000-42", request.RequestID)
	assert.Equal(t, PENDING_REQUEST, request.StatusName())

	// Empty id gets a generated one
	latitude, longitude := 12.9716, 77.5946
	generated, err := CreateEmergencyRequest("", user.ID, &latitude, &longitude)
	require.NoError(t, err)
	assert.Contains(t, generated.RequestID, "emerg-")
	assert.Equal(t, PENDING_REQUEST, generated.StatusName())

	found, err := FindEmergencyRequest(generated.RequestID)
	require.NoError(t, err)
	assert.Equal(t, generated.RequestID, found.RequestID)
	assert.Equal(t, latitude, *found.Latitude)
	assert.Equal(t, longitude, *found.Longitude)
}

func TestFindEmergencyRequestUnknownID(t *testing.T) {
	InitializeTestDb()

	_, err := FindEmergencyRequest("emerg-does-not-exist")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestResolveEmergencyRequest(t *testing.T) {
	InitializeTestDb()
	user := newDbTestUser(t)

	request, err := CreateEmergencyRequest("", user.ID, nil, nil)
	require.NoError(t, err)

	// Only terminal statuses are valid resolutions
	err = ResolveEmergencyRequest(request.RequestID, PENDING_REQUEST)
	assert.Error(t, err)

	err = ResolveEmergencyRequest(request.RequestID, DENIED_REQUEST)
	require.NoError(t, err)

	resolved, err := FindEmergencyRequest(request.RequestID)
	require.NoError(t, err)
	assert.Equal(t, DENIED_REQUEST, resolved.StatusName())

	// The transition is one-shot, later writers lose
	err = ResolveEmergencyRequest(request.RequestID, APPROVED_REQUEST)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	stillDenied, err := FindEmergencyRequest(request.RequestID)
	require.NoError(t, err)
	assert.Equal(t, DENIED_REQUEST, stillDenied.StatusName())
}

func TestResolveEmergencyRequestUnknownID(t *testing.T) {
	InitializeTestDb()

	err := ResolveEmergencyRequest("emerg-does-not-exist", APPROVED_REQUEST)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteStaleEmergencyRequests(t *testing.T) {
	InitializeTestDb()
	user := newDbTestUser(t)

	fresh, err := CreateEmergencyRequest("", user.ID, nil, nil)
	require.NoError(t, err)

	stale, err := CreateEmergencyRequest("", user.ID, nil, nil)
	require.NoError(t, err)

	// Backdate the second request beyond the cutoff
	err = db.Model(&EmergencyRequest{}).Where("request_id = ?", stale.RequestID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error
	require.NoError(t, err)

	count, err := DeleteStaleEmergencyRequests(24)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = FindEmergencyRequest(stale.RequestID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = FindEmergencyRequest(fresh.RequestID)
	assert.NoError(t, err)
}

func newDbTestUser(t *testing.T) *User {
	t.Helper()

	user := User{
		FirstName:   "Maya",
		LastName:    "Iyer",
		PhoneNumber: fmt.Sprintf("+9198765%05d", time.Now().UnixNano()%100000),
		Email:       fmt.Sprintf("maya%d@example.com", time.Now().UnixNano()),
		Password:    "super-secret",
	}
	require.NoError(t, CreateUser(&user))

	return &user
}
