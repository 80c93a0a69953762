package emergency

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"testing"
	"time"

	"github.com/medportal/medportal/server/auth"
	"github.com/medportal/medportal/server/auth/key"
	"github.com/medportal/medportal/server/models"
	"github.com/medportal/medportal/server/twilio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneNumber(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"9876543210", "+919876543210", true},
		{"+14155550123", "+14155550123", true},
		{"(987) 654-3210", "+919876543210", true},
		{"12345", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		normalized, ok := NormalizePhoneNumber(tc.input, "+91")
		assert.Equal(t, tc.ok, ok, "input=%q", tc.input)
		assert.Equal(t, tc.expected, normalized, "input=%q", tc.input)
	}
}

func TestNotifyGuardiansSkipsUnusablePhones(t *testing.T) {
	models.InitializeTestDb()
	coordinator, stub := newTestCoordinator(t)

	user := createTestUser(t)
	request, err := coordinator.CreateRequest("", user.ID, nil)
	require.NoError(t, err)

	guardians := []models.Guardian{
		{FirstName: "Asha", LastName: "Rao", PhoneNumber: "9876543210", UserID: user.ID},
		{FirstName: "Ravi", LastName: "Rao", PhoneNumber: "12345", UserID: user.ID},
	}

	err = coordinator.NotifyGuardians(user, request, guardians)
	assert.NoError(t, err, "one bad phone number should not block the good one")

	require.Len(t, stub.SentTo, 1)
	assert.Equal(t, "+919876543210", stub.SentTo[0])
	assert.Contains(t, stub.SentMessages[0], "EMERGENCY:")
	assert.Contains(t, stub.SentMessages[0], "To APPROVE:")
	assert.Contains(t, stub.SentMessages[0], "To DENY:")
	assert.Contains(t, stub.SentMessages[0], request.RequestID)
}

func TestNotifyGuardiansWithNoUsablePhone(t *testing.T) {
	models.InitializeTestDb()
	coordinator, _ := newTestCoordinator(t)

	user := createTestUser(t)
	request, err := coordinator.CreateRequest("", user.ID, nil)
	require.NoError(t, err)

	err = coordinator.NotifyGuardians(user, request, []models.Guardian{
		{FirstName: "Ravi", LastName: "Rao", PhoneNumber: "12", UserID: user.ID},
	})
	assert.Error(t, err)
}

func TestNotifyGuardiansIncludesLocationLink(t *testing.T) {
	models.InitializeTestDb()
	coordinator, stub := newTestCoordinator(t)

	user := createTestUser(t)
	latitude, longitude := 12.9716, 77.5946
	request, err := coordinator.CreateRequest("", user.ID, &Location{Latitude: latitude, Longitude: longitude})
	require.NoError(t, err)

	err = coordinator.NotifyGuardians(user, request, []models.Guardian{
		{FirstName: "Asha", LastName: "Rao", PhoneNumber: "+14155550123", UserID: user.ID},
	})
	require.NoError(t, err)

	require.Len(t, stub.SentMessages, 1)
	assert.Contains(t, stub.SentMessages[0], "https://maps.google.com/?q=12.9716,77.5946")
}

func TestResolve(t *testing.T) {
	models.InitializeTestDb()
	coordinator, _ := newTestCoordinator(t)

	user := createTestUser(t)
	request, err := coordinator.CreateRequest("", user.ID, nil)
	require.NoError(t, err)

	approveToken, err := auth.EncodeActionToken(request.RequestID, APPROVE_ACTION, time.Minute, coordinator.keyPair)
	require.NoError(t, err)

	// Token minted for a different action must be rejected
	err = coordinator.Resolve(request.RequestID, DENY_ACTION, approveToken)
	assert.ErrorIs(t, err, ErrInvalidActionToken)

	err = coordinator.Resolve(request.RequestID, "escalate", approveToken)
	assert.ErrorIs(t, err, ErrInvalidAction)

	err = coordinator.Resolve(request.RequestID, APPROVE_ACTION, approveToken)
	assert.NoError(t, err)

	resolved, err := models.FindEmergencyRequest(request.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.APPROVED_REQUEST, resolved.StatusName())

	// First writer wins, a second resolution is a conflict
	denyToken, err := auth.EncodeActionToken(request.RequestID, DENY_ACTION, time.Minute, coordinator.keyPair)
	require.NoError(t, err)

	err = coordinator.Resolve(request.RequestID, DENY_ACTION, denyToken)
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)
}

func TestResolveExpiredToken(t *testing.T) {
	models.InitializeTestDb()
	coordinator, _ := newTestCoordinator(t)

	user := createTestUser(t)
	request, err := coordinator.CreateRequest("", user.ID, nil)
	require.NoError(t, err)

	expiredToken, err := auth.EncodeActionToken(request.RequestID, APPROVE_ACTION, -time.Minute, coordinator.keyPair)
	require.NoError(t, err)

	err = coordinator.Resolve(request.RequestID, APPROVE_ACTION, expiredToken)
	assert.ErrorIs(t, err, ErrInvalidActionToken)
}

func newTestCoordinator(t *testing.T) (*Coordinator, *twilio.SenderStub) {
	t.Helper()

	stub := &twilio.SenderStub{}
	return NewCoordinator(stub, testKeyPair(t), "http://localhost:3000", "+91", time.Minute), stub
}

func testKeyPair(t *testing.T) *key.KeyPair {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	keyPair, err := key.NewKeyPairFromRSAPrivateKeyPem(pemBytes)
	require.NoError(t, err)

	return keyPair
}

func createTestUser(t *testing.T) *models.User {
	t.Helper()

	user := models.User{
		FirstName:   "Maya",
		LastName:    "Iyer",
		PhoneNumber: fmt.Sprintf("+9198765%05d", time.Now().UnixNano()%100000),
		Email:       fmt.Sprintf("maya%d@example.com", time.Now().UnixNano()),
		Password:    "super-secret",
	}
	require.NoError(t, models.CreateUser(&user))

	return &user
}
