package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/medportal/medportal/server/auth/key"
	"github.com/medportal/medportal/server/emergency"
	"github.com/medportal/medportal/server/models"
	"github.com/medportal/medportal/server/poller"
	"github.com/medportal/medportal/server/twilio"
	"github.com/medportal/medportal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var denyURLPattern = regexp.MustCompile(`To DENY: (\S+)`)

func TestEmergencyAccessWorkflow(t *testing.T) {
	stub := setupTestServer(t)

	testServer := httptest.NewServer(newRouter())
	defer testServer.Close()

	// Sign up & grab a session token
	token := signUpTestUser(t, testServer.URL, "maya@example.com", "+919812345670")

	// Register a guardian with a bare 10-digit number
	payload := `{"first_name":"Asha","last_name":"Rao","relationship":"mother","phone_number":"9876543210"}`
	resp := doJSON(t, "POST", testServer.URL+"/users/1/guardians", payload, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Kick off an emergency request
	resp = doJSON(t, "POST", testServer.URL+"/api/create-emergency-request",
		`{"location":{"latitude":12.9716,"longitude":77.5946}}`, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodePayload(t, resp)
	requestID := body.Data["requestId"].(string)
	assert.Contains(t, requestID, "emerg-")
	assert.Equal(t, models.PENDING_REQUEST, body.Data["status"])

	// The guardian got one SMS, at the normalized number, with both links
	require.Len(t, stub.SentTo, 1)
	assert.Equal(t, "+919876543210", stub.SentTo[0])
	assert.Contains(t, stub.SentMessages[0], "To APPROVE:")
	assert.Contains(t, stub.SentMessages[0], "https://maps.google.com/?q=12.9716,77.5946")

	// Status starts out pending
	resp = doJSON(t, "GET", testServer.URL+"/api/check-emergency-status?requestId="+requestID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Guardian follows the deny link
	actionToken := actionTokenFromAlert(t, stub.SentMessages[0])
	resp = doJSON(t, "POST", testServer.URL+"/api/update-emergency-status",
		fmt.Sprintf(`{"requestId":%q,"status":"deny","token":%q}`, requestID, actionToken), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A second resolution is a conflict
	resp = doJSON(t, "POST", testServer.URL+"/api/update-emergency-status",
		fmt.Sprintf(`{"requestId":%q,"status":"deny","token":%q}`, requestID, actionToken), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The requester's poller observes the terminal status & halts
	statusPoller := poller.NewWithIntervals(
		poller.NewStatusClient(testServer.URL), time.Millisecond, 4*time.Millisecond, time.Second)

	status, err := statusPoller.Wait(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, models.DENIED_REQUEST, status)
}

func TestCheckEmergencyStatusUnknownID(t *testing.T) {
	setupTestServer(t)

	testServer := httptest.NewServer(newRouter())
	defer testServer.Close()

	resp := doJSON(t, "GET", testServer.URL+"/api/check-emergency-status?requestId=emerg-nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateEmergencyStatusRejectsBadInput(t *testing.T) {
	setupTestServer(t)

	testServer := httptest.NewServer(newRouter())
	defer testServer.Close()

	// Missing fields
	resp := doJSON(t, "POST", testServer.URL+"/api/update-emergency-status", `{"requestId":"emerg-1"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown action
	resp = doJSON(t, "POST", testServer.URL+"/api/update-emergency-status",
		`{"requestId":"emerg-1","status":"escalate","token":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	setupTestServer(t)

	testServer := httptest.NewServer(newRouter())
	defer testServer.Close()

	resp := doJSON(t, "POST", testServer.URL+"/api/create-emergency-request", "{}", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, "GET", testServer.URL+"/users/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserCannotReadAnotherUsersProfile(t *testing.T) {
	setupTestServer(t)

	testServer := httptest.NewServer(newRouter())
	defer testServer.Close()

	// First account is the admin, second is a plain user
	signUpTestUser(t, testServer.URL, "admin@example.com", "+919812345671")
	userToken := signUpTestUser(t, testServer.URL, "maya@example.com", "+919812345672")

	resp := doJSON(t, "GET", testServer.URL+"/users/1", "", userToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, "GET", testServer.URL+"/users/2", "", userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ---------------------------------------------------------------------------------//
// Helpers
// --------------------------------------------------------------------------------//

func setupTestServer(t *testing.T) *twilio.SenderStub {
	t.Helper()

	models.InitializeTestDb()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(pemBytes)
	require.NoError(t, err)
	require.NoError(t, RegisterValidators(validate))

	stub := &twilio.SenderStub{}
	coordinator = emergency.NewCoordinator(stub, authKeyPair, "http://localhost:3000", "+91", time.Minute)
	serverConfig = &shared.ServerConfig{}

	return stub
}

func signUpTestUser(t *testing.T, baseURL, email, phoneNumber string) string {
	t.Helper()

	payload := fmt.Sprintf(
		`{"first_name":"Maya","last_name":"Iyer","email":%q,"phone_number":%q,"password":"super-secret","blood_group":"O+"}`,
		email, phoneNumber)

	resp := doJSON(t, "POST", baseURL+"/signup", payload, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decodePayload(t, resp).Data["token"].(string)
}

type decodedPayload struct {
	Errors  []string               `json:"errors"`
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
}

func decodePayload(t *testing.T, resp *http.Response) decodedPayload {
	t.Helper()

	payload := decodedPayload{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()

	return payload
}

func doJSON(t *testing.T, method, endpoint, body, token string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequest(method, endpoint, reader)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func actionTokenFromAlert(t *testing.T, message string) string {
	t.Helper()

	matches := denyURLPattern.FindStringSubmatch(message)
	require.Len(t, matches, 2)

	denyURL, err := url.Parse(matches[1])
	require.NoError(t, err)

	return denyURL.Query().Get("token")
}
