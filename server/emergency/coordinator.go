package emergency

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/medportal/medportal/server/auth"
	"github.com/medportal/medportal/server/auth/key"
	"github.com/medportal/medportal/server/logger"
	"github.com/medportal/medportal/server/models"
)

const (
	APPROVE_ACTION = "approve"
	DENY_ACTION    = "deny"

	DEFAULT_COUNTRY_CODE     = "+91"
	DEFAULT_ACTION_TOKEN_TTL = 30 * time.Minute

	// A phone number with fewer digits than this can't be real, skip it
	minPhoneDigits = 7
)

var (
	ErrInvalidAction      = errors.New("action must be one of 'approve' or 'deny'")
	ErrInvalidActionToken = errors.New("action link is invalid or has expired")

	logg = logger.NewLogger()
)

// Sender delivers a single SMS, see server/twilio
type Sender interface {
	SendMessage(to, msg string) error
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinator runs the emergency-access approval workflow: it records
// requests, messages guardians with signed action links, and resolves
// requests when a guardian follows a link.
type Coordinator struct {
	sender             Sender
	keyPair            *key.KeyPair
	appURL             string
	defaultCountryCode string
	actionTokenTTL     time.Duration
}

func NewCoordinator(sender Sender, keyPair *key.KeyPair, appURL, defaultCountryCode string, actionTokenTTL time.Duration) *Coordinator {
	if defaultCountryCode == "" {
		defaultCountryCode = DEFAULT_COUNTRY_CODE
	}
	if actionTokenTTL <= 0 {
		actionTokenTTL = DEFAULT_ACTION_TOKEN_TTL
	}

	return &Coordinator{
		sender:             sender,
		keyPair:            keyPair,
		appURL:             strings.TrimSuffix(appURL, "/"),
		defaultCountryCode: defaultCountryCode,
		actionTokenTTL:     actionTokenTTL,
	}
}

// CreateRequest persists a fresh pending emergency request for the user.
// requestID may be empty, in which case one is generated.
func (c *Coordinator) CreateRequest(requestID string, userID uint, location *Location) (*models.EmergencyRequest, error) {
	var latitude, longitude *float64
	if location != nil {
		latitude = &location.Latitude
		longitude = &location.Longitude
	}

	return models.CreateEmergencyRequest(requestID, userID, latitude, longitude)
}

// NotifyGuardians messages every guardian with a usable phone number, all
// sends in flight together. A failed or skipped guardian never blocks the
// others; an error comes back only when not a single message made it out.
func (c *Coordinator) NotifyGuardians(user *models.User, request *models.EmergencyRequest, guardians []models.Guardian) error {
	message, err := c.alertMessage(user, request)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	sendErrs := make([]error, len(guardians))
	attempted := 0

	for i, guardian := range guardians {
		phoneNumber, ok := NormalizePhoneNumber(guardian.PhoneNumber, c.defaultCountryCode)
		if !ok {
			logg.Warnf("skipping guardian %v: unusable phone number", guardian.ID)
			continue
		}

		attempted++
		wg.Add(1)
		go func(i int, to string) {
			defer wg.Done()
			sendErrs[i] = c.sender.SendMessage(to, message)
		}(i, phoneNumber)
	}
	wg.Wait()

	if attempted == 0 {
		return fmt.Errorf("request %v has no guardian with a usable phone number", request.RequestID)
	}

	failures := 0
	for i, sendErr := range sendErrs {
		if sendErr != nil {
			failures++
			logg.Errorf("failed to notify guardian %v for request %v: %v",
				guardians[i].ID, request.RequestID, sendErr)
		}
	}

	if failures == attempted {
		return fmt.Errorf("all guardian notifications failed for request %v", request.RequestID)
	}

	return nil
}

// Resolve applies a guardian's approve/deny action to the request. The token
// must be one the coordinator minted for this exact request & action, and the
// request must still be pending.
func (c *Coordinator) Resolve(requestID, action, token string) error {
	if action != APPROVE_ACTION && action != DENY_ACTION {
		return ErrInvalidAction
	}

	claims, err := auth.DecodeActionToken(token, c.keyPair)
	if err != nil {
		return ErrInvalidActionToken
	}

	if claims.Subject != requestID || claims.Action != action {
		return ErrInvalidActionToken
	}

	return models.ResolveEmergencyRequest(requestID, action)
}

// ActionURL builds the link a guardian follows to resolve the request
func (c *Coordinator) ActionURL(requestID, action string) (string, error) {
	token, err := auth.EncodeActionToken(requestID, action, c.actionTokenTTL, c.keyPair)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%v/approve?requestId=%v&action=%v&token=%v",
		c.appURL, url.QueryEscape(requestID), action, url.QueryEscape(token)), nil
}

// NormalizePhoneNumber turns a free-form phone number into something
// dialable. Digits only are kept; numbers with fewer than 7 digits are
// rejected; a bare 10-digit number gets the default country code; anything
// else just gets a '+' if it's missing one.
func NormalizePhoneNumber(raw, defaultCountryCode string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	cleaned := digits.String()
	if len(cleaned) < minPhoneDigits {
		return "", false
	}

	if len(cleaned) == 10 {
		return defaultCountryCode + cleaned, true
	}

	return "+" + cleaned, true
}

func (c *Coordinator) alertMessage(user *models.User, request *models.EmergencyRequest) (string, error) {
	approveURL, err := c.ActionURL(request.RequestID, APPROVE_ACTION)
	if err != nil {
		return "", err
	}

	denyURL, err := c.ActionURL(request.RequestID, DENY_ACTION)
	if err != nil {
		return "", err
	}

	locationInfo := "Location not available"
	if request.Latitude != nil && request.Longitude != nil {
		locationInfo = fmt.Sprintf("Location: https://maps.google.com/?q=%v,%v", *request.Latitude, *request.Longitude)
	}

	return fmt.Sprintf(
		"EMERGENCY: %v requires medical attention. Someone is requesting access to their medical information. %v. "+
			"To APPROVE: %v To DENY: %v",
		user.FullName(), locationInfo, approveURL, denyURL), nil
}
