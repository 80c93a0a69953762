package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/medportal/medportal/server/assistant"
	"github.com/medportal/medportal/server/auth"
	"github.com/medportal/medportal/server/auth/key"
	"github.com/medportal/medportal/server/emergency"
	"github.com/medportal/medportal/server/models"
	"gorm.io/gorm"
)

const maxUploadSizeBytes = 32 << 20

// ---------------------------------------------------------------------------------//
// Session handlers
// --------------------------------------------------------------------------------//

func signupHandler(rw http.ResponseWriter, r *http.Request) {
	user := models.User{}

	err := json.NewDecoder(r.Body).Decode(&user)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(user)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	// The very first account gets the admin role
	roleName := models.BASIC_USER_ROLE
	userExists, err := models.AtLeastOneUserExists()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}
	if !userExists {
		roleName = models.ADMIN_USER_ROLE
	}

	role, err := models.FindRole(roleName)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}
	user.RoleID = role.ID

	err = models.CreateUser(&user)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	token, err := newSessionToken(&user)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{"token": token}}, http.StatusCreated)
}

func logInHandler(rw http.ResponseWriter, r *http.Request) {
	data := make(map[string]string)
	json.NewDecoder(r.Body).Decode(&data)

	passwordHash, err := models.FindUserPassword(data["email"])
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if !auth.CheckPasswordHash(data["password"], passwordHash) {
		writeResponse(rw, ResponsePayload{Errors: []string{"email/password is invalid"}}, http.StatusUnauthorized)
		return
	}

	user, err := models.FindUserBy("email", data["email"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	token, err := newSessionToken(user)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{"token": token}}, http.StatusOK)
}

func newSessionToken(user *models.User) (string, error) {
	isAdmin, err := user.IsAdmin()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := auth.MedportalTokenClaims{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsAdmin:   isAdmin,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(24 * time.Hour).Unix(),
		},
	}

	return auth.EncodeJWT(claims, authKeyPair)
}

// ---------------------------------------------------------------------------------//
// User handlers
// --------------------------------------------------------------------------------//

func findUserHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := models.FindUserWithGuardians(vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"user not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: user}, http.StatusOK)
}

func updateUserHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var errs []string
	data := make(map[string]interface{})

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, map[string]bool{
		"first_name":    true,
		"last_name":     true,
		"phone_number":  true,
		"password":      true,
		"date_of_birth": true,
		"blood_group":   true,
		"allergies":     true,
		"vaccinations":  true,
	})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	if data["password"] != nil && validate.Var(fmt.Sprintf("%v", data["password"]), "password") != nil {
		errs = append(errs, "password cannot be empty or contain spaces")
	}

	if data["phone_number"] != nil && validate.Var(fmt.Sprintf("%v", data["phone_number"]), "e164") != nil {
		errs = append(errs, "phone_number must be in e164 format")
	}

	if len(errs) > 0 {
		writeResponse(rw, ResponsePayload{Errors: errs}, http.StatusBadRequest)
		return
	}

	user, err := models.FindUserBy("id", vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"user not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = user.Update(data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

func deleteUserHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := models.DeleteUser(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Guardian handlers
// --------------------------------------------------------------------------------//

func createGuardianHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	guardian := models.Guardian{}

	err := json.NewDecoder(r.Body).Decode(&guardian)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(guardian)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	user, err := models.FindUserBy("id", vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"user not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = user.AddGuardian(&guardian)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: guardian}, http.StatusCreated)
}

func listGuardiansHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	guardians, err := models.GuardiansForUser(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: guardians}, http.StatusOK)
}

func updateGuardianHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data := make(map[string]interface{})

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, map[string]bool{
		"first_name":   true,
		"last_name":    true,
		"relationship": true,
		"phone_number": true,
		"email":        true,
	})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	if data["phone_number"] != nil && validate.Var(fmt.Sprintf("%v", data["phone_number"]), "phone_number") != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"phone_number is invalid"}}, http.StatusBadRequest)
		return
	}

	_, err = models.FindGuardian(vars["id"], vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"guardian not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	user, err := models.FindUserBy("id", vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = user.UpdateGuardian(vars["id"], data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

func deleteGuardianHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := models.DeleteGuardian(vars["id"], vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Emergency request handlers
// --------------------------------------------------------------------------------//

type createEmergencyRequestParams struct {
	RequestID string              `json:"requestId"`
	Location  *emergency.Location `json:"location"`
}

func createEmergencyRequestHandler(rw http.ResponseWriter, r *http.Request) {
	decodedJWT := r.Context().Value(RequestContextKey("decodedJWT")).(DecodedJWT)

	params := createEmergencyRequestParams{}
	if r.Body != nil {
		// Body is optional, both request id & location may be omitted
		json.NewDecoder(r.Body).Decode(&params)
	}

	userID, err := strconv.ParseUint(decodedJWT.Claims.Subject, 10, 64)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid user id"}}, http.StatusBadRequest)
		return
	}

	user, err := models.FindUserWithGuardians(uint(userID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"user not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	request, err := coordinator.CreateRequest(params.RequestID, user.ID, params.Location)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	// A failed alert doesn't void the request, the requester can
	// still share the action links through another channel.
	err = coordinator.NotifyGuardians(user, request, user.Guardians)
	if err != nil {
		logg.Errorf("failed to notify guardians for %v: %v", request.RequestID, err)
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{
		"requestId": request.RequestID,
		"status":    request.StatusName(),
	}}, http.StatusCreated)
}

type emergencyStatusResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func checkEmergencyStatusHandler(rw http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("requestId")
	if requestID == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"requestId is required"}}, http.StatusBadRequest)
		return
	}

	request, err := models.FindEmergencyRequest(requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"emergency request not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(emergencyStatusResponse{
		Success:   true,
		Status:    request.StatusName(),
		Timestamp: request.UpdatedAt.Format(time.RFC3339),
	})
}

type updateEmergencyStatusParams struct {
	RequestID string `json:"requestId" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Token     string `json:"token" validate:"required"`
}

func updateEmergencyStatusHandler(rw http.ResponseWriter, r *http.Request) {
	params := updateEmergencyStatusParams{}

	err := json.NewDecoder(r.Body).Decode(&params)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(params)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	err = coordinator.Resolve(params.RequestID, params.Status, params.Token)
	switch {
	case errors.Is(err, emergency.ErrInvalidAction), errors.Is(err, emergency.ErrInvalidActionToken):
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeResponse(rw, ResponsePayload{Errors: []string{"emergency request not found"}}, http.StatusNotFound)
		return
	case errors.Is(err, models.ErrAlreadyResolved):
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return
	case err != nil:
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{
		"requestId": params.RequestID,
		"status":    params.Status,
	}}, http.StatusOK)
}

type sendSmsParams struct {
	To      string `json:"to" validate:"required,phone_number"`
	Message string `json:"message" validate:"required"`
}

func sendSmsHandler(rw http.ResponseWriter, r *http.Request) {
	params := sendSmsParams{}

	err := json.NewDecoder(r.Body).Decode(&params)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(params)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	to, _ := emergency.NormalizePhoneNumber(params.To, serverConfig.Medportal.Emergency.DefaultCountryCode)
	err = smsClient.SendMessage(to, params.Message)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"unable to deliver sms"}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Medical file handlers
// --------------------------------------------------------------------------------//

func uploadMedicalFileHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if storageClient == nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"file storage is not configured"}}, http.StatusServiceUnavailable)
		return
	}

	err := r.ParseMultipartForm(maxUploadSizeBytes)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"file is required"}}, http.StatusBadRequest)
		return
	}
	defer file.Close()

	userID, err := strconv.ParseUint(vars["uid"], 10, 64)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid user id"}}, http.StatusBadRequest)
		return
	}

	fileID := uuid.NewString()
	contentType := fileHeader.Header.Get("Content-Type")
	bucket := serverConfig.Google.Storage.Bucket

	err = storageClient.UploadObject(r.Context(), bucket, medicalFileObjectName(vars["uid"], fileID), file, contentType)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"unable to store file"}}, http.StatusInternalServerError)
		return
	}

	medicalFile := models.MedicalFile{
		UserID:      uint(userID),
		FileID:      fileID,
		FileName:    fileHeader.Filename,
		Description: r.FormValue("description"),
		ContentType: contentType,
	}

	err = models.CreateMedicalFile(&medicalFile)
	if err != nil {
		// Roll back the stored binary so no orphan object remains
		if deleteErr := storageClient.DeleteObject(r.Context(), bucket, medicalFileObjectName(vars["uid"], fileID)); deleteErr != nil {
			logg.Errorf("failed to clean up object %v after metadata failure: %v", fileID, deleteErr)
		}

		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: medicalFile}, http.StatusCreated)
}

func listMedicalFilesHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	medicalFiles, err := models.MedicalFilesForUser(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: medicalFiles}, http.StatusOK)
}

func downloadMedicalFileHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if storageClient == nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"file storage is not configured"}}, http.StatusServiceUnavailable)
		return
	}

	medicalFile, err := models.FindMedicalFile(vars["id"], vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"file not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", medicalFile.ContentType)
	rw.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", medicalFile.FileName))

	err = storageClient.DownloadObject(r.Context(), serverConfig.Google.Storage.Bucket, medicalFileObjectName(vars["uid"], medicalFile.FileID), rw)
	if err != nil {
		logg.Errorf("failed to stream file %v: %v", medicalFile.FileID, err)
	}
}

func deleteMedicalFileHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if storageClient == nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"file storage is not configured"}}, http.StatusServiceUnavailable)
		return
	}

	medicalFile, err := models.FindMedicalFile(vars["id"], vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"file not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = models.DeleteMedicalFile(vars["id"], vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = storageClient.DeleteObject(r.Context(), serverConfig.Google.Storage.Bucket, medicalFileObjectName(vars["uid"], medicalFile.FileID))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"file record removed but stored binary could not be deleted"}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

func medicalFileObjectName(userID, fileID string) string {
	prefix := serverConfig.Google.Storage.Prefix
	if prefix == "" {
		return fmt.Sprintf("medical_files/%v/%v", userID, fileID)
	}
	return fmt.Sprintf("%v/medical_files/%v/%v", prefix, userID, fileID)
}

// ---------------------------------------------------------------------------------//
// Assistant handlers
// --------------------------------------------------------------------------------//

type assistantChatParams struct {
	Messages []assistant.Message `json:"messages" validate:"required,min=1"`
}

func assistantChatHandler(rw http.ResponseWriter, r *http.Request) {
	params := assistantChatParams{}

	err := json.NewDecoder(r.Body).Decode(&params)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(params)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	reply, err := assistantClient.SendMessage(r.Context(), params.Messages)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"assistant is unavailable"}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{"reply": reply}}, http.StatusOK)
}

func medicalReportHandler(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := models.FindUserBy("id", vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"user not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	medicalFiles, err := models.MedicalFilesForUser(user.ID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	fileNames := make([]string, 0, len(medicalFiles))
	for _, medicalFile := range medicalFiles {
		fileNames = append(fileNames, medicalFile.FileName)
	}

	report, err := assistantClient.GenerateReport(
		r.Context(),
		user.FullName(),
		user.DateOfBirth,
		user.BloodGroup,
		user.Allergies,
		user.Vaccinations,
		fileNames,
	)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"assistant is unavailable"}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{"report": report}}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Admin handlers
// --------------------------------------------------------------------------------//

func listJobsHandler(rw http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	jobs, paging, err := models.FetchJobs(page)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{
		"jobs":   jobs,
		"paging": paging,
	}}, http.StatusOK)
}

func listEmergencyRequestsHandler(rw http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	requests, paging, err := models.FetchEmergencyRequests(page)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{
		"emergency_requests": requests,
		"paging":             paging,
	}}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Ops handlers
// --------------------------------------------------------------------------------//

func jwksHandler(rw http.ResponseWriter, r *http.Request) {
	jwkKey, err := authKeyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(jwkKey))
}

func healthCheckHandler(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}
