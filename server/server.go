package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/medportal/medportal/server/assistant"
	"github.com/medportal/medportal/server/auth"
	"github.com/medportal/medportal/server/auth/key"
	"github.com/medportal/medportal/server/emergency"
	"github.com/medportal/medportal/server/gstorage"
	"github.com/medportal/medportal/server/logger"
	"github.com/medportal/medportal/server/models"
	"github.com/medportal/medportal/server/twilio"
	"github.com/medportal/medportal/server/work"
	"github.com/medportal/medportal/shared"
	"github.com/spf13/viper"
)

type RequestContextKey string

type DecodedJWT struct {
	Claims   *auth.MedportalTokenClaims
	ErrorMsg string
}

type ResponsePayload struct {
	Errors  []string    `json:"errors,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	authKeyPair *key.KeyPair

	smsClient       *twilio.ClientWrapper
	assistantClient *assistant.Client
	storageClient   *gstorage.GStorage
	coordinator     *emergency.Coordinator
	workerPool      *work.WorkerPoolAdapter

	serverConfig *shared.ServerConfig
	dbRootDir    string
)

// Start boots the medportal server: it loads & validates config, runs db
// migrations, wires up the twilio/assistant/storage clients, starts the
// worker pool & registers all http routes. It blocks until SIGINT/SIGTERM.
func Start(config *viper.Viper, devMode bool) {
	appConfig := shared.ServerConfig{}
	fatalOnError(config.Unmarshal(&appConfig))
	fatalOnError(RegisterValidators(validate))
	fatalOnError(validate.Struct(appConfig))
	serverConfig = &appConfig

	dbRootDir = configDirectory(devMode)
	fatalOnError(models.AutoMigrate(appConfig.Sqlite.PassPhrase, dbRootDir))

	var err error
	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem([]byte(appConfig.Medportal.PrivateKeyPem))
	fatalOnError(err)

	smsClient = twilio.NewClient(appConfig.Twilio, devMode)
	assistantClient = assistant.NewClient(appConfig.OpenAI, devMode)

	if appConfig.Google.ApplicationCredentials != "" {
		storageClient, err = gstorage.NewGStorage(appConfig.Google.ApplicationCredentials)
		fatalOnError(err)
	}

	coordinator = emergency.NewCoordinator(
		smsClient,
		authKeyPair,
		appConfig.Medportal.AppURL,
		appConfig.Medportal.Emergency.DefaultCountryCode,
		time.Duration(appConfig.Medportal.Emergency.ActionTokenTTLInMinutes)*time.Minute,
	)

	workerPool = work.NewWorkerAdapter(appConfig.Medportal.Cron.TimeZone, false)
	registerJobHandlers(workerPool)
	enqueueJobs(workerPool, &appConfig)
	fatalOnError(workerPool.Start())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", appConfig.Medportal.Listener.Port),
		Handler: newRouter(),
	}
	go serve(server)

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, syscall.SIGINT, syscall.SIGTERM)
	<-sigChannel

	cleanup(workerPool, server, sqliteBackupEnabled(&appConfig))
}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(initialContextMiddleware)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/jwks", jwksHandler).Methods("GET")
	router.HandleFunc("/signup", signupHandler).Methods("POST")
	router.HandleFunc("/login", logInHandler).Methods("POST")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/check-emergency-status", checkEmergencyStatusHandler).Methods("GET")
	apiRouter.HandleFunc("/update-emergency-status", updateEmergencyStatusHandler).Methods("POST")

	protectedApiRouter := apiRouter.NewRoute().Subrouter()
	protectedApiRouter.Use(protectedRouteMiddleware)
	protectedApiRouter.HandleFunc("/create-emergency-request", createEmergencyRequestHandler).Methods("POST")

	adminApiRouter := apiRouter.NewRoute().Subrouter()
	adminApiRouter.Use(adminRouteMiddleware)
	adminApiRouter.HandleFunc("/send-sms", sendSmsHandler).Methods("POST")
	adminApiRouter.HandleFunc("/jobs", listJobsHandler).Methods("GET")
	adminApiRouter.HandleFunc("/emergency-requests", listEmergencyRequestsHandler).Methods("GET")

	userRouter := router.PathPrefix("/users/{uid:[0-9]+}").Subrouter()
	userRouter.Use(protectedRouteMiddleware)
	userRouter.HandleFunc("", findUserHandler).Methods("GET")
	userRouter.HandleFunc("", updateUserHandler).Methods("PUT")
	userRouter.HandleFunc("", deleteUserHandler).Methods("DELETE")

	userRouter.HandleFunc("/guardians", createGuardianHandler).Methods("POST")
	userRouter.HandleFunc("/guardians", listGuardiansHandler).Methods("GET")
	userRouter.HandleFunc("/guardians/{id:[0-9]+}", updateGuardianHandler).Methods("PUT")
	userRouter.HandleFunc("/guardians/{id:[0-9]+}", deleteGuardianHandler).Methods("DELETE")

	userRouter.HandleFunc("/files", uploadMedicalFileHandler).Methods("POST")
	userRouter.HandleFunc("/files", listMedicalFilesHandler).Methods("GET")
	userRouter.HandleFunc("/files/{id:[0-9]+}", downloadMedicalFileHandler).Methods("GET")
	userRouter.HandleFunc("/files/{id:[0-9]+}", deleteMedicalFileHandler).Methods("DELETE")

	userRouter.HandleFunc("/assistant", assistantChatHandler).Methods("POST")
	userRouter.HandleFunc("/report", medicalReportHandler).Methods("GET")

	return router
}
