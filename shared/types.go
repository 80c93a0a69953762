package shared

type ServerConfig struct {
	Sqlite    SqliteConfig    `mapstructure:"sqlite" validate:"required"`
	Medportal MedportalConfig `mapstructure:"medportal" validate:"required"`
	Twilio    TwilioConfig    `mapstructure:"twilio"`
	Google    GoogleConfig    `mapstructure:"google"`
	OpenAI    OpenAIConfig    `mapstructure:"openAI"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type MedportalConfig struct {
	PrivateKeyPem string          `mapstructure:"privateKeyPem" validate:"required"`
	AppURL        string          `mapstructure:"appUrl"`
	Cron          CronConfig      `mapstructure:"cron" validate:"required"`
	Listener      ListenerConfig  `mapstructure:"listener" validate:"required"`
	Emergency     EmergencyConfig `mapstructure:"emergency"`
}

type EmergencyConfig struct {
	// Country code prepended to bare 10-digit guardian numbers, e.g. "+91"
	DefaultCountryCode      string `mapstructure:"defaultCountryCode"`
	ActionTokenTTLInMinutes int    `mapstructure:"actionTokenTTLInMinutes"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
	FromNumber          string `mapstructure:"fromNumber"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Bucket                    string      `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string      `mapstructure:"prefix"`
	SqliteBackupSchedule      string      `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync interface{} `mapstructure:"enableSqliteBackupAndSync" validate:"omitempty,bool"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"apiKey"`
	BaseURL string `mapstructure:"baseUrl"`
	Model   string `mapstructure:"model"`
}
