package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the application configuration structure
type (
	AppConfig struct {
		Backend    BackendConfig
		Push       PushConfig
		Chat       ChatConfig
		Feed       FeedConfig
		Store      StoreConfig
		Logging    LoggingConfig
		ConfigFile string
	}

	// BackendConfig points at the Barq REST API the console consumes.
	BackendConfig struct {
		BaseURL     string `env:"BACKEND_URL"`
		BearerToken string `env:"BACKEND_TOKEN"`
	}

	// PushConfig holds the push provider project credentials.
	PushConfig struct {
		ProviderURL string `env:"PUSH_PROVIDER_URL"`
		APIKey      string `env:"PUSH_API_KEY"`
		SenderID    string `env:"PUSH_SENDER_ID"`
		AppID       string `env:"PUSH_APP_ID"`
		VapidKey    string `env:"PUSH_VAPID_KEY"`
		Locale      string `env:"PUSH_LOCALE"`
	}

	ChatConfig struct {
		GatewayURL        string        `env:"CHAT_GATEWAY_URL"`
		NamespacePath     string        `env:"CHAT_NAMESPACE_PATH"`
		HandshakeTimeout  time.Duration // bounded handshake per attempt
		ReconnectAttempts int           // automatic attempts before giving up
		ReconnectDelay    time.Duration // fixed base delay between attempts
		HistoryPageSize   int
	}

	FeedConfig struct {
		PageSize     int
		PollInterval time.Duration
	}
)

var (
	Backend *BackendConfig
	Push    *PushConfig
	Chat    *ChatConfig
	Feed    *FeedConfig
	Store   *StoreConfig
	Logging *LoggingConfig
)

func Setup() {

	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("Error loading .env file:", err)
	}

	console := &AppConfig{
		Backend: BackendConfig{
			BaseURL:     os.Getenv("BACKEND_URL"),
			BearerToken: os.Getenv("BACKEND_TOKEN"),
		},
		Push: PushConfig{
			ProviderURL: os.Getenv("PUSH_PROVIDER_URL"),
			APIKey:      os.Getenv("PUSH_API_KEY"),
			SenderID:    os.Getenv("PUSH_SENDER_ID"),
			AppID:       os.Getenv("PUSH_APP_ID"),
			VapidKey:    os.Getenv("PUSH_VAPID_KEY"),
			Locale:      getEnvOr("PUSH_LOCALE", "en"),
		},
		Chat: ChatConfig{
			GatewayURL:        os.Getenv("CHAT_GATEWAY_URL"),
			NamespacePath:     getEnvOr("CHAT_NAMESPACE_PATH", "/support"),
			HandshakeTimeout:  time.Duration(getEnvAsInt("CHAT_HANDSHAKE_TIMEOUT_SEC", 20)) * time.Second,
			ReconnectAttempts: getEnvAsInt("CHAT_RECONNECT_ATTEMPTS", 3),
			ReconnectDelay:    time.Duration(getEnvAsInt("CHAT_RECONNECT_DELAY_MS", 1000)) * time.Millisecond,
			HistoryPageSize:   getEnvAsInt("CHAT_HISTORY_PAGE_SIZE", 20),
		},
		Feed: FeedConfig{
			PageSize:     getEnvAsInt("FEED_PAGE_SIZE", 10),
			PollInterval: time.Duration(getEnvAsInt("FEED_POLL_INTERVAL_SEC", 30)) * time.Second,
		},
		Store: StoreConfig{
			Path:  getEnvOr("STORE_PATH", "console.db"),
			Debug: os.Getenv("STORE_DEBUG") == "true",
		},
		Logging: LoggingConfig{
			Type:       os.Getenv("LOG_TYPE"),
			ServerName: os.Getenv("SERVER_NAME"),
		},
	}

	console.Store.Setup()
	console.Logging.Setup()

	Backend = &console.Backend
	Push = &console.Push
	Chat = &console.Chat
	Feed = &console.Feed
	Store = &console.Store
	Logging = &console.Logging
}

func Config(key string) string {
	return os.Getenv(key)
}

// Helper convert env -> int
func getEnvAsInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvOr(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
