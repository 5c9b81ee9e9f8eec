package config

import (
	"os"
	"strings"
	"time"
)

// OperatorEnv holds one ferry operator's upstream endpoint settings.
type OperatorEnv struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PhonePeEnv holds the payment gateway (v2 checkout) settings.
type PhonePeEnv struct {
	BaseURL      string
	AuthURL      string
	MerchantID   string
	ClientID     string
	ClientSecret string
	SaltKey      string
	SaltIndex    string
	RedirectURL  string
}

type Env struct {
	AppAddr   string
	GinMode   string
	JWTSecret string

	// TicketDir is where generated/downloaded ticket PDFs are stored.
	TicketDir string

	Sealink    OperatorEnv
	Makruzz    OperatorEnv
	GreenOcean OperatorEnv

	PhonePe PhonePeEnv
}

func LoadEnv() Env {
	return Env{
		AppAddr:   getenv("APP_ADDR", ":8080"),
		GinMode:   strings.TrimSpace(os.Getenv("GIN_MODE")),
		JWTSecret: getenv("JWT_SECRET", "change-me-in-prod"),
		TicketDir: getenv("TICKET_DIR", "./data/tickets"),

		Sealink: OperatorEnv{
			BaseURL: getenv("SEALINK_BASE_URL", "http://api.dev.gonautika.com:8012"),
			APIKey:  strings.TrimSpace(os.Getenv("SEALINK_API_KEY")),
			Timeout: getenvDuration("SEALINK_TIMEOUT", 15*time.Second),
		},
		Makruzz: OperatorEnv{
			BaseURL: getenv("MAKRUZZ_BASE_URL", "https://staging.makruzz.com/booking_api"),
			APIKey:  strings.TrimSpace(os.Getenv("MAKRUZZ_API_KEY")),
			Timeout: getenvDuration("MAKRUZZ_TIMEOUT", 15*time.Second),
		},
		GreenOcean: OperatorEnv{
			BaseURL: getenv("GREENOCEAN_BASE_URL", "https://tickets.greenoceanseaways.com/api-v1"),
			APIKey:  strings.TrimSpace(os.Getenv("GREENOCEAN_API_KEY")),
			Timeout: getenvDuration("GREENOCEAN_TIMEOUT", 15*time.Second),
		},

		PhonePe: PhonePeEnv{
			BaseURL:      getenv("PHONEPE_BASE_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox"),
			AuthURL:      getenv("PHONEPE_AUTH_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox/v1/oauth/token"),
			MerchantID:   strings.TrimSpace(os.Getenv("PHONEPE_MERCHANT_ID")),
			ClientID:     strings.TrimSpace(os.Getenv("PHONEPE_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(os.Getenv("PHONEPE_CLIENT_SECRET")),
			SaltKey:      strings.TrimSpace(os.Getenv("PHONEPE_SALT_KEY")),
			SaltIndex:    getenv("PHONEPE_SALT_INDEX", "1"),
			RedirectURL:  getenv("PHONEPE_REDIRECT_URL", "http://localhost:3000/checkout/status"),
		},
	}
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
