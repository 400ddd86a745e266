package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"log"
	"sync"
	"time"
)

type Config struct {
	Hostname string `env:"BREVQ_HOSTNAME" envDefault:"localhost"` // used for auto tls, eg brevq.example.com

	DbDriver string `env:"BREVQ_DB_DRIVER" envDefault:"sqlite3" cli:"db-driver"` // sqlite3 (mattn, cgo) or sqlite (modernc, pure go)
	DbURI    string `env:"BREVQ_DB_URI" envDefault:"./brevq.sqlite" cli:"db-uri"`

	Workers     int           `env:"BREVQ_WORKERS" envDefault:"5" cli:"workers"`
	SendTimeout time.Duration `env:"BREVQ_SEND_TIMEOUT" envDefault:"30s"`
	TimeZone    string        `env:"BREVQ_TIMEZONE" envDefault:"UTC" cli:"timezone"` // blacklist rules are evaluated in this zone

	DefaultFrom string `env:"BREVQ_DEFAULT_FROM"` // falls back to user@hostname

	// Seed values for the settings row, only used when the row does not exist yet
	DailyLimit   int    `env:"BREVQ_DAILY_LIMIT" envDefault:"100"`
	CronSchedule string `env:"BREVQ_CRON_SCHEDULE" envDefault:"*/5 * * * *"`
	Enabled      bool   `env:"BREVQ_ENABLED" envDefault:"true"`

	Transport string `env:"BREVQ_TRANSPORT" envDefault:"noop" cli:"transport"` // noop, smtp or resend

	SMTPHost               string `env:"BREVQ_SMTP_HOST" envDefault:"localhost"`
	SMTPPort               int    `env:"BREVQ_SMTP_PORT" envDefault:"587"`
	SMTPUser               string `env:"BREVQ_SMTP_USER"`
	SMTPPass               string `env:"BREVQ_SMTP_PASS,file"`
	SMTPConnections        int    `env:"BREVQ_SMTP_CONNECTIONS" envDefault:"4"`
	SMTPInsecureSkipVerify bool   `env:"BREVQ_SMTP_INSECURE_SKIP_VERIFY" envDefault:"false"`

	ResendAPIKey string `env:"BREVQ_RESEND_API_KEY"`

	APIInterface    string `env:"BREVQ_API_INTERFACE"`
	APIPort         int    `env:"BREVQ_API_PORT" envDefault:"8080" cli:"api-port"`
	APIAutoTLS      bool   `env:"BREVQ_API_AUTO_TLS" envDefault:"false"` // use echo AutoTLSManager for getting a certificate for BREVQ_HOSTNAME
	APIAutoTLSEmail string `env:"BREVQ_API_AUTO_TLS_EMAIL"`              // account email for Let's Encrypt
	APIAutoTLSCache string `env:"BREVQ_API_AUTO_TLS_CACHE" envDefault:"./certs"`

	PosthookURL     string        `env:"BREVQ_POSTHOOK_URL"` // receives a json event after every send attempt
	PosthookTimeout time.Duration `env:"BREVQ_POSTHOOK_TIMEOUT" envDefault:"5s"`

	LogLevel string `env:"BREVQ_LOG_LEVEL" envDefault:"info" cli:"log-level"`
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("could not load time zone %s, using UTC: %v", c.TimeZone, err)
		return time.UTC
	}
	return loc
}

var (
	once sync.Once
	cfg  Config
)

// Get loads the config once, from a .env file if present and then the environment.
func Get() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		var err error
		cfg, err = Parse()
		if err != nil {
			log.Panic("Couldn't parse Config from env: ", err)
		}
	})
	return &cfg
}

func Parse() (Config, error) {
	c := Config{}
	err := env.Parse(&c)
	return c, err
}
