// Package config loads the service settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	MailDriverLog      = "log"
	MailDriverSMTP     = "smtp"
	MailDriverSendGrid = "sendgrid"
)

type App struct {
	// JWT
	JWTSecret               string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer               string `envconfig:"JWT_ISSUER" default:"go-auth-signup"`
	JWTExpireHours          int    `envconfig:"JWT_EXPIRE_HOURS" default:"24"`
	VerificationExpireHours int    `envconfig:"VERIFICATION_EXPIRE_HOURS" default:"48"`
	// App
	Env       string `envconfig:"APP_ENV" default:"development"`
	AppName   string `envconfig:"APP_NAME" default:"youl"`
	AppEmail  string `envconfig:"APP_EMAIL" default:"hello@youl.app"`
	UIURL     string `envconfig:"UI_URL" default:"http://localhost:3000"`
	UseHashid bool   `envconfig:"USE_HASHID" default:"false"`
	// Storage
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"file::memory:?cache=shared"`
	DebugSQL    bool   `envconfig:"DEBUG_SQL" default:"false"`
	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// Mail
	MailDriver     string `envconfig:"MAIL_DRIVER" default:"log"`
	SMTPHost       string `envconfig:"SMTP_HOST" default:"smtp.ethereal.email"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser       string `envconfig:"SMTP_USER"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func Load(files ...string) (App, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return App{}, err
		}
	}

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, err
	}

	if err := c.Validate(); err != nil {
		return App{}, err
	}

	return c, nil
}

func (c App) Validate() error {
	switch c.MailDriver {
	case MailDriverLog, MailDriverSMTP:
	case MailDriverSendGrid:
		if c.SendGridAPIKey == "" {
			return errors.New("SENDGRID_API_KEY is required when MAIL_DRIVER=sendgrid")
		}
	default:
		return errors.New("unknown MAIL_DRIVER " + c.MailDriver)
	}
	return nil
}

func (c App) IsProduction() bool {
	return c.Env == "production"
}

func (c App) GetSigningKey() string          { return c.JWTSecret }
func (c App) GetIssuer() string              { return c.JWTIssuer }
func (c App) GetTokenExpiration() int        { return c.JWTExpireHours }
func (c App) GetVerificationExpiration() int { return c.VerificationExpireHours }
func (c App) GetAppName() string             { return c.AppName }
func (c App) GetAppEmail() string            { return c.AppEmail }
func (c App) GetEnvironment() string         { return c.Env }
func (c App) GetUseHashid() bool             { return c.UseHashid }

// GetVerificationURL is where the UI handles verification links
func (c App) GetVerificationURL() string {
	return strings.TrimRight(c.UIURL, "/") + "/verify"
}
