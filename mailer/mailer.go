// Package mailer renders and delivers the account verification email.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	verificationHTMLTemplate = "email_verification"
	verificationTextTemplate = "email_verification_text"
	productionEnvironment    = "production"
)

// Logger is satisfied by *slog.Logger
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Message is a rendered email ready to be delivered
type Message struct {
	FromName  string
	FromEmail string
	To        string
	ToName    string
	Subject   string
	Text      string
	HTML      string
}

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// VerificationMailer composes the verification email and hands it to a Sender
type VerificationMailer struct {
	sender      Sender
	engine      *django.Engine
	appName     string
	appEmail    string
	environment string
	logger      Logger
}

type Option func(*VerificationMailer)

func WithAppName(name string) Option {
	return func(m *VerificationMailer) {
		m.appName = name
	}
}

func WithAppEmail(email string) Option {
	return func(m *VerificationMailer) {
		m.appEmail = email
	}
}

func WithEnvironment(env string) Option {
	return func(m *VerificationMailer) {
		m.environment = env
	}
}

func WithLogger(logger Logger) Option {
	return func(m *VerificationMailer) {
		m.logger = logger
	}
}

func NewVerificationMailer(sender Sender, opts ...Option) (*VerificationMailer, error) {
	if sender == nil {
		return nil, goerrors.New("mailer requires a sender", goerrors.CategoryBadInput)
	}

	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open email templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load email templates")
	}

	m := &VerificationMailer{
		sender:      sender,
		engine:      engine,
		appName:     "signup",
		appEmail:    "hello@example.com",
		environment: "development",
		logger:      nopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m, nil
}

// SendVerificationEmail renders the verification email for url and sends it
func (m *VerificationMailer) SendVerificationEmail(ctx context.Context, to, name, url string) error {
	msg, err := m.Compose(to, name, url)
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		m.logger.Error("verification email not sent", "to", to, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send verification email")
	}

	m.logger.Debug("verification email sent", "to", to)

	return nil
}

// Compose renders the verification email without sending it
func (m *VerificationMailer) Compose(to, name, url string) (*Message, error) {
	subject := m.Subject()
	binding := map[string]any{
		"name":     name,
		"url":      url,
		"app_name": m.appName,
		"subject":  subject,
	}

	html, err := m.render(verificationHTMLTemplate, binding)
	if err != nil {
		return nil, err
	}

	text, err := m.render(verificationTextTemplate, binding)
	if err != nil {
		return nil, err
	}

	return &Message{
		FromName:  m.appName,
		FromEmail: m.appEmail,
		To:        to,
		ToName:    name,
		Subject:   subject,
		Text:      strings.TrimSpace(text),
		HTML:      html,
	}, nil
}

// Subject carries the environment name outside of production
func (m *VerificationMailer) Subject() string {
	subject := "Hi, please verify your email − " + m.appName
	if m.environment != productionEnvironment {
		subject += " (" + m.environment + ")"
	}
	return subject
}

func (m *VerificationMailer) render(name string, binding map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := m.engine.Render(&buf, name, binding); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render "+name)
	}
	return buf.String(), nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
