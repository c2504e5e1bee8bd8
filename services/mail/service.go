package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmlTemplate "html/template"
	"path/filepath"
	textTemplate "text/template"
	"time"

	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const (
	TemplateVerifyEmail   = "verify_email"
	TemplateResetPassword = "reset_password"
)

//go:embed templates/*.html templates/*.txt
var defaultTemplates embed.FS

// Client is the subset of *mail.Client the service sends through.
type Client interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Service struct {
	config        *config.MailConfig
	client        Client
	htmlTemplates *htmlTemplate.Template
	textTemplates *textTemplate.Template
	logger        *logging.Service
}

// NewService builds an SMTP-backed service, or a log-only one when mail is
// disabled.
func NewService(cfg *config.MailConfig, logger *logging.Service) (*Service, error) {
	if !cfg.Enabled {
		logger.Info("mail delivery disabled, messages will be logged only")
		return NewServiceWithClient(cfg, logger, &logClient{logger: logger})
	}

	client, err := newSMTPClient(cfg)
	if err != nil {
		logger.Error("failed to create mail client",
			zap.Error(err),
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port))
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	logger.Info("mail service initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("encryption", cfg.Encryption))

	return NewServiceWithClient(cfg, logger, client)
}

func NewServiceWithClient(cfg *config.MailConfig, logger *logging.Service, client Client) (*Service, error) {
	if cfg.FromAddress == "" {
		return nil, errors.New("mail from address is required")
	}

	s := &Service{
		config: cfg,
		client: client,
		logger: logger,
	}
	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}
	return s, nil
}

func newSMTPClient(cfg *config.MailConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}

	switch cfg.Encryption {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	return mail.NewClient(cfg.Host, opts...)
}

// loadTemplates parses the embedded defaults, then lets files in
// TemplatesDir override them by name.
func (s *Service) loadTemplates() error {
	var err error
	s.htmlTemplates, err = htmlTemplate.ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return err
	}
	s.textTemplates, err = textTemplate.ParseFS(defaultTemplates, "templates/*.txt")
	if err != nil {
		return err
	}

	if s.config.TemplatesDir == "" {
		return nil
	}

	htmlPattern := filepath.Join(s.config.TemplatesDir, "*.html")
	if matches, _ := filepath.Glob(htmlPattern); len(matches) > 0 {
		if _, err := s.htmlTemplates.ParseFiles(matches...); err != nil {
			return fmt.Errorf("failed to parse HTML templates: %w", err)
		}
	}

	textPattern := filepath.Join(s.config.TemplatesDir, "*.txt")
	if matches, _ := filepath.Glob(textPattern); len(matches) > 0 {
		if _, err := s.textTemplates.ParseFiles(matches...); err != nil {
			return fmt.Errorf("failed to parse text templates: %w", err)
		}
	}

	s.logger.Info("mail templates loaded", zap.String("templates_dir", s.config.TemplatesDir))
	return nil
}

func (s *Service) newMessage(to []string, subject string) (*mail.Msg, error) {
	message := mail.NewMsg()

	if s.config.FromName != "" {
		if err := message.FromFormat(s.config.FromName, s.config.FromAddress); err != nil {
			return nil, fmt.Errorf("failed to set FROM address: %w", err)
		}
	} else if err := message.From(s.config.FromAddress); err != nil {
		return nil, fmt.Errorf("failed to set FROM address: %w", err)
	}

	if err := message.To(to...); err != nil {
		return nil, fmt.Errorf("failed to set TO addresses: %w", err)
	}
	message.Subject(subject)

	return message, nil
}

// SendTemplate renders templateName (.html and/or .txt) with data and
// delivers it to the recipients.
func (s *Service) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error {
	message, err := s.newMessage(to, subject)
	if err != nil {
		return err
	}

	html, text, err := s.render(templateName, data)
	if err != nil {
		s.logger.Error("failed to render template", zap.Error(err), zap.String("template", templateName))
		return fmt.Errorf("failed to render template: %w", err)
	}

	switch {
	case html != "" && text != "":
		message.SetBodyString(mail.TypeTextHTML, html)
		message.AddAlternativeString(mail.TypeTextPlain, text)
	case html != "":
		message.SetBodyString(mail.TypeTextHTML, html)
	default:
		message.SetBodyString(mail.TypeTextPlain, text)
	}

	return s.send(ctx, message, templateName)
}

func (s *Service) send(ctx context.Context, message *mail.Msg, templateName string) error {
	start := time.Now()
	if err := s.client.DialAndSendWithContext(ctx, message); err != nil {
		s.logger.Error("failed to send email",
			zap.Error(err),
			zap.String("template", templateName),
			zap.Duration("attempt_duration", time.Since(start)))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("email sent",
		zap.String("template", templateName),
		zap.Duration("send_duration", time.Since(start)))
	return nil
}

func (s *Service) render(templateName string, data map[string]any) (string, string, error) {
	var html, text string

	if t := s.htmlTemplates.Lookup(templateName + ".html"); t != nil {
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
		}
		html = buf.String()
	}

	if t := s.textTemplates.Lookup(templateName + ".txt"); t != nil {
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", "", fmt.Errorf("failed to execute text template: %w", err)
		}
		text = buf.String()
	}

	if html == "" && text == "" {
		return "", "", fmt.Errorf("template '%s' not found", templateName)
	}
	return html, text, nil
}

type logClient struct {
	logger *logging.Service
}

func (c *logClient) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	for _, m := range messages {
		to, _ := m.GetRecipients()
		c.logger.Info("email not sent, delivery disabled",
			zap.Strings("recipients", to),
			zap.Strings("subject", m.GetGenHeader(mail.HeaderSubject)))
	}
	return nil
}
