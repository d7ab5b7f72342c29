// Package notify renders transactional messages and hands them to the
// email provider. Errors here are plain errors, never taxonomy errors:
// callers decide whether a failed notification sinks the operation.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/sjw787/HovverAdminDashboard/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const welcomeSubject = "Welcome to Hovver - Your Account Has Been Created"

// emailAPI is the slice of the provider client the mailer uses.
type emailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Welcome carries the placeholder values for the welcome message.
type Welcome struct {
	Name              string
	Email             string
	TemporaryPassword string
	LoginURL          string
}

// Mailer submits rendered messages to the transactional email provider.
type Mailer struct {
	api    emailAPI
	cfg    config.EmailConfig
	tmpl   *template.Template
	logger *zap.Logger
}

// NewMailer parses the embedded templates and wraps the provider client.
func NewMailer(api emailAPI, cfg config.EmailConfig, logger *zap.Logger) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Mailer{api: api, cfg: cfg, tmpl: tmpl, logger: logger}, nil
}

// SendWelcome renders and sends the welcome message with the temporary
// password and login link.
func (m *Mailer) SendWelcome(ctx context.Context, w Welcome) error {
	if w.LoginURL == "" {
		w.LoginURL = m.cfg.FrontendURL
	}

	var htmlBody bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&htmlBody, "welcome.html", w); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	textBody := renderWelcomeText(w)

	out, err := m.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", m.cfg.SenderName, m.cfg.SenderAddress)),
		Destination: &sestypes.Destination{
			ToAddresses: []string{w.Email},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(welcomeSubject), Charset: aws.String("UTF-8")},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(htmlBody.String()), Charset: aws.String("UTF-8")},
					Text: &sestypes.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send welcome email to %s: %w", w.Email, err)
	}

	m.logger.Info("welcome email sent",
		zap.String("recipient", w.Email),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}

func renderWelcomeText(w Welcome) string {
	return fmt.Sprintf(`Welcome to Hovver!

Hello %s,

Your Hovver account has been created!

Your Login Credentials:
Username: %s
Temporary Password: %s

IMPORTANT: For security reasons, you must change this password when you first log in.

To get started:
1. Visit %s
2. Enter your username and temporary password
3. Follow the prompts to set your new password

Best regards,
The Hovver Team
`, w.Name, w.Email, w.TemporaryPassword, w.LoginURL)
}
