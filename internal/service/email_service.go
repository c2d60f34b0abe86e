package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

// sesAPI is the part of the SES v2 client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailConfig configures the email service
type EmailConfig struct {
	AWSRegion  string
	FromEmail  string
	FromName   string
	AppBaseURL string
	AppName    string
	Debug      bool
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client  sesAPI
	cfg     EmailConfig
	enabled bool
}

// NewEmailService creates a new email service. Without a sender address
// the service is disabled and sends become no-ops.
func NewEmailService(ctx context.Context, cfg EmailConfig) (*EmailService, error) {
	if cfg.AppName == "" {
		cfg.AppName = "F1 Fantasy"
	}
	if cfg.FromEmail == "" {
		log.Info().Msg("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{cfg: cfg}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", cfg.FromEmail).Str("region", cfg.AWSRegion).Msg("Email service enabled")
	return newEmailService(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newEmailService(client sesAPI, cfg EmailConfig) *EmailService {
	if cfg.AppName == "" {
		cfg.AppName = "F1 Fantasy"
	}
	return &EmailService{client: client, cfg: cfg, enabled: true}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var emailLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #222; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #e10600; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f7f7f7; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #e10600; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>{{.Heading}}</h1></div>
		<div class="content">
			{{range .Paragraphs}}<p>{{.}}</p>
			{{end}}<p style="text-align: center;"><a href="{{.Link}}" class="button">{{.Action}}</a></p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
		</div>
		<div class="footer"><p>This is an automated email from {{.AppName}}. Please do not reply.</p></div>
	</div>
</body>
</html>
`))

type emailContent struct {
	AppName    string
	Heading    string
	Paragraphs []string
	Action     string
	Link       string
}

func (c emailContent) render() (htmlBody, textBody string, err error) {
	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, c); err != nil {
		return "", "", fmt.Errorf("failed to render email: %w", err)
	}

	var text bytes.Buffer
	for _, p := range c.Paragraphs {
		text.WriteString(p)
		text.WriteString("\n\n")
	}
	fmt.Fprintf(&text, "%s: %s\n\n---\nThis is an automated email from %s. Please do not reply.\n", c.Action, c.Link, c.AppName)
	return buf.String(), text.String(), nil
}

// SendLeagueInvite emails a registration link that joins the invited league
func (s *EmailService) SendLeagueInvite(ctx context.Context, toEmail, leagueName, inviterName, link string) error {
	content := emailContent{
		AppName: s.cfg.AppName,
		Heading: "You're invited to " + leagueName,
		Paragraphs: []string{
			fmt.Sprintf("%s has invited you to join the %s league on %s.", inviterName, leagueName, s.cfg.AppName),
			"Create your account with the link below and you will be added to the league straight away.",
			"This invite expires in 7 days.",
		},
		Action: "Accept Invite",
		Link:   link,
	}
	return s.send(ctx, toEmail, fmt.Sprintf("Join %s on %s", leagueName, s.cfg.AppName), content)
}

// SendWelcome emails a new user after registration
func (s *EmailService) SendWelcome(ctx context.Context, toEmail, name string) error {
	content := emailContent{
		AppName: s.cfg.AppName,
		Heading: "Welcome to " + s.cfg.AppName,
		Paragraphs: []string{
			fmt.Sprintf("Hi %s,", name),
			"Your account is ready. Create a league, invite your friends and pick your team before lights out.",
		},
		Action: "Get Started",
		Link:   s.cfg.AppBaseURL + "/dashboard",
	}
	return s.send(ctx, toEmail, "Welcome to "+s.cfg.AppName, content)
}

func (s *EmailService) send(ctx context.Context, toEmail, subject string, content emailContent) error {
	if !s.enabled {
		log.Info().Str("to", toEmail).Str("subject", subject).Msg("Skipping email send (service disabled)")
		return nil
	}

	htmlBody, textBody, err := content.render()
	if err != nil {
		return err
	}

	fromAddress := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if s.cfg.Debug {
		log.Debug().Str("from", fromAddress).Str("to", toEmail).Str("subject", subject).
			Int("html_bytes", len(htmlBody)).Int("text_bytes", len(textBody)).Msg("Calling SES SendEmail")
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	event := log.Info().Str("to", toEmail).Str("subject", subject)
	if result != nil && result.MessageId != nil {
		event = event.Str("message_id", *result.MessageId)
	}
	event.Msg("Email sent")
	return nil
}
