package services

import (
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
)

// EmailService handles transactional email via Amazon SES
type EmailService struct {
	client *ses.SES
	from   string
	appURL string
}

// NewEmailService creates a new email service instance. Returns a disabled
// service (nil client) when SES cannot be initialized so callers degrade to
// logging instead of failing registration.
func NewEmailService() *EmailService {
	svc := &EmailService{
		from:   getEnvOrDefault("EMAIL_FROM", "noreply@edulaunch.app"),
		appURL: getEnvOrDefault("APP_URL", "http://localhost:3000"),
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		log.Printf("SES unavailable, emails will be logged only: %v", err)
		return svc
	}

	svc.client = ses.New(sess)
	return svc
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsConfigured checks if SES is available
func (e *EmailService) IsConfigured() bool {
	return e.client != nil && e.from != ""
}

// SendWelcomeEmail greets a newly registered user
func (e *EmailService) SendWelcomeEmail(toEmail, userName string) error {
	subject := "Welcome to Edulaunch"
	body := fmt.Sprintf(`
		<html>
			<h1>Welcome, %s!</h1>
			<p>Your account is ready. Browse the catalog and enroll in your first course:</p>
			<p><a href="%s">%s</a></p>
		</html>
	`, userName, e.appURL, e.appURL)

	return e.send(toEmail, subject, body)
}

// SendPasswordResetEmail sends a password reset link to the user
func (e *EmailService) SendPasswordResetEmail(toEmail, resetToken, userName string) error {
	if userName == "" {
		userName = "User"
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", e.appURL, resetToken)

	subject := "Reset Your Password - Edulaunch"
	body := fmt.Sprintf(`
		<html>
			<h1>Reset password link</h1>
			<p>Hi %s, please use the following link to reset your password:</p>
			<p><a href="%s">%s</a></p>
		</html>
	`, userName, resetLink, resetLink)

	return e.send(toEmail, subject, body)
}

func (e *EmailService) send(toEmail, subject, htmlBody string) error {
	if !e.IsConfigured() {
		log.Printf("SES not configured. Would send %q to %s", subject, toEmail)
		return nil
	}

	input := &ses.SendEmailInput{
		Source: aws.String(e.from),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(toEmail)},
		},
		ReplyToAddresses: []*string{aws.String(e.from)},
		Message: &ses.Message{
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(htmlBody),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}
