package email

import (
	"fmt"
	"net/smtp"
	"os"
)

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

func (e *EmailService) SendWelcomeEmail(to, username string) error {
	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}

	subject := "Welcome to Blogicum"
	body := fmt.Sprintf(`Hello %s!

Thanks for signing up at Blogicum.

Your profile page is waiting for your first post:

%s/profile/%s/

If you did not sign up at Blogicum, just ignore this email.

---
Blogicum
`, username, domain, username)

	return e.send(to, subject, body)
}

func (e *EmailService) SendPasswordChangedEmail(to string) error {
	subject := "Your Blogicum password was changed"
	body := `Hello!

The password for your Blogicum account was just changed.

If this was not you, contact support immediately.

---
Blogicum
`

	return e.send(to, subject, body)
}

func (e *EmailService) send(to, subject, body string) error {
	if e.host == "" {
		return fmt.Errorf("SMTP_HOST not configured")
	}

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.from, to, subject, body)

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	return smtp.SendMail(addr, auth, e.from, []string{to}, []byte(message))
}
