// Package email sends order notification mail via SMTP.
package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type Service struct {
	config Config
	server string
	auth   smtp.Auth
}

func NewService(config Config) *Service {
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   smtp.PlainAuth("", config.Username, config.Password, config.Host),
	}
}

// IsConfigured reports whether mail can be sent. An empty host disables
// notifications without failing requests.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

func (s *Service) SendEmail(to []string, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		from,
		subject,
		body,
	))

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg)
}

// OrderAssignedData fills the assignment notification template.
type OrderAssignedData struct {
	AppName    string
	UserName   string
	OrderID    int64
	Department string
	AssignedBy string
}

var orderAssignedTmpl = template.Must(template.New("orderAssigned").Parse(
	`Hello {{.UserName}},

Order #{{.OrderID}} has been assigned to you in {{.Department}}{{if .AssignedBy}} by {{.AssignedBy}}{{end}}.

Open {{.AppName}} to review the nesting rows selected for you.
`))

// SendOrderAssigned notifies an employee that an order landed in their
// queue.
func (s *Service) SendOrderAssigned(to string, data OrderAssignedData) error {
	if data.AppName == "" {
		data.AppName = "SwiftFlow"
	}
	var body bytes.Buffer
	if err := orderAssignedTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render assignment mail: %w", err)
	}
	subject := fmt.Sprintf("Order #%d assigned to you", data.OrderID)
	return s.SendEmail([]string{to}, subject, body.String())
}

// StageChangedData fills the stage transition notification template.
type StageChangedData struct {
	AppName    string
	OrderID    int64
	Department string
	Comment    string
}

var stageChangedTmpl = template.Must(template.New("stageChanged").Parse(
	`Order #{{.OrderID}} moved to {{.Department}}.
{{if .Comment}}
Note: {{.Comment}}
{{end}}
Sent by {{.AppName}}.
`))

// SendStageChanged notifies a department inbox about a stage transition.
func (s *Service) SendStageChanged(to []string, data StageChangedData) error {
	if data.AppName == "" {
		data.AppName = "SwiftFlow"
	}
	var body bytes.Buffer
	if err := stageChangedTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render stage mail: %w", err)
	}
	subject := fmt.Sprintf("Order #%d moved to %s", data.OrderID, data.Department)
	return s.SendEmail(to, subject, body.String())
}
