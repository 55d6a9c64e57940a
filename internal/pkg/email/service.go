package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// logSender is used when no API key is configured.
type logSender struct{}

func (logSender) Send(ctx context.Context, msg *EmailMessage) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email delivery disabled, message logged")
	return nil
}

// Template names.
const (
	TemplateBookingCreated = "booking_created"
	TemplateBookingStatus  = "booking_status"
	TemplateVerifyEmail    = "verify_email"
	TemplatePlain          = "plain"
)

// Service renders templates and delivers them through an async queue.
type Service struct {
	sender       Sender
	templates    map[string]*template.Template
	baseTemplate *template.Template
	queue        chan *QueuedEmail
	wg           sync.WaitGroup
	sendTimeout  time.Duration
}

// QueuedEmail represents an email in the send queue
type QueuedEmail struct {
	To           string
	ToName       string
	Subject      string
	TemplateName string
	Data         interface{}
}

// NewService creates the service and starts its worker. With an empty API
// key messages are only logged.
func NewService(config SendGridConfig) *Service {
	var sender Sender = logSender{}
	if config.APIKey != "" {
		sender = NewSendGridClient(config)
	}
	return NewServiceWithSender(sender, 100)
}

// NewServiceWithSender creates a service around an arbitrary Sender.
func NewServiceWithSender(sender Sender, queueSize int) *Service {
	s := &Service{
		sender:       sender,
		templates:    make(map[string]*template.Template),
		baseTemplate: template.Must(template.New("base").Parse(BaseTemplate)),
		queue:        make(chan *QueuedEmail, queueSize),
		sendTimeout:  15 * time.Second,
	}

	for name, content := range map[string]string{
		TemplateBookingCreated: BookingCreatedTemplate,
		TemplateBookingStatus:  BookingStatusTemplate,
		TemplateVerifyEmail:    VerifyEmailTemplate,
		TemplatePlain:          PlainTemplate,
	} {
		s.templates[name] = template.Must(template.New(name).Parse(content))
	}

	s.wg.Add(1)
	go s.worker()
	return s
}

func (s *Service) worker() {
	defer s.wg.Done()

	for email := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		if err := s.send(ctx, email); err != nil {
			log.Error().Err(err).
				Str("to", email.To).
				Str("template", email.TemplateName).
				Msg("failed to send email")
		}
		cancel()
	}
}

func (s *Service) send(ctx context.Context, email *QueuedEmail) error {
	tmpl, ok := s.templates[email.TemplateName]
	if !ok {
		return fmt.Errorf("email template %q not found", email.TemplateName)
	}

	var content bytes.Buffer
	if err := tmpl.Execute(&content, email.Data); err != nil {
		return fmt.Errorf("render %s: %w", email.TemplateName, err)
	}

	var html bytes.Buffer
	if err := s.baseTemplate.Execute(&html, map[string]interface{}{
		"Content": template.HTML(content.String()),
	}); err != nil {
		return fmt.Errorf("render base: %w", err)
	}

	return s.sender.Send(ctx, &EmailMessage{
		To:          email.To,
		ToName:      email.ToName,
		Subject:     email.Subject,
		HTMLContent: html.String(),
	})
}

// Queue adds an email to the async send queue; it never blocks and drops the
// message when the queue is full.
func (s *Service) Queue(to, toName, templateName, subject string, data interface{}) bool {
	select {
	case s.queue <- &QueuedEmail{
		To:           to,
		ToName:       toName,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	}:
		return true
	default:
		log.Warn().Str("to", to).Str("template", templateName).Msg("email queue full, dropping email")
		return false
	}
}

// Notify queues a plain message. It satisfies the booking notifier's email
// contract notify(to, subject, body).
func (s *Service) Notify(ctx context.Context, to, subject, body string) error {
	if !s.Queue(to, "", TemplatePlain, subject, map[string]string{"Body": body}) {
		return fmt.Errorf("email queue full")
	}
	return nil
}

// SendSync renders and sends immediately.
func (s *Service) SendSync(ctx context.Context, to, toName, templateName, subject string, data interface{}) error {
	return s.send(ctx, &QueuedEmail{
		To:           to,
		ToName:       toName,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	})
}

// Close drains the queue and stops the worker.
func (s *Service) Close() {
	close(s.queue)
	s.wg.Wait()
}

// BookingEmail is the data for booking templates.
type BookingEmail struct {
	Name           string
	ApartmentTitle string
	StartDate      string
	EndDate        string
	TotalPrice     string
	Status         string
	BookingURL     string
}

// SendBookingCreated queues the booking confirmation for the tenant.
func (s *Service) SendBookingCreated(to string, data BookingEmail) bool {
	return s.Queue(to, data.Name, TemplateBookingCreated, "Booking request received: "+data.ApartmentTitle, data)
}

// SendBookingStatus queues a status change notice.
func (s *Service) SendBookingStatus(to string, data BookingEmail) bool {
	return s.Queue(to, data.Name, TemplateBookingStatus, "Booking "+data.Status+": "+data.ApartmentTitle, data)
}

// SendVerifyEmail queues the verification link.
func (s *Service) SendVerifyEmail(to, name, verifyURL string) bool {
	return s.Queue(to, name, TemplateVerifyEmail, "Confirm your email", map[string]string{
		"Name":      name,
		"VerifyURL": verifyURL,
	})
}
