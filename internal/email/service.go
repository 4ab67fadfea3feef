package email

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"

	"github.com/example/ec-marketplace/internal/domain/order"
)

// Config holds SMTP delivery settings. An empty Host disables delivery and
// the service logs the rendered mail instead, which is what local
// development runs on.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Service struct {
	config Config
}

func NewService(config Config) *Service {
	return &Service{config: config}
}

type orderMail struct {
	Reference string
	Buyer     order.Buyer
	Items     []order.Item
	Total     int64
	Pending   bool
}

// SendOrderConfirmation mails the order summary right after checkout.
func (s *Service) SendOrderConfirmation(reference string, buyer order.Buyer, items []order.Item, total int64, status order.Status) error {
	data := orderMail{
		Reference: reference,
		Buyer:     buyer,
		Items:     items,
		Total:     total,
		Pending:   status == order.StatusPending,
	}

	var body bytes.Buffer
	if err := orderConfirmationTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render order confirmation: %w", err)
	}

	subject := fmt.Sprintf("Order confirmation %s", reference)
	return s.send(buyer.Email, subject, body.String())
}

// SendPaymentReceived mails the receipt once an order reaches success.
func (s *Service) SendPaymentReceived(reference string, buyer order.Buyer, total int64) error {
	data := orderMail{
		Reference: reference,
		Buyer:     buyer,
		Total:     total,
	}

	var body bytes.Buffer
	if err := paymentReceivedTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render payment received: %w", err)
	}

	subject := fmt.Sprintf("Payment received for order %s", reference)
	return s.send(buyer.Email, subject, body.String())
}

func (s *Service) send(to, subject, body string) error {
	if s.config.Host == "" {
		log.Printf("[Email] delivery disabled, would send to %s: %s", to, subject)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.config.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
