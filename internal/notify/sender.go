// Package notify publishes payment outcome notifications for the platform's
// message dispatcher to deliver to the user.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/nats-io/nats.go"

	"librapay/internal/conf"
)

// PaymentNotification is the payload delivered to the user-facing messaging
// system. Amount is already formatted to 2 fractional digits.
type PaymentNotification struct {
	UserID      string `json:"user_id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
	URL         string `json:"url"`
	Timestamp   int64  `json:"timestamp"`
}

// Sender handles NATS communication for payment notifications.
type Sender struct {
	conn    *nats.Conn
	subject string
	enabled bool
}

// Config holds NATS configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Subject  string
}

// NewSender connects to NATS. In development mode the sender is disabled and
// every publish becomes a no-op.
func NewSender() (*Sender, error) {
	if conf.GetDevMode() {
		glog.Infof("Development environment detected, NATS notification sender disabled")
		return &Sender{enabled: false}, nil
	}

	config := loadConfig()

	natsURL := fmt.Sprintf("nats://%s:%s@%s:%s",
		config.Username, config.Password, config.Host, config.Port)

	conn, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			glog.Warningf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			glog.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	glog.Infof("Connected to NATS server at %s:%s", config.Host, config.Port)

	return &Sender{
		conn:    conn,
		subject: config.Subject,
		enabled: true,
	}, nil
}

func loadConfig() Config {
	return Config{
		Host:     getEnvOrDefault("NATS_HOST", "localhost"),
		Port:     getEnvOrDefault("NATS_PORT", "4222"),
		Username: getEnvOrDefault("NATS_USERNAME", ""),
		Password: getEnvOrDefault("NATS_PASSWORD", ""),
		Subject:  getEnvOrDefault("NATS_SUBJECT_PAYMENT_NOTIFY", "system.payment.notify"),
	}
}

// SendPaymentNotification publishes the notification to NATS.
func (s *Sender) SendPaymentNotification(n PaymentNotification) error {
	if !s.enabled {
		glog.Infof("NATS notification sender is disabled, skipping message send")
		return nil
	}

	if n.Timestamp == 0 {
		n.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal payment notification: %w", err)
	}

	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish payment notification: %w", err)
	}

	glog.Infof("Sent %s notification for order %s to user %s", n.Kind, n.OrderID, n.UserID)
	return nil
}

// Close drains the connection.
func (s *Sender) Close() {
	if s.enabled && s.conn != nil {
		s.conn.Close()
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
