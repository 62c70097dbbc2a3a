// Package audit publishes onboarding events to NATS so downstream
// platform services (ledger, alerting) can follow account setup
// without polling the connector.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/nats-io/nats.go"
)

// Event is one onboarding audit event.
type Event struct {
	AccountID     string `json:"account_id"`
	Step          string `json:"step"`
	Outcome       string `json:"outcome"`
	CorrelationID string `json:"correlation_id"`
	Timestamp     int64  `json:"timestamp"`
}

// Config holds NATS connection configuration.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Subject  string
}

// DataSender publishes audit events. When disabled it accepts events
// and drops them, so controllers never need a nil check.
type DataSender struct {
	conn    *nats.Conn
	subject string
	enabled bool
}

// NewDisabledSender returns a sender that drops every event. Used in
// development environments without a NATS server.
func NewDisabledSender() *DataSender {
	return &DataSender{enabled: false}
}

// NewDataSender connects to NATS with reconnect handling.
func NewDataSender(cfg Config) (*DataSender, error) {
	natsURL := fmt.Sprintf("nats://%s:%s@%s:%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port)

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

	glog.Infof("connected to NATS at %s:%s", cfg.Host, cfg.Port)

	return &DataSender{
		conn:    conn,
		subject: cfg.Subject,
		enabled: true,
	}, nil
}

// SendOnboardingEvent publishes one event. Publish failures are
// logged and returned but never block the user facing response.
func (d *DataSender) SendOnboardingEvent(event Event) error {
	if !d.enabled {
		return nil
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal onboarding event: %w", err)
	}
	if err := d.conn.Publish(d.subject, payload); err != nil {
		glog.Errorf("failed to publish onboarding event: %v", err)
		return err
	}
	return nil
}

// Close drains the NATS connection.
func (d *DataSender) Close() {
	if d.enabled && d.conn != nil {
		d.conn.Close()
	}
}
