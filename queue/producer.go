package queue

import (
	"context"
	"crypto/tls"
	"log"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// CertificateIssued is published after a certificate file has been stored.
type CertificateIssued struct {
	Event         string    `json:"event"`
	InternID      uint      `json:"internId"`
	InternCode    string    `json:"internEmployeeId"`
	CoordinatorID uint      `json:"coordinatorId"`
	Type          string    `json:"type"`
	FilePath      string    `json:"filePath"`
	URL           string    `json:"url,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
}

type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns nil when no broker is configured; a nil *Producer
// skips every publish.
func NewProducer(broker, topic, username, password string) *Producer {
	if broker == "" {
		return nil
	}

	transport := &kafka.Transport{}
	if username != "" {
		transport.SASL = plain.Mechanism{
			Username: username,
			Password: password,
		}
		transport.TLS = &tls.Config{}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	if p == nil || p.writer == nil {
		log.Println("[QUEUE] producer not configured - skip publish")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

// PublishCertificateIssued keys the message by intern so a consumer sees one
// intern's certificates in order.
func (p *Producer) PublishCertificateIssued(ctx context.Context, evt CertificateIssued) error {
	evt.Event = "certificate.issued"
	value, err := sonic.Marshal(evt)
	if err != nil {
		return err
	}
	return p.PublishMessage(ctx, []byte(strconv.FormatUint(uint64(evt.InternID), 10)), value)
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
