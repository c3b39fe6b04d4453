package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const PayslipGeneratedTopic = "shop.payroll.payslip.generated.v1"

type PayslipGeneratedEvent struct {
	PayslipID   string    `json:"payslip_id"`
	ShopID      string    `json:"shop_id"`
	EmployeeID  string    `json:"employee_id"`
	PeriodID    string    `json:"period_id"`
	NetPay      string    `json:"net_pay"`
	GrossPay    string    `json:"gross_pay"`
	GeneratedBy string    `json:"generated_by"`
	GeneratedAt time.Time `json:"generated_at"`
}

type Publisher interface {
	PublishPayslipGenerated(ctx context.Context, event PayslipGeneratedEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishPayslipGenerated(context.Context, PayslipGeneratedEvent) error {
	return nil
}

func (noopPublisher) Close() error { return nil }

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaWriter builds a writer for brokers. Topic is set per message.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter, topic string) Publisher {
	if topic == "" {
		topic = PayslipGeneratedTopic
	}
	return &kafkaPublisher{writer: writer, topic: topic}
}

// PublishPayslipGenerated keys messages by employee so one employee's events
// stay ordered on a partition.
func (p *kafkaPublisher) PublishPayslipGenerated(ctx context.Context, event PayslipGeneratedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.EmployeeID),
		Value: payload,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
