package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (c *capturingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *capturingWriter) Close() error {
	c.closed = true
	return nil
}

func TestKafkaPublisher_PublishPayslipGenerated(t *testing.T) {
	w := &capturingWriter{}
	p := NewKafkaPublisher(w, "")

	err := p.PublishPayslipGenerated(context.Background(), PayslipGeneratedEvent{
		PayslipID:  "slip-1",
		EmployeeID: "emp-1",
		PeriodID:   "p-1",
		NetPay:     "20450.00",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, PayslipGeneratedTopic, msg.Topic)
	assert.Equal(t, "emp-1", string(msg.Key))

	var decoded PayslipGeneratedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "slip-1", decoded.PayslipID)
	assert.Equal(t, "20450.00", decoded.NetPay)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()
	assert.NoError(t, p.PublishPayslipGenerated(context.Background(), PayslipGeneratedEvent{}))
	assert.NoError(t, p.Close())
}
