package queue

import (
	"errors"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrAlreadySettled is returned when a message is acked or nacked a second time
var ErrAlreadySettled = errors.New("message already settled")

// Message is a decoded job together with the delivery it arrived on. It can be
// settled once; later Ack or Nack calls return ErrAlreadySettled without touching
// the channel.
type Message struct {
	job      *Job
	delivery amqp.Delivery
	settled  atomic.Bool
}

func newMessage(job *Job, delivery amqp.Delivery) *Message {
	return &Message{job: job, delivery: delivery}
}

// Ack acknowledges the message
func (m *Message) Ack() error {
	if !m.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return m.delivery.Ack(false)
}

// Nack negatively acknowledges the message. Without requeue it is dead-lettered.
func (m *Message) Nack(requeue bool) error {
	if !m.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return m.delivery.Nack(false, requeue)
}

// GetJob returns the decoded job
func (m *Message) GetJob() *Job {
	return m.job
}

// Redelivered reports whether the broker has delivered this message before
func (m *Message) Redelivered() bool {
	return m.delivery.Redelivered
}
