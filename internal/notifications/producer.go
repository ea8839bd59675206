package notifications

import (
	"context"
	"fmt"
	"time"

	"ticketly/internal/bookings"
	"ticketly/internal/shared/config"
	"ticketly/pkg/logger"

	"github.com/IBM/sarama"
)

// KafkaProducer publishes booking lifecycle messages to Kafka. It satisfies
// bookings.NotificationPublisher.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func NewKafkaProducer(cfg *config.Config) (*KafkaProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash partitioner keeps one event's messages on one partition
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    cfg.Kafka.Topic,
		log:      logger.GetDefault(),
	}, nil
}

func (p *KafkaProducer) PublishBookingConfirmed(ctx context.Context, booking *bookings.Booking) error {
	msg := &BookingConfirmedMessage{
		Type:          TypeBookingConfirmed,
		BookingID:     booking.ID.String(),
		BookingRef:    booking.BookingRef,
		EventID:       booking.EventID.String(),
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		TotalSeats:    booking.TotalSeats,
		TotalAmount:   booking.TotalAmount,
		ConfirmedAt:   booking.CreatedAt,
	}

	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal booking message: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(booking.EventID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("message_type"), Value: []byte(TypeBookingConfirmed)},
			{Key: []byte("booking_ref"), Value: []byte(booking.BookingRef)},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send booking message: %w", err)
	}

	p.log.InfoWithContext(ctx, "booking notification published", map[string]interface{}{
		"topic":     p.topic,
		"partition": partition,
		"offset":    offset,
		"booking":   booking.BookingRef,
	})

	return nil
}

func (p *KafkaProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}
