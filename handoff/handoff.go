// Package handoff forwards a support conversation to the human agent queue.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

const (
	BackendQStash   = "qstash"
	BackendRabbitMQ = "rabbitmq"

	DefaultTopic = "eazybank-handoff-topic"
)

// Message is the payload human agents receive.
type Message struct {
	UserMessage         string   `json:"user_message"`
	ConversationHistory []string `json:"conversation_history"`
	UserID              string   `json:"user_id"`
	SessionID           string   `json:"session_id"`
}

// Publisher delivers raw payloads to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Target(topic string) string
}

type Config struct {
	Backend string `default:"qstash"`
	Topic   string `default:"eazybank-handoff-topic"`
	// UserID is reported for sessions the store does not know.
	UserID string `split_words:"true" default:"eazybank_support_user_1"`
	// DeliveryURL is the public URL QStash delivers to; it is checked
	// against the signature subject when set.
	DeliveryURL string `split_words:"true"`
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendQStash, BackendRabbitMQ:
	default:
		return fmt.Errorf("unsupported handoff backend %q", c.Backend)
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("handoff topic is required")
	}
	return nil
}

type Service struct {
	store     statex.Store
	publisher Publisher
	topic     string
	userID    string
}

func NewService(store statex.Store, publisher Publisher, cfg Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if publisher == nil {
		return nil, errors.New("handoff publisher is required")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = DefaultTopic
	}
	return &Service{
		store:     store,
		publisher: publisher,
		topic:     topic,
		userID:    strings.TrimSpace(cfg.UserID),
	}, nil
}

// Publish sends userMessage and the session transcript to the handoff topic.
// The outcome is reported as text for the model to relay, never as an error.
func (s *Service) Publish(ctx context.Context, userMessage, sessionID string) string {
	target := s.publisher.Target(s.topic)
	logger := log.Ctx(ctx).With().
		Str("session_id", sessionID).
		Str("target", target).
		Logger()

	msg, err := s.message(ctx, userMessage, sessionID)
	if err == nil {
		err = s.send(ctx, msg)
	}
	if err != nil {
		logger.Error().Err(err).Msg("handoff publish failed")
		return fmt.Sprintf("Error publishing message to handoff topic: %v", err)
	}

	logger.Info().Int("history_len", len(msg.ConversationHistory)).Msg("handoff published")
	return fmt.Sprintf("Successfully published message to handoff topic: %s", target)
}

func (s *Service) message(ctx context.Context, userMessage, sessionID string) (Message, error) {
	msg := Message{
		UserMessage:         userMessage,
		ConversationHistory: []string{},
		UserID:              s.userID,
		SessionID:           sessionID,
	}

	conv, err := s.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		msg.ConversationHistory = conv.Texts()
		if conv.UserID != "" {
			msg.UserID = conv.UserID
		}
	case errors.Is(err, statex.ErrStateNotFound), errors.Is(err, statex.ErrInvalidSession):
	default:
		return Message{}, fmt.Errorf("load conversation: %w", err)
	}
	return msg, nil
}

func (s *Service) send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal handoff message: %w", err)
	}
	return s.publisher.Publish(ctx, s.topic, body)
}
