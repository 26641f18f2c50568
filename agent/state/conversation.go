package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Conversation is the persisted transcript of one support session.
type Conversation struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	AppName     string `json:"app_name"`
	ActiveAgent string `json:"active_agent,omitempty"`
	Turns       []Turn `json:"turns,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role  Role      `json:"role"`
	Agent string    `json:"agent,omitempty"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

var (
	ErrInvalidRole = errors.New("invalid turn role")
	ErrEmptyTurn   = errors.New("turn text is empty")
)

func NewConversation(sessionID, userID, appName string, now time.Time) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		UserID:    userID,
		AppName:   appName,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

// Append adds a turn and moves ActiveAgent to agent for assistant turns.
func (c *Conversation) Append(role Role, agent, text string, now time.Time) error {
	if c == nil {
		return errors.New("nil conversation")
	}
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyTurn
	}

	c.Turns = append(c.Turns, Turn{
		Role:  role,
		Agent: agent,
		Text:  text,
		At:    now.UTC(),
	})
	if role == RoleAssistant && agent != "" {
		c.ActiveAgent = agent
	}
	c.Touch(now)
	return nil
}

// Recent returns at most n of the latest turns, oldest first.
func (c *Conversation) Recent(n int) []Turn {
	if c == nil || n <= 0 || len(c.Turns) == 0 {
		return nil
	}
	start := len(c.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(c.Turns)-start)
	copy(out, c.Turns[start:])
	return out
}

// Texts returns every turn's text, oldest first. It never returns nil.
func (c *Conversation) Texts() []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, 0, len(c.Turns))
	for _, t := range c.Turns {
		out = append(out, t.Text)
	}
	return out
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, t := range c.Turns {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidRole, i, t.Role)
		}
		if strings.TrimSpace(t.Text) == "" {
			return fmt.Errorf("%w: turn %d", ErrEmptyTurn, i)
		}
	}
	return nil
}
