package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

type fakePublisher struct {
	topic string
	body  []byte
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, body []byte) error {
	f.topic = topic
	f.body = append([]byte(nil), body...)
	return f.err
}

func (f *fakePublisher) Target(topic string) string {
	return "qstash://" + topic
}

type failingStore struct {
	statex.Store
	err error
}

func (f failingStore) Load(ctx context.Context, sessionID string) (*statex.Conversation, error) {
	return nil, f.err
}

func newMemoryStore(t *testing.T) *statex.MemoryStore {
	t.Helper()
	store, err := statex.NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	return store
}

func newTestService(t *testing.T, store statex.Store, pub Publisher) *Service {
	t.Helper()
	svc, err := NewService(store, pub, Config{Topic: DefaultTopic, UserID: "eazybank_support_user_1"})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestPublishUnknownSessionSendsEmptyHistory(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	svc := newTestService(t, newMemoryStore(t), pub)

	status := svc.Publish(context.Background(), "I need a human", "session-x")
	if status != "Successfully published message to handoff topic: qstash://eazybank-handoff-topic" {
		t.Fatalf("status = %q", status)
	}
	if pub.topic != DefaultTopic {
		t.Fatalf("topic = %q", pub.topic)
	}

	// history must encode as [] rather than null
	if !strings.Contains(string(pub.body), `"conversation_history":[]`) {
		t.Fatalf("body = %s", pub.body)
	}

	var msg Message
	if err := json.Unmarshal(pub.body, &msg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.UserMessage != "I need a human" || msg.SessionID != "session-x" || msg.UserID != "eazybank_support_user_1" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestPublishIncludesConversationHistory(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(t)
	conv := statex.NewConversation("session-1", "customer-42", "eazybank_support_app", time.Now())
	_ = conv.Append(statex.RoleUser, "", "What is my application status?", time.Now())
	_ = conv.Append(statex.RoleAssistant, "account_status", "Your application is in progress.", time.Now())
	if err := store.Save(context.Background(), conv); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	pub := &fakePublisher{}
	svc := newTestService(t, store, pub)
	status := svc.Publish(context.Background(), "How long will it take?", "session-1")
	if !strings.HasPrefix(status, "Successfully published message to handoff topic: ") {
		t.Fatalf("status = %q", status)
	}

	var msg Message
	if err := json.Unmarshal(pub.body, &msg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := []string{"What is my application status?", "Your application is in progress."}
	if len(msg.ConversationHistory) != len(want) {
		t.Fatalf("history = %#v", msg.ConversationHistory)
	}
	for i := range want {
		if msg.ConversationHistory[i] != want[i] {
			t.Fatalf("history[%d] = %q, want %q", i, msg.ConversationHistory[i], want[i])
		}
	}
	if msg.UserID != "customer-42" {
		t.Fatalf("UserID = %q", msg.UserID)
	}
}

func TestPublishReportsPublisherError(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("broker unreachable")}
	svc := newTestService(t, newMemoryStore(t), pub)

	status := svc.Publish(context.Background(), "help", "s")
	if status != "Error publishing message to handoff topic: broker unreachable" {
		t.Fatalf("status = %q", status)
	}
}

func TestPublishReportsStoreError(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	svc := newTestService(t, failingStore{err: errors.New("redis timeout")}, pub)

	status := svc.Publish(context.Background(), "help", "s")
	if !strings.HasPrefix(status, "Error publishing message to handoff topic: ") || !strings.Contains(status, "redis timeout") {
		t.Fatalf("status = %q", status)
	}
	if pub.body != nil {
		t.Fatal("nothing should be published when history cannot be loaded")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Backend: "QStash", Topic: "t"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := (Config{Backend: "pubsub", Topic: "t"}).Validate(); err == nil {
		t.Fatal("expected unsupported backend error")
	}
	if err := (Config{Backend: "rabbitmq"}).Validate(); err == nil {
		t.Fatal("expected missing topic error")
	}
}

type fakeVerifier struct {
	err       error
	signature string
	url       string
}

func (f *fakeVerifier) Verify(signature string, body []byte, url string) error {
	f.signature = signature
	f.url = url
	return f.err
}

func TestDeliveryHandler(t *testing.T) {
	t.Parallel()

	valid := `{"user_message":"help","conversation_history":["hi"],"user_id":"u","session_id":"s"}`
	tests := []struct {
		name       string
		verifyErr  error
		body       string
		wantStatus int
	}{
		{name: "accepted", body: valid, wantStatus: http.StatusOK},
		{name: "bad signature", verifyErr: errors.New("bad"), body: valid, wantStatus: http.StatusUnauthorized},
		{name: "malformed payload", body: `not json`, wantStatus: http.StatusBadRequest},
		{name: "missing session", body: `{"user_message":"help"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &fakeVerifier{err: tt.verifyErr}
			h := NewDeliveryHandler(verifier, "Upstash-Signature", "https://support.example.com/handoff/deliveries")

			req := httptest.NewRequest(http.MethodPost, "/handoff/deliveries", strings.NewReader(tt.body))
			req.Header.Set("Upstash-Signature", "token")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if verifier.signature != "token" || verifier.url != "https://support.example.com/handoff/deliveries" {
				t.Fatalf("verifier got signature=%q url=%q", verifier.signature, verifier.url)
			}
		})
	}
}

func TestDecodeMessageDefaultsHistory(t *testing.T) {
	t.Parallel()

	msg, err := DecodeMessage([]byte(`{"session_id":"s","user_message":"x"}`))
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if msg.ConversationHistory == nil || len(msg.ConversationHistory) != 0 {
		t.Fatalf("history = %#v", msg.ConversationHistory)
	}
}
