package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	nodex "github.com/tanpawarit/eazybank-support/agent/nodes"
	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

var (
	ErrInvalidMessage     = nodex.ErrInvalidMessage
	ErrInvalidSession     = nodex.ErrInvalidSession
	ErrToolRoundsExceeded = nodex.ErrToolRoundsExceeded
)

const (
	DefaultAppName       = "eazybank_support_app"
	DefaultUserID        = "eazybank_support_user_1"
	DefaultMaxToolRounds = 2
	DefaultHistoryWindow = 10
)

type Config struct {
	AppName       string `split_words:"true" default:"eazybank_support_app"`
	DefaultUserID string `split_words:"true" default:"eazybank_support_user_1"`
	MaxToolRounds int    `split_words:"true" default:"2"`
	HistoryWindow int    `split_words:"true" default:"10"`
}

type Orchestrator struct {
	store  statex.Store
	models contractx.Registry
	tools  contractx.ToolGateway

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	sessions    *sessionLocks

	appName       string
	defaultUserID string
	maxToolRounds int
	historyWindow int

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	tools contractx.ToolGateway,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	appName := strings.TrimSpace(cfg.AppName)
	if appName == "" {
		appName = DefaultAppName
	}
	defaultUserID := strings.TrimSpace(cfg.DefaultUserID)
	if defaultUserID == "" {
		defaultUserID = DefaultUserID
	}
	maxToolRounds := cfg.MaxToolRounds
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}
	historyWindow := cfg.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}

	o := &Orchestrator{
		store:         store,
		models:        models,
		tools:         tools,
		appName:       appName,
		defaultUserID: defaultUserID,
		maxToolRounds: maxToolRounds,
		historyWindow: historyWindow,
		sessions:      newSessionLocks(),
		now:           time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage answers one user message in sessionID. userID only applies
// when the session is new. Messages of one session run one at a time in this
// process; across replicas the last save wins.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, userID, text string) (string, error) {
	unlock, err := o.sessions.acquire(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return "", err
	}
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		UserID:    userID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}
