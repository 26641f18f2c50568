package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	msgMethodNotAllowed = "Only POST requests are allowed"
	msgMissingPhone     = "Missing phone_no in request body"
	msgNotFoundFormat   = "User not found with phone_no: %s"
)

// Outcome enumerates every way a lookup can end.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeMethodNotAllowed
	OutcomeMissingPhone
	OutcomeNotFound
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeMethodNotAllowed:
		return "method_not_allowed"
	case OutcomeMissingPhone:
		return "missing_phone"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInternal:
		return "internal"
	default:
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Result is the outcome of one lookup request.
type Result struct {
	Outcome Outcome
	Details *Details
	PhoneNo PhoneNo
	Err     error
}

type ErrorBody struct {
	Error string `json:"error"`
}

// StatusCode maps every outcome onto the HTTP status it is answered with.
func (r Result) StatusCode() int {
	switch r.Outcome {
	case OutcomeFound:
		return http.StatusOK
	case OutcomeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case OutcomeMissingPhone:
		return http.StatusBadRequest
	case OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON document written for r.
func (r Result) Body() any {
	switch r.Outcome {
	case OutcomeFound:
		if r.Details == nil {
			return &Details{}
		}
		return r.Details
	case OutcomeMethodNotAllowed:
		return ErrorBody{Error: msgMethodNotAllowed}
	case OutcomeMissingPhone:
		return ErrorBody{Error: msgMissingPhone}
	case OutcomeNotFound:
		return ErrorBody{Error: fmt.Sprintf(msgNotFoundFormat, r.PhoneNo)}
	default:
		return ErrorBody{Error: internalMessage(r.Err)}
	}
}

func internalMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "internal server error"
	}
	return err.Error()
}

// PhoneNo is the lookup key as the caller sent it. Only integral numbers can
// match a stored phone_no; anything else is kept for the not-found message.
type PhoneNo struct {
	value    int64
	integral bool
	text     string
}

func NewPhoneNo(n int64) PhoneNo {
	return PhoneNo{value: n, integral: true, text: strconv.FormatInt(n, 10)}
}

func (p PhoneNo) Int64() (int64, bool) {
	return p.value, p.integral
}

func (p PhoneNo) String() string {
	return p.text
}

// ParsePhoneNo extracts phone_no from a JSON request body. It reports false
// when the body is empty, malformed, not an object or has no phone_no key.
// An explicit null is present and never matches.
func ParsePhoneNo(body []byte) (PhoneNo, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return PhoneNo{}, false
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return PhoneNo{}, false
	}

	raw, ok := payload["phone_no"]
	if !ok {
		return PhoneNo{}, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return PhoneNo{}, false
	}
	if bytes.Equal(raw, []byte("null")) {
		return PhoneNo{text: "null"}, true
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return PhoneNo{}, false
	}

	switch v := value.(type) {
	case json.Number:
		return parseNumber(v), true
	case string:
		return PhoneNo{text: v}, true
	default:
		return PhoneNo{text: string(raw)}, true
	}
}

func parseNumber(n json.Number) PhoneNo {
	text := n.String()
	if i, err := n.Int64(); err == nil {
		return PhoneNo{value: i, integral: true, text: text}
	}
	f, err := n.Float64()
	if err != nil || math.Trunc(f) != f || f >= math.MaxInt64 || f < math.MinInt64 {
		return PhoneNo{text: text}
	}
	return PhoneNo{value: int64(f), integral: true, text: text}
}

// Service answers lookups from a Store. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) Lookup(ctx context.Context, phone PhoneNo) Result {
	n, ok := phone.Int64()
	if !ok {
		return Result{Outcome: OutcomeNotFound, PhoneNo: phone}
	}

	rec, err := s.store.FindByPhone(ctx, n)
	switch {
	case errors.Is(err, ErrNotFound):
		return Result{Outcome: OutcomeNotFound, PhoneNo: phone}
	case err != nil:
		log.Ctx(ctx).Error().Err(err).Str("phone_no", phone.String()).Msg("account lookup failed")
		return Result{Outcome: OutcomeInternal, PhoneNo: phone, Err: err}
	case rec == nil:
		return Result{Outcome: OutcomeNotFound, PhoneNo: phone}
	}

	return Result{Outcome: OutcomeFound, PhoneNo: phone, Details: rec.Details()}
}
