package account

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxRequestBodyBytes = 1 << 20

// Handler serves the lookup contract. It answers every method itself so
// that non-POST requests get the JSON 405 body.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result := h.handle(r)

	logger := log.Ctx(r.Context())
	logger.Debug().
		Str("outcome", result.Outcome.String()).
		Str("phone_no", result.PhoneNo.String()).
		Msg("account lookup")

	WriteResult(w, result)
}

func (h *Handler) handle(r *http.Request) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			result = Result{Outcome: OutcomeInternal, Err: fmt.Errorf("%v", p)}
		}
	}()

	if r.Method != http.MethodPost {
		return Result{Outcome: OutcomeMethodNotAllowed}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return Result{Outcome: OutcomeInternal, Err: fmt.Errorf("read request body: %w", err)}
	}

	phone, ok := ParsePhoneNo(body)
	if !ok {
		return Result{Outcome: OutcomeMissingPhone}
	}

	return h.svc.Lookup(r.Context(), phone)
}

// WriteResult encodes result as JSON with its mapped status code.
func WriteResult(w http.ResponseWriter, result Result) {
	payload, err := json.Marshal(result.Body())
	status := result.StatusCode()
	if err != nil {
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(ErrorBody{Error: err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
}
