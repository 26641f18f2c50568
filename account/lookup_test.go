package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

type fakeStore struct {
	records map[int64][]*Record
	err     error
	calls   []int64
}

func (f *fakeStore) FindByPhone(ctx context.Context, phoneNo int64) (*Record, error) {
	f.calls = append(f.calls, phoneNo)
	if f.err != nil {
		return nil, f.err
	}
	recs := f.records[phoneNo]
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func approvedRecord() *Record {
	return &Record{
		PhoneNo:          9999999999,
		UserName:         strPtr("Sarah Connor"),
		AccountStatus:    strPtr(StatusApproved),
		AccountNumber:    intPtr(9876543210),
		AccountBalance:   strPtr("$1000.00"),
		CreditCardNumber: strPtr("************1234"),
	}
}

func TestParsePhoneNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		wantOK       bool
		wantIntegral bool
		wantValue    int64
		wantText     string
	}{
		{name: "integer", body: `{"phone_no": 1234567890}`, wantOK: true, wantIntegral: true, wantValue: 1234567890, wantText: "1234567890"},
		{name: "integral float", body: `{"phone_no": 1234567890.0}`, wantOK: true, wantIntegral: true, wantValue: 1234567890, wantText: "1234567890.0"},
		{name: "fraction", body: `{"phone_no": 12.5}`, wantOK: true, wantText: "12.5"},
		{name: "string", body: `{"phone_no": "1234567890"}`, wantOK: true, wantText: "1234567890"},
		{name: "extra fields", body: `{"name":"x","phone_no":42}`, wantOK: true, wantIntegral: true, wantValue: 42, wantText: "42"},
		{name: "empty body", body: ``},
		{name: "whitespace body", body: "  \n"},
		{name: "empty object", body: `{}`},
		{name: "other key", body: `{"phone": 1}`},
		{name: "null value", body: `{"phone_no": null}`, wantOK: true, wantText: "null"},
		{name: "two to the 63", body: `{"phone_no": 9223372036854775808.0}`, wantOK: true, wantText: "9223372036854775808.0"},
		{name: "null body", body: `null`},
		{name: "array body", body: `[1,2]`},
		{name: "malformed", body: `{"phone_no": `},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParsePhoneNo([]byte(tt.body))
			if ok != tt.wantOK {
				t.Fatalf("ParsePhoneNo(%q) ok = %v, want %v", tt.body, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			value, integral := got.Int64()
			if integral != tt.wantIntegral {
				t.Fatalf("integral = %v, want %v", integral, tt.wantIntegral)
			}
			if integral && value != tt.wantValue {
				t.Fatalf("value = %d, want %d", value, tt.wantValue)
			}
			if got.String() != tt.wantText {
				t.Fatalf("text = %q, want %q", got.String(), tt.wantText)
			}
		})
	}
}

func TestServiceLookupFound(t *testing.T) {
	t.Parallel()

	store := &fakeStore{records: map[int64][]*Record{9999999999: {approvedRecord()}}}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	res := svc.Lookup(context.Background(), NewPhoneNo(9999999999))
	if res.Outcome != OutcomeFound {
		t.Fatalf("outcome = %s, want found", res.Outcome)
	}
	if res.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode())
	}
	if res.Details.AccountNumber == nil || *res.Details.AccountNumber != 9876543210 {
		t.Fatalf("account_number = %v", res.Details.AccountNumber)
	}
	if res.Details.Reason != nil {
		t.Fatalf("reason = %v, want nil", *res.Details.Reason)
	}
}

func TestServiceLookupFirstDuplicateWins(t *testing.T) {
	t.Parallel()

	second := approvedRecord()
	second.UserName = strPtr("Duplicate")
	store := &fakeStore{records: map[int64][]*Record{9999999999: {approvedRecord(), second}}}
	svc, _ := NewService(store)

	res := svc.Lookup(context.Background(), NewPhoneNo(9999999999))
	if res.Outcome != OutcomeFound {
		t.Fatalf("outcome = %s, want found", res.Outcome)
	}
	if *res.Details.UserName != "Sarah Connor" {
		t.Fatalf("user_name = %q, want first record", *res.Details.UserName)
	}
}

func TestServiceLookupNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&fakeStore{})
	res := svc.Lookup(context.Background(), NewPhoneNo(1234567890))
	if res.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %s, want not_found", res.Outcome)
	}
	body, ok := res.Body().(ErrorBody)
	if !ok {
		t.Fatalf("unexpected body type %T", res.Body())
	}
	if body.Error != "User not found with phone_no: 1234567890" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestServiceLookupNonIntegralSkipsStore(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc, _ := NewService(store)

	phone, ok := ParsePhoneNo([]byte(`{"phone_no":"555-0100"}`))
	if !ok {
		t.Fatal("expected phone_no to parse")
	}
	res := svc.Lookup(context.Background(), phone)
	if res.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %s, want not_found", res.Outcome)
	}
	if len(store.calls) != 0 {
		t.Fatalf("store must not be queried for non-integral keys, got %v", store.calls)
	}
	if body := res.Body().(ErrorBody); body.Error != "User not found with phone_no: 555-0100" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestServiceLookupStoreError(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&fakeStore{err: errors.New("connection refused")})
	res := svc.Lookup(context.Background(), NewPhoneNo(1))
	if res.Outcome != OutcomeInternal {
		t.Fatalf("outcome = %s, want internal", res.Outcome)
	}
	if res.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("status = %d", res.StatusCode())
	}
	if body := res.Body().(ErrorBody); body.Error != "connection refused" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestResultStatusCodeIsTotal(t *testing.T) {
	t.Parallel()

	want := map[Outcome]int{
		OutcomeFound:            http.StatusOK,
		OutcomeMethodNotAllowed: http.StatusMethodNotAllowed,
		OutcomeMissingPhone:     http.StatusBadRequest,
		OutcomeNotFound:         http.StatusNotFound,
		OutcomeInternal:         http.StatusInternalServerError,
		Outcome(99):             http.StatusInternalServerError,
	}
	for outcome, status := range want {
		res := Result{Outcome: outcome}
		if got := res.StatusCode(); got != status {
			t.Fatalf("%s status = %d, want %d", outcome, got, status)
		}
		if _, err := json.Marshal(res.Body()); err != nil {
			t.Fatalf("%s body does not encode: %v", outcome, err)
		}
	}
}

func TestRecordDetailsNullFields(t *testing.T) {
	t.Parallel()

	rec := &Record{PhoneNo: 1, AccountStatus: strPtr(StatusInProgress)}
	raw, err := json.Marshal(rec.Details())
	if err != nil {
		t.Fatalf("marshal details: %v", err)
	}
	want := `{"user_name":null,"account_status":"in progress","reason":null,"account_number":null,"account_balance":null,"credit_card_number":null}`
	if string(raw) != want {
		t.Fatalf("details = %s, want %s", raw, want)
	}
}

func TestNewServiceRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}
