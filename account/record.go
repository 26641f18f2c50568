package account

import "github.com/uptrace/bun"

// Status values written by the application-intake process.
const (
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusInProgress = "in progress"
	StatusUnknown    = "unknown"
)

// Record is one applicant row. Every column except PhoneNo is optional and
// stays nil when the intake process never wrote it.
type Record struct {
	bun.BaseModel `bun:"table:eazybank_applications,alias:a"`

	PhoneNo          int64   `bun:"phone_no,notnull"`
	UserName         *string `bun:"user_name"`
	AccountStatus    *string `bun:"account_status"`
	Reason           *string `bun:"reason"`
	AccountNumber    *int64  `bun:"account_number"`
	AccountBalance   *string `bun:"account_balance"`
	CreditCardNumber *string `bun:"credit_card_number"`
}

// Details is the lookup response shape. Fields are never omitted; a field
// missing on the record is encoded as null.
type Details struct {
	UserName         *string `json:"user_name"`
	AccountStatus    *string `json:"account_status"`
	Reason           *string `json:"reason"`
	AccountNumber    *int64  `json:"account_number"`
	AccountBalance   *string `json:"account_balance"`
	CreditCardNumber *string `json:"credit_card_number"`
}

func (r *Record) Details() *Details {
	if r == nil {
		return &Details{}
	}
	return &Details{
		UserName:         r.UserName,
		AccountStatus:    r.AccountStatus,
		Reason:           r.Reason,
		AccountNumber:    r.AccountNumber,
		AccountBalance:   r.AccountBalance,
		CreditCardNumber: r.CreditCardNumber,
	}
}
