package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/eazybank-support/account"
	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	"github.com/tanpawarit/eazybank-support/openapi"
)

const maxLookupResponseBytes = 1 << 20

// AccountLookup calls the account lookup service described by the OpenAPI
// document.
type AccountLookup struct {
	endpoint   string
	op         openapi.Operation
	httpClient *http.Client
}

func NewAccountLookup(doc *openapi.Document, httpClient *http.Client) (*AccountLookup, error) {
	op, err := doc.UserDetails()
	if err != nil {
		return nil, err
	}
	endpoint, err := doc.Endpoint(op.Path)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AccountLookup{
		endpoint:   endpoint,
		op:         op,
		httpClient: httpClient,
	}, nil
}

func (a *AccountLookup) Endpoint() string {
	return a.endpoint
}

func (a *AccountLookup) Info() *schema.ToolInfo {
	desc := strings.TrimSpace(a.op.Description)
	if desc == "" {
		desc = a.op.Summary
	}
	paramDesc := a.op.ParamDesc["phone_no"]
	if paramDesc == "" {
		paramDesc = "The user's registered phone number."
	}
	return &schema.ToolInfo{
		Name: ToolGetUserDetails,
		Desc: desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"phone_no": {Type: schema.Integer, Desc: paramDesc, Required: true},
		}),
	}
}

func defaultUserDetailsInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolGetUserDetails,
		Desc: "Retrieve user account details by phone number.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"phone_no": {Type: schema.Integer, Desc: "The user's registered phone number.", Required: true},
		}),
	}
}

func (a *AccountLookup) Execute(ctx context.Context, _ contractx.ToolScope, tool string, args map[string]any) (contractx.ToolResult, error) {
	phoneNo, err := phoneNoArg(args)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	details, err := a.lookup(ctx, phoneNo)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return contractx.ToolResult{}, ctxErr
		}
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: details}, nil
}

func (a *AccountLookup) lookup(ctx context.Context, phoneNo int64) (*account.Details, error) {
	body, err := json.Marshal(map[string]int64{"phone_no": phoneNo})
	if err != nil {
		return nil, fmt.Errorf("marshal lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, a.op.Method, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call lookup service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read lookup response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e account.ErrorBody
		if err := json.Unmarshal(raw, &e); err == nil && strings.TrimSpace(e.Error) != "" {
			return nil, errors.New(e.Error)
		}
		return nil, fmt.Errorf("lookup service status=%d", resp.StatusCode)
	}

	var details account.Details
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	return &details, nil
}

// phoneNoArg accepts an integral number or a string of digits with common
// separators.
func phoneNoArg(args map[string]any) (int64, error) {
	raw, ok := args["phone_no"]
	if !ok || raw == nil {
		return 0, errors.New("phone_no is required")
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, errors.New("phone_no must be an integer")
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, errors.New("phone_no must be an integer")
		}
		return n, nil
	case string:
		digits := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '-', '(', ')', '+', '.':
				return -1
			}
			return r
		}, v)
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || digits == "" {
			return 0, errors.New("phone_no must be an integer")
		}
		return n, nil
	default:
		return 0, errors.New("phone_no must be an integer")
	}
}
