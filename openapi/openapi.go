// Package openapi carries the OpenAPI 3 description of the account lookup
// endpoint. The assistant resolves its lookup tool from it and the server
// publishes it at /openapi.json.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	UserDetailsPath        = "/user_details"
	UserDetailsOperationID = "getUserDetails"
)

//go:embed user_details.json
var userDetailsRaw []byte

// Operation is the slice of an OpenAPI operation the lookup tool needs.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	ParamDesc   map[string]string
}

// Document is a validated OpenAPI document.
type Document struct {
	doc *openapi3.T
}

// Load parses and validates the embedded document. serverURL, when set,
// replaces the servers block.
func Load(ctx context.Context, serverURL string) (*Document, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(userDetailsRaw)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}

	if trimmed := strings.TrimRight(strings.TrimSpace(serverURL), "/"); trimmed != "" {
		doc.Servers = openapi3.Servers{&openapi3.Server{URL: trimmed}}
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return &Document{doc: doc}, nil
}

func MustLoad(ctx context.Context, serverURL string) *Document {
	d, err := Load(ctx, serverURL)
	if err != nil {
		panic(err)
	}
	return d
}

// ServerURL returns the first server declared by the document.
func (d *Document) ServerURL() (string, error) {
	if d == nil || d.doc == nil || len(d.doc.Servers) == 0 || d.doc.Servers[0] == nil {
		return "", errors.New("openapi document declares no server")
	}
	return strings.TrimRight(d.doc.Servers[0].URL, "/"), nil
}

// Endpoint returns the absolute URL of path on the document's server.
func (d *Document) Endpoint(path string) (string, error) {
	base, err := d.ServerURL()
	if err != nil {
		return "", err
	}
	return base + path, nil
}

// UserDetails describes the lookup operation.
func (d *Document) UserDetails() (Operation, error) {
	if d == nil || d.doc == nil {
		return Operation{}, errors.New("nil openapi document")
	}
	item := d.doc.Paths.Find(UserDetailsPath)
	if item == nil || item.Post == nil {
		return Operation{}, fmt.Errorf("openapi document has no POST %s", UserDetailsPath)
	}
	op := item.Post
	if op.OperationID != UserDetailsOperationID {
		return Operation{}, fmt.Errorf("unexpected operation id %q", op.OperationID)
	}

	out := Operation{
		ID:          op.OperationID,
		Method:      http.MethodPost,
		Path:        UserDetailsPath,
		Summary:     op.Summary,
		Description: op.Description,
		ParamDesc:   map[string]string{},
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if media := op.RequestBody.Value.Content.Get("application/json"); media != nil && media.Schema != nil && media.Schema.Value != nil {
			for name, prop := range media.Schema.Value.Properties {
				if prop != nil && prop.Value != nil {
					out.ParamDesc[name] = prop.Value.Description
				}
			}
		}
	}
	return out, nil
}

// JSON renders the document, including any server override.
func (d *Document) JSON() ([]byte, error) {
	if d == nil || d.doc == nil {
		return nil, errors.New("nil openapi document")
	}
	return json.Marshal(d.doc)
}
