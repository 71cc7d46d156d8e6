package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/example/outreach-tracker/internal/application"
)

const maxBodyBytes = 1 << 20

// fieldRules lists which JSON keys a request body may carry. Keys in derived
// are computed by the server and are rejected with a message naming them.
type fieldRules struct {
	allowed map[string]struct{}
	derived map[string]string
}

func newFieldRules(allowed []string, derived map[string]string) fieldRules {
	rules := fieldRules{allowed: make(map[string]struct{}, len(allowed)), derived: derived}
	for _, key := range allowed {
		rules.allowed[key] = struct{}{}
	}
	return rules
}

// readObject reads the body as a JSON object and checks its keys against rules.
// Malformed bodies yield errBadRequestBody; disallowed keys yield a validation error.
func readObject(r *http.Request, rules fieldRules) ([]byte, map[string]json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, nil, errBadRequestBody
	}
	if len(body) > maxBodyBytes {
		return nil, nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, errBadRequestBody
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil || object == nil {
		return nil, nil, errBadRequestBody
	}

	var vErr application.ValidationError
	for key := range object {
		if message, ok := rules.derived[key]; ok {
			if vErr.FieldErrors == nil {
				vErr.FieldErrors = make(map[string]string)
			}
			vErr.FieldErrors[key] = message
			continue
		}
		if _, ok := rules.allowed[key]; !ok {
			if vErr.FieldErrors == nil {
				vErr.FieldErrors = make(map[string]string)
			}
			vErr.FieldErrors[key] = key + " is not a recognised field"
		}
	}
	if vErr.HasErrors() {
		return nil, nil, &vErr
	}
	return body, object, nil
}

// decodeObject reads the body into dst after checking its keys.
func decodeObject(r *http.Request, rules fieldRules, dst any) error {
	body, _, err := readObject(r, rules)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return typeError(err)
	}
	return nil
}

// optionalString reads a patch field: absent yields nil, null yields an empty
// string (clear), and a string yields its value.
func optionalString(object map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := object[key]
	if !ok {
		return nil, nil
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		empty := ""
		return &empty, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, application.NewValidationError(key, key+" must be a string")
	}
	return &value, nil
}

// optionalBool reads a patch field that may be absent; null is rejected.
func optionalBool(object map[string]json.RawMessage, key string) (*bool, error) {
	raw, ok := object[key]
	if !ok {
		return nil, nil
	}
	var value bool
	if string(bytes.TrimSpace(raw)) == "null" || json.Unmarshal(raw, &value) != nil {
		return nil, application.NewValidationError(key, key+" must be true or false")
	}
	return &value, nil
}

func typeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return application.NewValidationError(typeErr.Field, fmt.Sprintf("%s must be a %s", typeErr.Field, jsonTypeName(typeErr.Type.Kind().String())))
	}
	return errBadRequestBody
}

func jsonTypeName(kind string) string {
	switch kind {
	case "string":
		return "string"
	case "bool":
		return "boolean"
	case "int", "int64", "float64":
		return "number"
	default:
		return kind
	}
}
