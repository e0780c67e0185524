package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	dErrors "grameengo/pkg/domain-errors"
)

// MaxBodyBytes bounds every decoded request body.
const MaxBodyBytes = 1 << 20

// Schema is a compiled JSON schema for one request body. Schemas describe
// shape only (types, enums); missing business fields are left to the
// validators so they surface as 422 with every field listed.
type Schema struct {
	compiled *gojsonschema.Schema
}

// MustCompileSchema compiles src and panics when it is not a valid schema.
// Call it from package-level vars.
func MustCompileSchema(src string) *Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("httputil: invalid json schema: " + err.Error())
	}
	return &Schema{compiled: compiled}
}

// DecodeJSON reads the body, checks it against schema (when non-nil),
// unmarshals it into dst and trims every string field. Anything that fails
// before validation is a CodeBadRequest.
func DecodeJSON(r *http.Request, schema *Schema, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "unable to read request body")
	}
	if len(raw) > MaxBodyBytes {
		return dErrors.New(dErrors.CodeBadRequest, "request body too large")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if schema != nil {
		result, err := schema.compiled.Validate(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "request body is not valid JSON")
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				msgs = append(msgs, desc.String())
			}
			return dErrors.New(dErrors.CodeBadRequest, "malformed request: "+strings.Join(msgs, "; "))
		}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	Sanitize(dst)
	return nil
}

// Sanitize trims whitespace from all string, *string and []string fields of
// the struct v points to.
func Sanitize(v any) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strings.TrimSpace(field.String()))
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.String {
				field.Elem().SetString(strings.TrimSpace(field.Elem().String()))
			}
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					elem.SetString(strings.TrimSpace(elem.String()))
				}
			}
		}
	}
}
