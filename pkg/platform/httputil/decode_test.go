package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "grameengo/pkg/domain-errors"
)

var testSchema = MustCompileSchema(`{
	"type": "object",
	"properties": {
		"name":   {"type": "string"},
		"amount": {"type": "number"}
	}
}`)

type testBody struct {
	Name   string   `json:"name"`
	Amount float64  `json:"amount"`
	Notes  *string  `json:"notes"`
	Tags   []string `json:"tags"`
}

func request(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSON(t *testing.T) {
	t.Run("trims strings after decoding", func(t *testing.T) {
		var got testBody
		err := DecodeJSON(request(`{"name":"  Hasan Traders ","amount":5000,"notes":" hi ","tags":[" a "]}`), testSchema, &got)
		require.NoError(t, err)
		assert.Equal(t, "Hasan Traders", got.Name)
		assert.Equal(t, "hi", *got.Notes)
		assert.Equal(t, []string{"a"}, got.Tags)
	})

	t.Run("wrong types are malformed", func(t *testing.T) {
		var got testBody
		err := DecodeJSON(request(`{"amount":"lots"}`), testSchema, &got)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("broken json is malformed", func(t *testing.T) {
		var got testBody
		err := DecodeJSON(request(`{"name":`), testSchema, &got)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("empty body", func(t *testing.T) {
		var got testBody
		err := DecodeJSON(request(""), nil, &got)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("missing fields pass through to validation", func(t *testing.T) {
		var got testBody
		require.NoError(t, DecodeJSON(request(`{}`), testSchema, &got))
		assert.Empty(t, got.Name)
	})
}
