package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"grameengo/pkg/domain"
	"grameengo/pkg/requestcontext"
)

func TestLimiter_PerActor(t *testing.T) {
	l := New(60, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(actor domain.Actor) int {
		req := httptest.NewRequest(http.MethodPost, "/applications", nil)
		req = req.WithContext(requestcontext.WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	alice := domain.Actor{ID: domain.UserID(uuid.New()), Role: domain.RoleBorrower}
	bob := domain.Actor{ID: domain.UserID(uuid.New()), Role: domain.RoleBorrower}

	assert.Equal(t, http.StatusCreated, send(alice))
	assert.Equal(t, http.StatusCreated, send(alice))
	assert.Equal(t, http.StatusTooManyRequests, send(alice))
	assert.Equal(t, http.StatusCreated, send(bob), "buckets are per actor")
}

func TestLimiter_Sweep(t *testing.T) {
	l := New(60, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Now()
	l.get("a", now.Add(-time.Hour))
	l.get("b", now)

	assert.Equal(t, 1, l.Sweep(now))
	assert.Len(t, l.entries, 1)
}
