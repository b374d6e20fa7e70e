package approval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-events/zenith/internal/domain"
)

func testEvent() *domain.Event {
	return &domain.Event{
		ID:          "ev-1",
		Title:       "Go Meetup",
		Description: "Monthly meetup",
		Category:    "Tech",
		Location:    "Community Hall",
	}
}

func TestReview_ParsesRecommendation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/review", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var in reviewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Go Meetup", in.Title)

		json.NewEncoder(w).Encode(reviewResponse{Recommendation: "approve", Reason: "content is in policy"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", zerolog.Nop())
	advice, err := c.Review(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, domain.EventApproved, advice.Recommendation)
	assert.Equal(t, "content is in policy", advice.Reason)
}

func TestReview_UnrecognizedRecommendationStaysPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reviewResponse{Recommendation: "escalate", Reason: "unsure"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zerolog.Nop())
	advice, err := c.Review(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, domain.EventPending, advice.Recommendation)
}

func TestReview_Non200IsExternalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zerolog.Nop())
	_, err := c.Review(context.Background(), testEvent())
	assert.True(t, domain.IsCode(err, domain.CodeExternalFailure))
}

func TestReview_HonorsContextDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "", zerolog.Nop())
	_, err := c.Review(ctx, testEvent())
	assert.True(t, domain.IsCode(err, domain.CodeExternalFailure))
}
