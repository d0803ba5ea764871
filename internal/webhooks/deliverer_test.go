package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeliverSignsAndPosts(t *testing.T) {
	payload := []byte(`{"event":"stock.updated","payload":{"item_id":1}}`)

	var gotBody []byte
	var gotSignature, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = body
		gotSignature = r.Header.Get(SignatureHeader)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	deliverer := NewDeliverer(5 * time.Second)
	endpoint := Endpoint{URL: server.URL, Secret: "topsecret"}
	require.NoError(t, deliverer.Deliver(context.Background(), endpoint, payload))

	require.Equal(t, payload, gotBody)
	require.Equal(t, "application/json", gotContentType)
	require.True(t, VerifySignature("topsecret", payload, gotSignature))
}

func TestDeliverNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	deliverer := NewDeliverer(5 * time.Second)
	err := deliverer.Deliver(context.Background(), Endpoint{URL: server.URL, Secret: "s"}, []byte(`{}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "responded 500")
}

func TestDeliverUnreachableEndpoint(t *testing.T) {
	deliverer := NewDeliverer(time.Second)
	err := deliverer.Deliver(context.Background(), Endpoint{URL: "http://127.0.0.1:1/hook", Secret: "s"}, []byte(`{}`))
	require.Error(t, err)
}
