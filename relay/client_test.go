package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w3hc/xszc/errors"
)

func TestClientSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req PlacementRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(-3), req.X)
		assert.Equal(t, int64(7), req.Y)
		assert.Equal(t, uint8(2), req.ColorIndex)

		json.NewEncoder(w).Encode(PlacementResponse{
			Success:         true,
			TransactionHash: "0xdeadbeef",
			BlockNumber:     42,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Submit(context.Background(), PlacementRequest{
		Signature:  "0xabcd",
		Author:     "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		X:          -3,
		Y:          7,
		ColorIndex: 2,
		Deadline:   "2000000000",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "0xdeadbeef", resp.TransactionHash)
	assert.Equal(t, uint64(42), resp.BlockNumber)
}

func TestClientSubmitRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid colorIndex"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Submit(context.Background(), PlacementRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsRejectedError(err))
	assert.Contains(t, err.Error(), "Invalid colorIndex")
	assert.Contains(t, err.Error(), "400")
}

func TestClientSubmitRejectionWithDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "Failed to relay transaction",
			"details": "execution reverted: cooldown active",
		})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Submit(context.Background(), PlacementRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsRejectedError(err))
	assert.Contains(t, err.Error(), "cooldown active")
}

func TestClientSubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := NewClient(srv.URL).Submit(context.Background(), PlacementRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsRelayError(err))
	assert.False(t, errors.IsRejectedError(err),
		"a transport failure has an unknown outcome and must not read as a rejection")
}

func TestClientSubmitMalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Submit(context.Background(), PlacementRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsRelayError(err))
}

func TestClientSubmitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL).Submit(ctx, PlacementRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsRelayError(err))
}
