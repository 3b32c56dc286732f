package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/config"
	"github.com/w3hc/xszc/errors"
	"github.com/w3hc/xszc/internal/chaintest"
	"github.com/w3hc/xszc/wallet"
)

func testConfig() *config.Config {
	return &config.Config{
		Chain: config.ChainConfig{
			RPCURL:          "http://127.0.0.1:8545",
			ChainID:         chaintest.ChainID,
			ContractAddress: chaintest.ContractAddress.Hex(),
		},
		Server: config.ServerConfig{
			Port:            3000,
			AllowedOrigins:  []string{"http://localhost:8080"},
			RelayRatePerMin: 0, // disabled unless a test enables it
		},
	}
}

// newTestServer wires a Server over the in-memory contract. When
// withWriter is false the relay endpoint has no write capability.
func newTestServer(t *testing.T, grid *chaintest.Grid, withWriter bool) (*Server, *httptest.Server) {
	t.Helper()
	var writer chain.Writer
	if withWriter {
		writer = grid
	}
	s := New(testConfig(), grid, writer)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

// signedPlacement builds a fully valid relay request body signed by key.
func signedPlacement(t *testing.T, key *ecdsa.PrivateKey, x, y int64, colorIndex uint8) map[string]interface{} {
	t.Helper()
	signer := wallet.NewLocalFromKey(key)
	author, err := signer.Address(context.Background(), wallet.ModeStandard, wallet.MainTag)
	require.NoError(t, err)

	deadline := chain.PlacementDeadline(time.Now())
	td := chain.SetPixelTypedData(chaintest.ChainID, chaintest.ContractAddress,
		author, x, y, colorIndex, deadline)
	sig, err := signer.SignTypedData(context.Background(), td)
	require.NoError(t, err)

	return map[string]interface{}{
		"signature":  hexutil.Encode(sig),
		"author":     author.Hex(),
		"x":          x,
		"y":          y,
		"colorIndex": colorIndex,
		"deadline":   deadline.String(),
	}
}

func postRelay(t *testing.T, srv *httptest.Server, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/relay-signature", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRelayHappyPath(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	resp := postRelay(t, srv, signedPlacement(t, key, 3, -2, 2))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["transactionHash"])
	assert.NotZero(t, body["blockNumber"])

	placed, err := grid.Pixel(context.Background(), 3, -2)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), placed)
}

func TestRelayMissingFields(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	body := signedPlacement(t, key, 0, 0, 1)
	delete(body, "y")

	resp := postRelay(t, srv, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields", decodeBody(t, resp)["error"])
}

func TestRelayZeroCoordinateIsPresent(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	// x=0, y=0, colorIndex explicitly present must not read as missing.
	resp := postRelay(t, srv, signedPlacement(t, key, 0, 0, 1))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRelayInvalidAuthor(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	body := signedPlacement(t, key, 0, 0, 1)
	body["author"] = "not-an-address"

	resp := postRelay(t, srv, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid author address", decodeBody(t, resp)["error"])
}

func TestRelayInvalidColorIndex(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	body := signedPlacement(t, key, 0, 0, 1)
	body["colorIndex"] = 4

	resp := postRelay(t, srv, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid colorIndex", decodeBody(t, resp)["error"])
}

func TestRelayInvalidDeadline(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	body := signedPlacement(t, key, 0, 0, 1)
	body["deadline"] = "not-a-number"

	resp := postRelay(t, srv, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid deadline", decodeBody(t, resp)["error"])
}

func TestRelayInvalidSignature(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	body := signedPlacement(t, key, 0, 0, 1)
	body["signature"] = "0x1234" // wrong length

	resp := postRelay(t, srv, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid signature", decodeBody(t, resp)["error"])
}

func TestRelayForgedSignatureRejectedOnChain(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	// Signed by one key, claiming another author. Passes syntactic
	// validation; the contract's recovery check rejects it.
	body := signedPlacement(t, key, 1, 1, 1)
	body["author"] = crypto.PubkeyToAddress(other.PublicKey).Hex()

	resp := postRelay(t, srv, body)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	decoded := decodeBody(t, resp)
	assert.Equal(t, "Failed to relay transaction", decoded["error"])
	assert.Contains(t, decoded["details"], "invalid signature")
}

func TestRelayWithoutRelayerKey(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, false)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	resp := postRelay(t, srv, signedPlacement(t, key, 0, 0, 1))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Relayer not configured", decodeBody(t, resp)["error"])

	placed, err := grid.Pixel(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), placed, "no chain write may happen without a relayer")
}

func TestRelayChainFailureSurfacesDetails(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)
	grid.FailNextWrite(errors.New("execution reverted: cooldown active"))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	resp := postRelay(t, srv, signedPlacement(t, key, 0, 0, 1))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	decoded := decodeBody(t, resp)
	assert.Equal(t, "Failed to relay transaction", decoded["error"])
	assert.Contains(t, decoded["details"], "cooldown active")
}

func TestRelayRejectsGet(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	resp, err := http.Get(srv.URL + "/api/relay-signature")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRelayMalformedBody(t *testing.T) {
	grid := chaintest.NewGrid(8)
	_, srv := newTestServer(t, grid, true)

	resp, err := http.Post(srv.URL+"/api/relay-signature", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["error"], "Invalid request body")
}

func TestRelayRateLimit(t *testing.T) {
	grid := chaintest.NewGrid(8)
	cfg := testConfig()
	cfg.Server.RelayRatePerMin = 1
	s := New(cfg, grid, grid)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// Rate limiting applies before body parsing, so empty bodies suffice.
	first, err := http.Post(srv.URL+"/api/relay-signature", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusBadRequest, first.StatusCode)

	second, err := http.Post(srv.URL+"/api/relay-signature", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	defer second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "Too many requests", decodeBody(t, second)["error"])
}
