// Package relay implements the client half of the gasless placement
// protocol: posting a signed placement to the relay endpoint and driving
// the submission state machine around it.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/w3hc/xszc/errors"
	"github.com/w3hc/xszc/internal/httpclient"
	"github.com/w3hc/xszc/logger"
)

// maxResponseBytes caps how much of a relay response body is read. Relay
// responses are small JSON objects.
const maxResponseBytes = 1 << 20

// PlacementRequest is the relay wire format. The signature is the full
// 65-byte EIP-712 signature, hex-encoded with a 0x prefix; the relay
// splits it. Deadline is a decimal uint256 string.
type PlacementRequest struct {
	Signature  string `json:"signature"`
	Author     string `json:"author"`
	X          int64  `json:"x"`
	Y          int64  `json:"y"`
	ColorIndex uint8  `json:"colorIndex"`
	Deadline   string `json:"deadline"`
}

// PlacementResponse is the relay's success payload.
type PlacementResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Client posts placements to a relay endpoint.
type Client struct {
	url  string
	http *httpclient.SaferClient
}

// NewClient creates a relay client for the given endpoint URL. The
// endpoint commonly lives on localhost in development, so loopback
// targets are permitted.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		// No per-request timeout here: the relay blocks through on-chain
		// confirmation, which can take well over a minute on a congested
		// chain. Callers bound the wait with ctx.
		http: httpclient.New(0, httpclient.AllowPrivate()),
	}
}

// URL returns the configured relay endpoint.
func (c *Client) URL() string {
	return c.url
}

// Submit posts a placement and blocks until the relay responds, which
// happens only after the transaction is mined (or rejected). Transport
// failures are ErrRelay: the submission outcome is unknown. Non-2xx
// responses are ErrRejected carrying the relay's error message.
func (c *Client) Submit(ctx context.Context, req PlacementRequest) (*PlacementResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encoding placement request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrRelay, err.Error()), "building relay request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrRelay, err.Error()), "posting to relay")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrRelay, err.Error()), "reading relay response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var rejection errorResponse
		msg := "relay rejected placement"
		if json.Unmarshal(raw, &rejection) == nil && rejection.Error != "" {
			msg = rejection.Error
			if rejection.Details != "" {
				msg += ": " + rejection.Details
			}
		}
		return nil, errors.Wrapf(errors.Wrap(errors.ErrRejected, msg), "relay returned %d", resp.StatusCode)
	}

	var placement PlacementResponse
	if err := json.Unmarshal(raw, &placement); err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrRelay, err.Error()), "decoding relay response")
	}

	logger.Debugw("relay accepted placement",
		"tx", placement.TransactionHash,
		"block", placement.BlockNumber,
		"elapsed", time.Since(start))
	return &placement, nil
}
