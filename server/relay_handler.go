package server

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/w3hc/xszc/chain"
)

// relayRequest is the relay wire format. Fields are pointers so presence
// can be checked: 0 is a valid coordinate and colorIndex.
type relayRequest struct {
	Signature  *string `json:"signature"`
	Author     *string `json:"author"`
	X          *int64  `json:"x"`
	Y          *int64  `json:"y"`
	ColorIndex *uint8  `json:"colorIndex"`
	Deadline   *string `json:"deadline"` // decimal uint256
}

type relayResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// HandleRelaySignature accepts a user-signed placement, submits it with
// the relayer key and responds only after the transaction is mined. No
// retries: a failed submission is reported and the client decides.
func (s *Server) HandleRelaySignature(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireWithinRate(w, r) {
		return
	}

	var req relayRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	if req.Signature == nil || req.Author == nil || req.X == nil ||
		req.Y == nil || req.ColorIndex == nil || req.Deadline == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !common.IsHexAddress(*req.Author) {
		writeError(w, http.StatusBadRequest, "Invalid author address")
		return
	}
	if *req.ColorIndex > 3 {
		writeError(w, http.StatusBadRequest, "Invalid colorIndex")
		return
	}
	deadline, ok := new(big.Int).SetString(*req.Deadline, 10)
	if !ok || deadline.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid deadline")
		return
	}
	sig, err := hexutil.Decode(*req.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid signature")
		return
	}
	v, sigR, sigS, err := chain.SplitSignature(sig)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	// Configuration is checked after validation but before any chain
	// interaction: a misconfigured relay must not burn an RPC round-trip.
	if s.writer == nil {
		writeError(w, http.StatusInternalServerError, "Relayer not configured")
		return
	}

	author := common.HexToAddress(*req.Author)
	x, y, colorIndex := *req.X, *req.Y, *req.ColorIndex

	s.logger.Infow("Relaying placement",
		"author", author.Hex(),
		"x", x, "y", y,
		"colorIndex", colorIndex,
		"remote", r.RemoteAddr)

	receipt, err := s.writer.SetPixelWithSignature(r.Context(), author, x, y, colorIndex, deadline, v, sigR, sigS)
	if err != nil {
		s.logger.Errorw("Relay submission failed",
			"author", author.Hex(),
			"x", x, "y", y,
			"error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to relay transaction", err.Error())
		return
	}

	// Read-back verification. A mismatch means a concurrent placement won
	// the cell after ours; the transaction still succeeded, so log only.
	if placed, readErr := s.reader.Pixel(r.Context(), x, y); readErr != nil {
		s.logger.Warnw("Post-relay pixel read failed", "x", x, "y", y, "error", readErr)
	} else if placed != colorIndex {
		s.logger.Warnw("Post-relay pixel mismatch",
			"x", x, "y", y,
			"expected", colorIndex,
			"actual", placed)
	}

	s.hub.BroadcastPixel(PixelUpdate{
		Type:            "pixel",
		X:               x,
		Y:               y,
		ColorIndex:      colorIndex,
		Author:          author.Hex(),
		TransactionHash: receipt.TxHash.Hex(),
		BlockNumber:     receipt.BlockNumber,
	})

	s.logger.Infow("Placement relayed",
		"author", author.Hex(),
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber)

	writeJSON(w, http.StatusOK, relayResponse{
		Success:         true,
		TransactionHash: receipt.TxHash.Hex(),
		BlockNumber:     receipt.BlockNumber,
	})
}
