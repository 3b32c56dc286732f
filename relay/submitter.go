package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/w3hc/xszc/canvas"
	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/errors"
	"github.com/w3hc/xszc/logger"
	"github.com/w3hc/xszc/wallet"
)

// State is the submission lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSigning
	StateSubmitting
	StateConfirming
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSigning:
		return "signing"
	case StateSubmitting:
		return "submitting"
	case StateConfirming:
		return "confirming"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submitter drives a pending edit through sign → relay → confirm →
// reconcile. At most one submission is in flight at a time; a second
// Submit while one runs fails fast with ErrSubmissionInFlight and leaves
// the running one undisturbed.
type Submitter struct {
	store    *canvas.Store
	signer   wallet.Signer
	client   *Client
	chainID  int64
	contract common.Address

	inFlight atomic.Bool

	mu            sync.Mutex
	state         State
	onStateChange func(State)

	now func() time.Time
}

// NewSubmitter wires the submission state machine to its capabilities.
func NewSubmitter(store *canvas.Store, signer wallet.Signer, client *Client, chainID int64, contract common.Address) *Submitter {
	return &Submitter{
		store:    store,
		signer:   signer,
		client:   client,
		chainID:  chainID,
		contract: contract,
		state:    StateIdle,
		now:      time.Now,
	}
}

// OnStateChange registers a callback invoked on every state transition,
// for UI binding. Must be set before the first Submit.
func (s *Submitter) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// State returns the current lifecycle state.
func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Submitter) setState(next State) {
	s.mu.Lock()
	s.state = next
	fn := s.onStateChange
	s.mu.Unlock()
	if fn != nil {
		fn(next)
	}
}

// Submit signs the single pending edit, posts it to the relay, waits for
// on-chain confirmation, and reconciles the store against the chain. On
// any failure the working copy is left untouched so the user can retry
// or reset; the pending edit is only consumed by the post-confirmation
// snapshot reload.
func (s *Submitter) Submit(ctx context.Context) (*PlacementResponse, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.Wrap(errors.ErrSubmissionInFlight, "submission already in flight")
	}
	defer s.inFlight.Store(false)

	switch s.store.Affordance() {
	case canvas.AffordanceNone:
		return nil, errors.NewValidationError("no pending edit to submit")
	case canvas.AffordanceReset:
		return nil, errors.NewValidationError("%d cells modified, only a single edit can be submitted", s.store.ModifiedCount())
	case canvas.AffordanceOffGrid:
		return nil, errors.Wrap(errors.ErrOffGrid, "pending cell is outside the grid")
	}

	cell, color, ok := s.store.PendingEdit()
	if !ok {
		return nil, errors.NewValidationError("no pending edit to submit")
	}

	// A declined or failed signature returns the machine to idle: nothing
	// left the device, so the attempt is as if it never started. Only
	// failures past the relay boundary land in StateFailed.
	s.setState(StateSigning)
	author, err := s.signer.Address(ctx, wallet.ModeStandard, wallet.MainTag)
	if err != nil {
		s.setState(StateIdle)
		return nil, errors.Wrap(err, "resolving signer address")
	}

	deadline := chain.PlacementDeadline(s.now())
	td := chain.SetPixelTypedData(s.chainID, s.contract, author, cell.X, cell.Y, uint8(color), deadline)
	sig, err := s.signer.SignTypedData(ctx, td)
	if err != nil {
		s.setState(StateIdle)
		return nil, errors.Wrap(err, "signing placement")
	}

	s.setState(StateSubmitting)
	logger.Infow("submitting placement",
		"cell", cell.String(),
		"color", color.String(),
		"author", author.Hex())

	resp, err := s.client.Submit(ctx, PlacementRequest{
		Signature:  hexutil.Encode(sig),
		Author:     author.Hex(),
		X:          cell.X,
		Y:          cell.Y,
		ColorIndex: uint8(color),
		Deadline:   deadline.String(),
	})
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}

	// The relay only responds 2xx after the transaction is mined, so the
	// reload below reads post-confirmation chain state.
	s.setState(StateConfirming)
	if err := s.store.ReconcileAfterConfirmation(ctx); err != nil {
		// The placement is confirmed on-chain; only the local refresh
		// failed. Surface the error but report success.
		s.setState(StateSuccess)
		return resp, errors.Wrap(err, "placement confirmed but snapshot refresh failed")
	}

	s.setState(StateSuccess)
	logger.Infow("placement confirmed",
		"cell", cell.String(),
		"tx", resp.TransactionHash,
		"block", resp.BlockNumber)
	return resp, nil
}
