package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alephium-go/walletconnect/types"
)

// eventBuffer bounds how many undelivered events an endpoint may hold
// before senders block.
const eventBuffer = 32

// hub is the shared state behind a memory transport pair.
type hub struct {
	mu        sync.Mutex
	nextID    atomic.Int64
	approvals map[int64]chan ApprovalResult
	pending   map[int64]chan types.Response
	closed    map[string]bool
}

// MemoryEndpoint is one side of an in-process transport pair. It is the
// test and demo harness standing in for a real relay-backed transport.
type MemoryEndpoint struct {
	hub    *hub
	peer   *MemoryEndpoint
	events chan Event

	mu      sync.Mutex
	sending sync.RWMutex
	done    bool
	doneCh  chan struct{}
}

// NewMemoryPair wires two endpoints back to back: the first is the dapp
// side, the second the wallet side.
func NewMemoryPair() (*MemoryEndpoint, *MemoryEndpoint) {
	h := &hub{
		approvals: make(map[int64]chan ApprovalResult),
		pending:   make(map[int64]chan types.Response),
		closed:    make(map[string]bool),
	}
	dapp := &MemoryEndpoint{hub: h, events: make(chan Event, eventBuffer), doneCh: make(chan struct{})}
	wallet := &MemoryEndpoint{hub: h, events: make(chan Event, eventBuffer), doneCh: make(chan struct{})}
	dapp.peer = wallet
	wallet.peer = dapp
	return dapp, wallet
}

func (e *MemoryEndpoint) Connect(ctx context.Context, required types.ProposalNamespace, meta types.SessionMetadata) (*Pairing, error) {
	id := e.hub.nextID.Add(1)
	approval := make(chan ApprovalResult, 1)

	e.hub.mu.Lock()
	e.hub.approvals[id] = approval
	e.hub.mu.Unlock()

	if err := e.peer.deliver(ctx, ProposalEvent{Proposal: Proposal{ID: id, Metadata: meta, Required: required}}); err != nil {
		return nil, err
	}
	return &Pairing{
		URI:      fmt.Sprintf("wc:mem-%d@2?relay-protocol=memory", id),
		Approval: approval,
	}, nil
}

func (e *MemoryEndpoint) Approve(ctx context.Context, proposalID int64, ns types.SessionNamespace) (Session, error) {
	e.hub.mu.Lock()
	approval, ok := e.hub.approvals[proposalID]
	delete(e.hub.approvals, proposalID)
	e.hub.mu.Unlock()
	if !ok {
		return Session{}, fmt.Errorf("no pending proposal %d", proposalID)
	}
	session := Session{Topic: fmt.Sprintf("mem-topic-%d", proposalID), Namespace: ns}
	approval <- ApprovalResult{Session: session}
	return session, nil
}

func (e *MemoryEndpoint) Reject(ctx context.Context, proposalID int64, reason string) error {
	e.hub.mu.Lock()
	approval, ok := e.hub.approvals[proposalID]
	delete(e.hub.approvals, proposalID)
	e.hub.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending proposal %d", proposalID)
	}
	approval <- ApprovalResult{Err: &types.WCError{Code: types.ErrProposalRejected, Message: reason}}
	return nil
}

func (e *MemoryEndpoint) Update(ctx context.Context, topic string, ns types.SessionNamespace) error {
	return e.peer.deliver(ctx, UpdateEvent{Topic: topic, Namespace: ns})
}

func (e *MemoryEndpoint) Notify(ctx context.Context, topic, name string, data json.RawMessage) error {
	return e.peer.deliver(ctx, NotificationEvent{Topic: topic, Name: name, Data: data})
}

func (e *MemoryEndpoint) Disconnect(ctx context.Context, topic string, code int, reason string) error {
	e.hub.mu.Lock()
	already := e.hub.closed[topic]
	e.hub.closed[topic] = true
	e.hub.mu.Unlock()
	if already {
		return nil
	}
	return e.peer.deliver(ctx, DeleteEvent{Topic: topic, Code: code, Reason: reason})
}

func (e *MemoryEndpoint) Request(ctx context.Context, topic, chainID string, req types.Request) (types.Response, error) {
	respCh := make(chan types.Response, 1)
	e.hub.mu.Lock()
	e.hub.pending[req.ID] = respCh
	e.hub.mu.Unlock()
	defer func() {
		e.hub.mu.Lock()
		delete(e.hub.pending, req.ID)
		e.hub.mu.Unlock()
	}()

	if err := e.peer.deliver(ctx, RequestEvent{Topic: topic, ChainID: chainID, Request: req}); err != nil {
		return types.Response{}, err
	}
	select {
	case resp := <-respCh:
		return resp, nil
	case <-ctx.Done():
		return types.Response{}, ctx.Err()
	case <-e.doneCh:
		return types.Response{}, &types.WCError{Code: types.ErrTransport, Message: "transport closed while waiting for response"}
	}
}

func (e *MemoryEndpoint) Respond(ctx context.Context, topic string, resp types.Response) error {
	e.hub.mu.Lock()
	respCh, ok := e.hub.pending[resp.ID]
	e.hub.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending request %d on topic %s", resp.ID, topic)
	}
	respCh <- resp
	return nil
}

func (e *MemoryEndpoint) Events() <-chan Event {
	return e.events
}

func (e *MemoryEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return nil
	}
	e.done = true
	close(e.doneCh)
	e.sending.Lock()
	close(e.events)
	e.sending.Unlock()
	return nil
}

// deliver hands an event to this endpoint's consumer, giving up when the
// sender's context expires or the endpoint is closed. The sending lock
// keeps Close from closing the channel under an in-flight send.
func (e *MemoryEndpoint) deliver(ctx context.Context, ev Event) error {
	e.sending.RLock()
	defer e.sending.RUnlock()
	select {
	case <-e.doneCh:
		return &types.WCError{Code: types.ErrTransport, Message: "peer transport closed"}
	default:
	}

	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.doneCh:
		return &types.WCError{Code: types.ErrTransport, Message: "peer transport closed"}
	}
}

var _ Transport = (*MemoryEndpoint)(nil)
