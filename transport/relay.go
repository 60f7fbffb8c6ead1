package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/alephium-go/walletconnect/types"
)

// frame is the plaintext relay message. Envelope encryption is out of
// scope here; a production deployment wraps frames before they reach the
// relay.
type frame struct {
	Type       string          `json:"type"`
	Topic      string          `json:"topic,omitempty"`
	ProposalID int64           `json:"proposalId,omitempty"`
	ChainID    string          `json:"chainId,omitempty"`
	Name       string          `json:"name,omitempty"`
	Code       int             `json:"code,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

const (
	frameProposal = "proposal"
	frameApproval = "approval"
	frameReject   = "reject"
	frameUpdate   = "update"
	frameNotify   = "notify"
	frameRequest  = "request"
	frameResponse = "response"
	frameDelete   = "delete"
	framePing     = "ping"
)

// RelayTransport speaks the frame protocol over a WebSocket relay that
// forwards frames between the two session peers.
type RelayTransport struct {
	conn   *websocket.Conn
	url    string
	events chan Event

	writeMu sync.Mutex

	mu        sync.Mutex
	nextID    atomic.Int64
	approvals map[int64]chan ApprovalResult
	pending   map[int64]chan types.Response
	closed    bool
	cancel    context.CancelFunc
}

// DialRelay connects to a relay endpoint and starts the read loop.
func DialRelay(ctx context.Context, url string) (*RelayTransport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	t := &RelayTransport{
		conn:      conn,
		url:       url,
		events:    make(chan Event, eventBuffer),
		approvals: make(map[int64]chan ApprovalResult),
		pending:   make(map[int64]chan types.Response),
		cancel:    cancel,
	}
	go t.readLoop(loopCtx)
	return t, nil
}

func (t *RelayTransport) Connect(ctx context.Context, required types.ProposalNamespace, meta types.SessionMetadata) (*Pairing, error) {
	id := t.nextID.Add(1)
	payload, err := json.Marshal(Proposal{ID: id, Metadata: meta, Required: required})
	if err != nil {
		return nil, err
	}
	approval := make(chan ApprovalResult, 1)
	t.mu.Lock()
	t.approvals[id] = approval
	t.mu.Unlock()

	if err := t.write(ctx, frame{Type: frameProposal, ProposalID: id, Payload: payload}); err != nil {
		return nil, err
	}
	return &Pairing{
		URI:      fmt.Sprintf("wc:relay-%d@2?relay-protocol=irn&relay-url=%s", id, t.url),
		Approval: approval,
	}, nil
}

func (t *RelayTransport) Approve(ctx context.Context, proposalID int64, ns types.SessionNamespace) (Session, error) {
	session := Session{Topic: fmt.Sprintf("relay-topic-%d", proposalID), Namespace: ns}
	payload, err := json.Marshal(session)
	if err != nil {
		return Session{}, err
	}
	if err := t.write(ctx, frame{Type: frameApproval, ProposalID: proposalID, Topic: session.Topic, Payload: payload}); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (t *RelayTransport) Reject(ctx context.Context, proposalID int64, reason string) error {
	return t.write(ctx, frame{Type: frameReject, ProposalID: proposalID, Reason: reason})
}

func (t *RelayTransport) Update(ctx context.Context, topic string, ns types.SessionNamespace) error {
	payload, err := json.Marshal(ns)
	if err != nil {
		return err
	}
	return t.write(ctx, frame{Type: frameUpdate, Topic: topic, Payload: payload})
}

func (t *RelayTransport) Notify(ctx context.Context, topic, name string, data json.RawMessage) error {
	return t.write(ctx, frame{Type: frameNotify, Topic: topic, Name: name, Payload: data})
}

func (t *RelayTransport) Disconnect(ctx context.Context, topic string, code int, reason string) error {
	return t.write(ctx, frame{Type: frameDelete, Topic: topic, Code: code, Reason: reason})
}

func (t *RelayTransport) Request(ctx context.Context, topic, chainID string, req types.Request) (types.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return types.Response{}, err
	}
	respCh := make(chan types.Response, 1)
	t.mu.Lock()
	t.pending[req.ID] = respCh
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, req.ID)
		t.mu.Unlock()
	}()

	if err := t.write(ctx, frame{Type: frameRequest, Topic: topic, ChainID: chainID, Payload: payload}); err != nil {
		return types.Response{}, err
	}
	select {
	case resp := <-respCh:
		return resp, nil
	case <-ctx.Done():
		return types.Response{}, ctx.Err()
	}
}

func (t *RelayTransport) Respond(ctx context.Context, topic string, resp types.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return t.write(ctx, frame{Type: frameResponse, Topic: topic, Payload: payload})
}

func (t *RelayTransport) Events() <-chan Event {
	return t.events
}

func (t *RelayTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	return t.conn.Close(websocket.StatusNormalClosure, "client closing")
}

func (t *RelayTransport) write(ctx context.Context, f frame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := wsjson.Write(ctx, t.conn, f); err != nil {
		return &types.WCError{Code: types.ErrTransport, Message: fmt.Sprintf("relay write failed: %v", err)}
	}
	return nil
}

// readLoop turns inbound frames into typed events and resolves pending
// approvals/requests. It exits when the connection or context dies.
func (t *RelayTransport) readLoop(ctx context.Context) {
	defer close(t.events)
	for {
		var f frame
		if err := wsjson.Read(ctx, t.conn, &f); err != nil {
			t.failPending(err)
			return
		}
		t.dispatch(ctx, f)
	}
}

func (t *RelayTransport) dispatch(ctx context.Context, f frame) {
	switch f.Type {
	case frameProposal:
		var p Proposal
		if json.Unmarshal(f.Payload, &p) == nil {
			t.emit(ctx, ProposalEvent{Proposal: p})
		}
	case frameApproval:
		var s Session
		if json.Unmarshal(f.Payload, &s) == nil {
			t.resolveApproval(f.ProposalID, ApprovalResult{Session: s})
		}
	case frameReject:
		t.resolveApproval(f.ProposalID, ApprovalResult{
			Err: &types.WCError{Code: types.ErrProposalRejected, Message: f.Reason},
		})
	case frameUpdate:
		var ns types.SessionNamespace
		if json.Unmarshal(f.Payload, &ns) == nil {
			t.emit(ctx, UpdateEvent{Topic: f.Topic, Namespace: ns})
		}
	case frameNotify:
		t.emit(ctx, NotificationEvent{Topic: f.Topic, Name: f.Name, Data: f.Payload})
	case frameRequest:
		var req types.Request
		if json.Unmarshal(f.Payload, &req) == nil {
			t.emit(ctx, RequestEvent{Topic: f.Topic, ChainID: f.ChainID, Request: req})
		}
	case frameResponse:
		var resp types.Response
		if json.Unmarshal(f.Payload, &resp) == nil {
			t.mu.Lock()
			respCh, ok := t.pending[resp.ID]
			t.mu.Unlock()
			if ok {
				respCh <- resp
			}
		}
	case frameDelete:
		t.emit(ctx, DeleteEvent{Topic: f.Topic, Code: f.Code, Reason: f.Reason})
	case framePing:
		t.emit(ctx, PingEvent{Topic: f.Topic})
	}
}

func (t *RelayTransport) emit(ctx context.Context, ev Event) {
	select {
	case t.events <- ev:
	case <-ctx.Done():
	}
}

func (t *RelayTransport) resolveApproval(proposalID int64, result ApprovalResult) {
	t.mu.Lock()
	approval, ok := t.approvals[proposalID]
	delete(t.approvals, proposalID)
	t.mu.Unlock()
	if ok {
		approval <- result
	}
}

// failPending unblocks every in-flight approval when the connection drops,
// so a caller waiting in Connect sees a transport error instead of hanging.
func (t *RelayTransport) failPending(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, approval := range t.approvals {
		approval <- ApprovalResult{Err: &types.WCError{
			Code:    types.ErrTransport,
			Message: fmt.Sprintf("relay connection lost: %v", err),
		}}
		delete(t.approvals, id)
	}
}

var _ Transport = (*RelayTransport)(nil)
