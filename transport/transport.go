// Package transport defines the pairing/session transport consumed by the
// provider and responder, together with an in-process implementation for
// tests and a WebSocket relay conduit. Session lifecycle internals and
// envelope encryption stay behind this interface.
package transport

import (
	"context"
	"encoding/json"

	"github.com/alephium-go/walletconnect/types"
)

// Proposal is a dapp's pairing request as seen by the wallet.
type Proposal struct {
	ID       int64                   `json:"id"`
	Metadata types.SessionMetadata   `json:"metadata"`
	Required types.ProposalNamespace `json:"required"`
}

// Session is an approved, addressable session.
type Session struct {
	Topic     string                 `json:"topic"`
	Namespace types.SessionNamespace `json:"namespace"`
}

// ApprovalResult resolves a pending pairing: either an approved session or
// a rejection/transport error.
type ApprovalResult struct {
	Session Session
	Err     error
}

// Pairing is the dapp-side handle on an in-flight proposal.
type Pairing struct {
	// URI to display to the wallet (QR or deep link).
	URI string
	// Approval resolves exactly once.
	Approval <-chan ApprovalResult
}

// Event is a typed inbound transport notification. The transport delivers
// events one at a time; consumers need no additional serialization.
type Event interface {
	isTransportEvent()
}

// ProposalEvent reaches the wallet when a dapp initiates pairing.
type ProposalEvent struct {
	Proposal Proposal
}

// UpdateEvent reaches the dapp when the wallet changes the session
// namespace.
type UpdateEvent struct {
	Topic     string
	Namespace types.SessionNamespace
}

// NotificationEvent carries a named wallet-emitted session event such as
// networkChanged.
type NotificationEvent struct {
	Topic string
	Name  string
	Data  json.RawMessage
}

// RequestEvent reaches the wallet when the dapp forwards a signing or API
// request.
type RequestEvent struct {
	Topic   string
	ChainID string
	Request types.Request
}

// DeleteEvent reaches either side when the peer tears the session down.
type DeleteEvent struct {
	Topic  string
	Code   int
	Reason string
}

// PingEvent is a keepalive from the peer.
type PingEvent struct {
	Topic string
}

func (ProposalEvent) isTransportEvent()     {}
func (UpdateEvent) isTransportEvent()       {}
func (NotificationEvent) isTransportEvent() {}
func (RequestEvent) isTransportEvent()      {}
func (DeleteEvent) isTransportEvent()       {}
func (PingEvent) isTransportEvent()         {}

// Transport is the session transport contract. Connect/Approve/Request are
// blocking round-trips; everything inbound arrives on Events.
type Transport interface {
	// Connect publishes a session proposal and returns the pairing handle.
	Connect(ctx context.Context, required types.ProposalNamespace, meta types.SessionMetadata) (*Pairing, error)
	// Approve grants a proposal with the given namespace (wallet side).
	Approve(ctx context.Context, proposalID int64, ns types.SessionNamespace) (Session, error)
	// Reject declines a proposal (wallet side).
	Reject(ctx context.Context, proposalID int64, reason string) error
	// Update publishes a new session namespace to the peer (wallet side).
	Update(ctx context.Context, topic string, ns types.SessionNamespace) error
	// Notify emits a named session event to the peer (wallet side).
	Notify(ctx context.Context, topic, name string, data json.RawMessage) error
	// Disconnect tears the session down; safe to call twice.
	Disconnect(ctx context.Context, topic string, code int, reason string) error
	// Request forwards an RPC request and waits for the peer's response
	// envelope.
	Request(ctx context.Context, topic, chainID string, req types.Request) (types.Response, error)
	// Respond answers a previously received RequestEvent.
	Respond(ctx context.Context, topic string, resp types.Response) error
	// Events streams inbound notifications until Close.
	Events() <-chan Event
	// Close releases the transport; Events is closed afterwards.
	Close() error
}
