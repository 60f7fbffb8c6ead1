// Package walletconnect connects Alephium dapps and wallets over a generic
// pairing/session transport. The Provider is the dapp side: it negotiates
// which networks and shard groups a session may touch, keeps that
// permission set reconciled against wallet updates, and gates every signing
// request against it.
package walletconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alephium-go/walletconnect/codec"
	"github.com/alephium-go/walletconnect/gate"
	"github.com/alephium-go/walletconnect/keys"
	"github.com/alephium-go/walletconnect/session"
	"github.com/alephium-go/walletconnect/transport"
	"github.com/alephium-go/walletconnect/types"
)

// providerEventBuffer bounds undelivered provider events before new ones
// are dropped with a warning.
const providerEventBuffer = 32

// Provider is the dapp-side session handle. All state mutation funnels
// through its reconciler; public methods are safe for concurrent use.
type Provider struct {
	cfg  types.SessionConfig
	opts options

	transport transport.Transport
	rec       *session.Reconciler
	gate      *gate.Gate

	events    chan types.Event
	nextReqID atomic.Int64
	loopDone  chan struct{}
}

// New builds a Provider over the given transport. The event loop starts
// immediately; callers should drain Events.
func New(cfg types.SessionConfig, t transport.Transport, opts ...Option) (*Provider, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Timeout > 0 {
		o.timeout = cfg.Timeout
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = append(types.SignerMethods(), types.APIMethods()...)
	}

	p := &Provider{
		cfg:       cfg,
		opts:      o,
		transport: t,
		events:    make(chan types.Event, providerEventBuffer),
		loopDone:  make(chan struct{}),
	}
	p.rec = session.New(keys.Deriver{}, p.emit, o.log)
	p.gate = gate.New(p.rec)
	go p.eventLoop()
	return p, nil
}

// Events streams typed session notifications. The channel closes when the
// transport closes.
func (p *Provider) Events() <-chan types.Event {
	return p.events
}

// Connect proposes a session for the configured network and group scope
// and blocks until the wallet approves, rejects, or ctx expires.
func (p *Provider) Connect(ctx context.Context) error {
	pairs := []types.ChainID{{Network: p.cfg.NetworkID, Group: p.cfg.AddressGroup}}
	table, err := p.rec.BeginNegotiation(pairs)
	if err != nil {
		return err
	}

	required := types.ProposalNamespace{
		Chains:  table.Chains(),
		Methods: p.cfg.Methods,
		Events:  []string{types.WireEventAccountChanged, types.WireEventNetworkChanged},
	}

	connectCtx, cancel := context.WithTimeout(ctx, p.opts.timeout)
	defer cancel()

	pairing, err := p.transport.Connect(connectCtx, required, p.cfg.Metadata)
	if err != nil {
		p.rec.Reset()
		return fmt.Errorf("session proposal failed: %w", err)
	}
	if pairing.URI != "" {
		p.emit(types.DisplayURIEvent{URI: pairing.URI})
	}

	select {
	case result := <-pairing.Approval:
		if result.Err != nil {
			p.rec.Reset()
			return fmt.Errorf("session approval failed: %w", result.Err)
		}
		if _, err := p.rec.ApplyApproval(result.Session.Topic, result.Session.Namespace); err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		p.rec.Reset()
		return ctx.Err()
	}
}

// Disconnect tears the session down on both sides. Disconnecting twice is
// a no-op.
func (p *Provider) Disconnect(ctx context.Context) error {
	topic := p.rec.Topic()
	state := p.rec.State()
	p.rec.ApplyDisconnect("local disconnect")
	if state != session.StateActive || topic == "" {
		return nil
	}
	if err := p.transport.Disconnect(ctx, topic, 6000, "user disconnected"); err != nil {
		return fmt.Errorf("transport disconnect: %w", err)
	}
	return nil
}

// Close disconnects and releases the transport.
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.timeout)
	defer cancel()
	_ = p.Disconnect(ctx)
	err := p.transport.Close()
	<-p.loopDone
	return err
}

// IsConnected reports whether the session is active.
func (p *Provider) IsConnected() bool {
	return p.rec.State() == session.StateActive
}

// Accounts returns the accounts permitted by the live session.
func (p *Provider) Accounts() []types.Account {
	return p.rec.Accounts()
}

// SelectedAccount returns the account used for signing requests.
func (p *Provider) SelectedAccount() (types.Account, bool) {
	return p.rec.SelectedAccount()
}

// NetworkID returns the current network.
func (p *Provider) NetworkID() types.NetworkID {
	return p.rec.NetworkID()
}

// SignTransferTx asks the wallet to sign and submit a transfer.
func (p *Provider) SignTransferTx(ctx context.Context, params *types.SignTransferTxParams) (*types.SignTransferTxResult, error) {
	var result types.SignTransferTxResult
	if err := p.request(ctx, types.MethodSignTransferTx, params.SignerAddress, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignDeployContractTx asks the wallet to sign and submit a contract
// deployment.
func (p *Provider) SignDeployContractTx(ctx context.Context, params *types.SignDeployContractTxParams) (*types.SignDeployContractTxResult, error) {
	var result types.SignDeployContractTxResult
	if err := p.request(ctx, types.MethodSignDeployContractTx, params.SignerAddress, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignExecuteScriptTx asks the wallet to sign and submit a script call.
func (p *Provider) SignExecuteScriptTx(ctx context.Context, params *types.SignExecuteScriptTxParams) (*types.SignExecuteScriptTxResult, error) {
	var result types.SignExecuteScriptTxResult
	if err := p.request(ctx, types.MethodSignExecuteScriptTx, params.SignerAddress, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignUnsignedTx asks the wallet for a detached signature over a raw
// unsigned transaction.
func (p *Provider) SignUnsignedTx(ctx context.Context, params *types.SignUnsignedTxParams) (*types.SignUnsignedTxResult, error) {
	var result types.SignUnsignedTxResult
	if err := p.request(ctx, types.MethodSignUnsignedTx, params.SignerAddress, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignMessage asks the wallet to sign an arbitrary message.
func (p *Provider) SignMessage(ctx context.Context, params *types.SignMessageParams) (*types.SignMessageResult, error) {
	var result types.SignMessageResult
	if err := p.request(ctx, types.MethodSignMessage, params.SignerAddress, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestNodeAPI forwards a raw node API call through the wallet. It is
// validated only against the allowed-method set.
func (p *Provider) RequestNodeAPI(ctx context.Context, params *types.NodeAPIParams) (json.RawMessage, error) {
	var result json.RawMessage
	if err := p.request(ctx, types.MethodRequestNodeAPI, "", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// RequestExplorerAPI forwards a raw explorer API call through the wallet.
func (p *Provider) RequestExplorerAPI(ctx context.Context, params *types.NodeAPIParams) (json.RawMessage, error) {
	var result json.RawMessage
	if err := p.request(ctx, types.MethodRequestExplorerAPI, "", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// request runs the gate, forwards the envelope, and maps the response. A
// response with neither result nor error is itself a failure.
func (p *Provider) request(ctx context.Context, method, signerAddress string, params, result any) error {
	if err := p.gate.Authorize(method, signerAddress); err != nil {
		return err
	}
	if err := p.gate.ValidateParams(params); err != nil {
		return err
	}

	var chainWire string
	if gate.IsAPIMethod(method) {
		chainWire = codec.EncodeChain(types.ChainID{Network: p.rec.NetworkID(), Group: p.cfg.AddressGroup})
	} else {
		selected, _ := p.rec.SelectedAccount()
		group, err := types.NewChainGroup(int32(selected.Group))
		if err != nil {
			return err
		}
		chainWire, err = p.gate.ResolveChain(types.ChainID{Network: p.rec.NetworkID(), Group: group})
		if err != nil {
			return err
		}
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	req := types.Request{ID: p.nextReqID.Add(1), Method: method, Params: raw}

	reqCtx, cancel := context.WithTimeout(ctx, p.opts.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.transport.Request(reqCtx, p.rec.Topic(), chainWire, req)
	p.opts.metrics.ObserveLatency(method, time.Since(start), map[string]string{
		"network": p.rec.NetworkID().String(),
	})
	if err != nil {
		return &types.WCError{
			Code:    types.ErrTransport,
			Message: fmt.Sprintf("request %s failed: %v", method, err),
		}
	}
	if resp.Error != nil {
		return &types.WCError{
			Code:    types.ErrRequestFailed,
			Message: resp.Error.Message,
			Data:    resp.Error.Code,
		}
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return &types.WCError{
			Code:    types.ErrEmptyResult,
			Message: fmt.Sprintf("request %s succeeded but the result was undefined", method),
		}
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// eventLoop serializes inbound transport events into reconciler calls.
func (p *Provider) eventLoop() {
	defer close(p.loopDone)
	defer close(p.events)
	for ev := range p.transport.Events() {
		switch e := ev.(type) {
		case transport.UpdateEvent:
			if e.Topic != p.rec.Topic() {
				continue
			}
			if err := p.rec.ApplyUpdate(e.Namespace); err != nil {
				p.opts.log.Warn("session update rejected", map[string]any{"error": err.Error()})
				p.emit(types.SessionErrorEvent{Err: err})
			}
		case transport.NotificationEvent:
			p.handleNotification(e)
		case transport.DeleteEvent:
			p.rec.ApplyDisconnect(e.Reason)
		case transport.PingEvent:
			p.opts.log.Debug("session ping", map[string]any{"topic": e.Topic})
		}
	}
}

// handleNotification maps named wallet events onto reconciler transitions.
func (p *Provider) handleNotification(e transport.NotificationEvent) {
	if e.Topic != p.rec.Topic() {
		return
	}
	switch e.Name {
	case types.WireEventAccountChanged:
		var accounts []string
		if err := json.Unmarshal(e.Data, &accounts); err != nil {
			p.opts.log.Warn("malformed accountChanged payload", map[string]any{"error": err.Error()})
			p.emit(types.SessionErrorEvent{Err: err})
			return
		}
		if err := p.rec.ApplyUpdate(types.SessionNamespace{Accounts: accounts}); err != nil {
			p.opts.log.Warn("accountChanged rejected", map[string]any{"error": err.Error()})
			p.emit(types.SessionErrorEvent{Err: err})
		}
	case types.WireEventNetworkChanged:
		var network types.NetworkID
		if err := json.Unmarshal(e.Data, &network); err != nil {
			p.opts.log.Warn("malformed networkChanged payload", map[string]any{"error": err.Error()})
			p.emit(types.SessionErrorEvent{Err: err})
			return
		}
		p.rec.ApplyNetworkChange(network)
	default:
		p.opts.log.Debug("ignoring unknown session event", map[string]any{"name": e.Name})
	}
}

// emit delivers a provider event without ever blocking the reconciler; a
// full buffer drops the event with a warning.
func (p *Provider) emit(ev types.Event) {
	p.opts.metrics.IncCounter(eventName(ev), map[string]string{
		"network": p.rec.NetworkID().String(),
	})
	select {
	case p.events <- ev:
	default:
		p.opts.log.Warn("event buffer full, dropping event", map[string]any{"event": eventName(ev)})
	}
}

func eventName(ev types.Event) string {
	switch ev.(type) {
	case types.ConnectedEvent:
		return "connected"
	case types.DisconnectedEvent:
		return "disconnected"
	case types.AccountsChangedEvent:
		return "accounts_changed"
	case types.NetworkChangedEvent:
		return "network_changed"
	case types.DisplayURIEvent:
		return "display_uri"
	case types.SessionErrorEvent:
		return "session_error"
	default:
		return "unknown"
	}
}
