package walletconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alephium-go/walletconnect/codec"
	"github.com/alephium-go/walletconnect/gate"
	"github.com/alephium-go/walletconnect/permission"
	"github.com/alephium-go/walletconnect/signer"
	"github.com/alephium-go/walletconnect/transport"
	"github.com/alephium-go/walletconnect/types"
)

// Responder is the wallet side of a session: it answers proposals,
// validates inbound signing requests and dispatches them to the Signer.
// Every request receives a well-formed response envelope; failures never
// escape as panics across the transport boundary.
type Responder struct {
	opts      options
	transport transport.Transport
	signer    signer.Signer
	validate  *validator.Validate

	mu        sync.Mutex
	topic     string
	permitted permission.Table
}

// NewResponder builds a Responder over the given transport and signer.
func NewResponder(t transport.Transport, s signer.Signer, opts ...Option) *Responder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Responder{
		opts:      o,
		transport: t,
		signer:    s,
		validate:  validator.New(),
	}
}

// Run consumes transport events until the context ends or the transport
// closes. Proposals are approved automatically when the selected account
// fits the requested scope.
func (r *Responder) Run(ctx context.Context) error {
	for {
		select {
		case ev, ok := <-r.transport.Events():
			if !ok {
				return nil
			}
			r.handle(ctx, ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Responder) handle(ctx context.Context, ev transport.Event) {
	switch e := ev.(type) {
	case transport.ProposalEvent:
		if _, err := r.ApproveProposal(ctx, e.Proposal); err != nil {
			r.opts.log.Warn("proposal not approved", map[string]any{"error": err.Error()})
		}
	case transport.RequestEvent:
		r.handleRequest(ctx, e)
	case transport.DeleteEvent:
		r.mu.Lock()
		r.topic = ""
		r.permitted = nil
		r.mu.Unlock()
		r.opts.log.Info("peer closed session", map[string]any{"reason": e.Reason})
	case transport.PingEvent:
		r.opts.log.Debug("session ping", map[string]any{"topic": e.Topic})
	}
}

// ApproveProposal grants a proposal when the signer's selected account
// falls inside the requested chain scope, rejecting it otherwise.
func (r *Responder) ApproveProposal(ctx context.Context, proposal transport.Proposal) (transport.Session, error) {
	chains, err := codec.DecodeChains(proposal.Required.Chains)
	if err != nil {
		_ = r.transport.Reject(ctx, proposal.ID, "malformed chains in proposal")
		return transport.Session{}, err
	}
	if len(chains) == 0 {
		_ = r.transport.Reject(ctx, proposal.ID, "proposal requests no chains")
		return transport.Session{}, &types.WCError{
			Code:    types.ErrNotPermitted,
			Message: "proposal requests no chains",
		}
	}
	table := permission.Reduce(chains)

	account, err := r.signer.GetSelectedAccount()
	if err != nil {
		_ = r.transport.Reject(ctx, proposal.ID, "no account available")
		return transport.Session{}, err
	}

	accounts, err := r.encodeCompatibleAccounts(table, account)
	if err != nil {
		_ = r.transport.Reject(ctx, proposal.ID, "selected account is outside the requested groups")
		return transport.Session{}, err
	}

	ns := types.SessionNamespace{
		Chains:   table.Chains(),
		Accounts: accounts,
		Methods:  proposal.Required.Methods,
		Events:   proposal.Required.Events,
	}
	sess, err := r.transport.Approve(ctx, proposal.ID, ns)
	if err != nil {
		return transport.Session{}, fmt.Errorf("approve proposal: %w", err)
	}

	r.mu.Lock()
	r.topic = sess.Topic
	r.permitted = table
	r.mu.Unlock()

	r.opts.log.Info("session approved", map[string]any{
		"topic":    sess.Topic,
		"accounts": len(accounts),
	})
	return sess, nil
}

// PublishAccounts pushes a new account list to the dapp via a session
// update, addressing each account under its permitted chain identifier.
func (r *Responder) PublishAccounts(ctx context.Context, accounts []types.Account) error {
	r.mu.Lock()
	topic := r.topic
	table := r.permitted.Clone()
	r.mu.Unlock()
	if topic == "" {
		return &types.WCError{Code: types.ErrInvalidState, Message: "no active session to update"}
	}

	wire := make([]string, 0, len(accounts))
	for _, account := range accounts {
		encoded, err := r.encodeCompatibleAccounts(table, account)
		if err != nil {
			// Accounts outside the negotiated scope are simply not
			// announced.
			continue
		}
		wire = append(wire, encoded...)
	}
	return r.transport.Update(ctx, topic, types.SessionNamespace{
		Chains:   table.Chains(),
		Accounts: wire,
	})
}

// NotifyNetworkChanged announces the wallet's new active network.
func (r *Responder) NotifyNetworkChanged(ctx context.Context, network types.NetworkID) error {
	r.mu.Lock()
	topic := r.topic
	r.mu.Unlock()
	if topic == "" {
		return &types.WCError{Code: types.ErrInvalidState, Message: "no active session to notify"}
	}
	data, err := json.Marshal(network)
	if err != nil {
		return err
	}
	return r.transport.Notify(ctx, topic, types.WireEventNetworkChanged, data)
}

// Disconnect ends the session from the wallet side. Idempotent.
func (r *Responder) Disconnect(ctx context.Context, reason string) error {
	r.mu.Lock()
	topic := r.topic
	r.topic = ""
	r.permitted = nil
	r.mu.Unlock()
	if topic == "" {
		return nil
	}
	return r.transport.Disconnect(ctx, topic, 6000, reason)
}

// encodeCompatibleAccounts renders the account under every network whose
// permitted groups include the account's group.
func (r *Responder) encodeCompatibleAccounts(table permission.Table, account types.Account) ([]string, error) {
	group, err := types.NewChainGroup(int32(account.Group))
	if err != nil {
		return nil, err
	}
	var out []string
	for network := range table {
		chainWire, ok := table.Resolve(network, group)
		if !ok {
			continue
		}
		encoded, err := codec.EncodeAccount(chainWire, account)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	if len(out) == 0 {
		return nil, &types.WCError{
			Code:    types.ErrNoCompatibleAccount,
			Message: fmt.Sprintf("account %s (group %d) is outside the permitted groups", account.Address, account.Group),
		}
	}
	return out, nil
}

// handleRequest validates and dispatches one inbound request, always
// responding with an envelope.
func (r *Responder) handleRequest(ctx context.Context, e transport.RequestEvent) {
	resp := r.execute(ctx, e)
	if err := r.transport.Respond(ctx, e.Topic, resp); err != nil {
		r.opts.log.Error("failed to respond", map[string]any{
			"id":    e.Request.ID,
			"error": err.Error(),
		})
	}
}

// execute runs the wallet-side gate checks and the signer call, converting
// every failure, including panics, into an error envelope.
func (r *Responder) execute(ctx context.Context, e transport.RequestEvent) (resp types.Response) {
	id := e.Request.ID
	defer func() {
		if rec := recover(); rec != nil {
			r.opts.log.Error("signer panicked", map[string]any{"panic": fmt.Sprint(rec)})
			resp = types.ErrorResponse(id, types.RPCCodeInternal, "internal signer failure")
		}
	}()

	if err := gate.CheckMethod(e.Request.Method); err != nil {
		return errorEnvelope(id, err)
	}

	result, err := r.dispatch(ctx, e.Request.Method, e.Request.Params)
	if err != nil {
		return errorEnvelope(id, err)
	}
	if len(result) == 0 || string(result) == "null" {
		return errorEnvelope(id, &types.WCError{
			Code:    types.ErrEmptyResult,
			Message: fmt.Sprintf("%s produced an undefined result", e.Request.Method),
		})
	}
	return types.Response{ID: id, Result: result}
}

// dispatch maps a wire method onto its typed signer call.
func (r *Responder) dispatch(ctx context.Context, method string, raw json.RawMessage) (json.RawMessage, error) {
	switch method {
	case types.MethodSignTransferTx:
		var params types.SignTransferTxParams
		if err := r.decodeSignerParams(raw, &params); err != nil {
			return nil, err
		}
		if err := r.checkSigner(params.SignerAddress); err != nil {
			return nil, err
		}
		return marshalResult(r.signer.SignTransferTx(ctx, &params))
	case types.MethodSignDeployContractTx:
		var params types.SignDeployContractTxParams
		if err := r.decodeSignerParams(raw, &params); err != nil {
			return nil, err
		}
		if err := r.checkSigner(params.SignerAddress); err != nil {
			return nil, err
		}
		return marshalResult(r.signer.SignDeployContractTx(ctx, &params))
	case types.MethodSignExecuteScriptTx:
		var params types.SignExecuteScriptTxParams
		if err := r.decodeSignerParams(raw, &params); err != nil {
			return nil, err
		}
		if err := r.checkSigner(params.SignerAddress); err != nil {
			return nil, err
		}
		return marshalResult(r.signer.SignExecuteScriptTx(ctx, &params))
	case types.MethodSignUnsignedTx:
		var params types.SignUnsignedTxParams
		if err := r.decodeSignerParams(raw, &params); err != nil {
			return nil, err
		}
		if err := r.checkSigner(params.SignerAddress); err != nil {
			return nil, err
		}
		return marshalResult(r.signer.SignUnsignedTx(ctx, &params))
	case types.MethodSignMessage:
		var params types.SignMessageParams
		if err := r.decodeSignerParams(raw, &params); err != nil {
			return nil, err
		}
		if err := r.checkSigner(params.SignerAddress); err != nil {
			return nil, err
		}
		return marshalResult(r.signer.SignMessage(ctx, &params))
	case types.MethodRequestNodeAPI, types.MethodRequestExplorerAPI:
		if r.opts.api == nil {
			return nil, &types.WCError{
				Code:    types.ErrUnauthorizedMethod,
				Message: fmt.Sprintf("%s is not enabled on this wallet", method),
			}
		}
		var params types.NodeAPIParams
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, invalidParams(err)
		}
		if err := r.validate.Struct(&params); err != nil {
			return nil, invalidParams(err)
		}
		return r.opts.api.Do(ctx, &params)
	default:
		return nil, &types.WCError{
			Code:    types.ErrUnauthorizedMethod,
			Message: fmt.Sprintf("method %q is not in the allowed method set", method),
		}
	}
}

func (r *Responder) decodeSignerParams(raw json.RawMessage, params any) error {
	if err := json.Unmarshal(raw, params); err != nil {
		return invalidParams(err)
	}
	if err := r.validate.Struct(params); err != nil {
		return invalidParams(err)
	}
	return nil
}

func (r *Responder) checkSigner(signerAddress string) error {
	selected, err := r.signer.GetSelectedAccount()
	if err != nil {
		return err
	}
	return gate.CheckSignerAddress(signerAddress, selected)
}

func invalidParams(err error) error {
	return &types.WCError{
		Code:    types.ErrInvalidParams,
		Message: fmt.Sprintf("invalid request params: %v", err),
	}
}

func marshalResult(result any, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func errorEnvelope(id int64, err error) types.Response {
	if wcErr, ok := err.(*types.WCError); ok {
		return types.ErrorResponse(id, types.RPCCodeFor(wcErr.Code), wcErr.Message)
	}
	return types.ErrorResponse(id, types.RPCCodeInternal, err.Error())
}
