// Package gate validates outbound signing requests before they reach the
// transport: method allow-listing, signer-address equality against the
// selected account, permitted-chain resolution and params validation.
package gate

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/alephium-go/walletconnect/session"
	"github.com/alephium-go/walletconnect/types"
)

var (
	signerMethods = toSet(types.SignerMethods())
	apiMethods    = toSet(types.APIMethods())
)

// IsSignerMethod reports whether the method acts on a signer address.
func IsSignerMethod(method string) bool {
	return signerMethods[method]
}

// IsAPIMethod reports whether the method is a node/explorer passthrough.
func IsAPIMethod(method string) bool {
	return apiMethods[method]
}

// CheckMethod rejects anything outside the fixed method set.
func CheckMethod(method string) error {
	if !signerMethods[method] && !apiMethods[method] {
		return &types.WCError{
			Code:    types.ErrUnauthorizedMethod,
			Message: fmt.Sprintf("method %q is not in the allowed method set", method),
		}
	}
	return nil
}

// CheckSignerAddress enforces the byte-for-byte signer address match. A
// mismatch is rejected, never silently redirected to the right account.
func CheckSignerAddress(signerAddress string, selected types.Account) error {
	if signerAddress == "" {
		return &types.WCError{
			Code:    types.ErrInvalidParams,
			Message: "signerAddress is required",
		}
	}
	if signerAddress != selected.Address {
		return &types.WCError{
			Code:    types.ErrSignerMismatch,
			Message: fmt.Sprintf("signerAddress %s does not match the selected account %s", signerAddress, selected.Address),
		}
	}
	return nil
}

// Gate validates requests against live session state. It only reads the
// reconciler; all mutation stays with the session package.
type Gate struct {
	session  *session.Reconciler
	validate *validator.Validate
}

// New builds a gate over the given reconciler.
func New(rec *session.Reconciler) *Gate {
	return &Gate{
		session:  rec,
		validate: validator.New(),
	}
}

// Authorize runs the method and signer-address checks for an outbound
// request. Passthrough API methods skip the address check entirely.
func (g *Gate) Authorize(method, signerAddress string) error {
	if err := CheckMethod(method); err != nil {
		return err
	}
	if apiMethods[method] {
		return nil
	}
	if g.session.State() != session.StateActive {
		return &types.WCError{
			Code:    types.ErrInvalidState,
			Message: fmt.Sprintf("cannot send %s while session is %s", method, g.session.State()),
		}
	}
	selected, ok := g.session.SelectedAccount()
	if !ok {
		return &types.WCError{
			Code:    types.ErrNoCompatibleAccount,
			Message: "session has no selected account",
		}
	}
	return CheckSignerAddress(signerAddress, selected)
}

// ResolveChain maps the request's declared target chain through the live
// permission table to its wire identifier.
func (g *Gate) ResolveChain(chain types.ChainID) (string, error) {
	wire, ok := g.session.Permitted().Resolve(chain.Network, chain.Group)
	if !ok {
		return "", &types.WCError{
			Code:    types.ErrNotPermitted,
			Message: fmt.Sprintf("chain %s/%s is not permitted by the negotiated session", chain.Network, chain.Group),
		}
	}
	return wire, nil
}

// ValidateParams applies the struct-tag validation rules of a params
// value.
func (g *Gate) ValidateParams(params any) error {
	if err := g.validate.Struct(params); err != nil {
		return &types.WCError{
			Code:    types.ErrInvalidParams,
			Message: fmt.Sprintf("invalid request params: %v", err),
		}
	}
	return nil
}

func toSet(methods []string) map[string]bool {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}
