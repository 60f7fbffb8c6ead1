// Package session owns the negotiated session state and reconciles it
// against inbound proposals, approvals and updates. All mutation happens
// behind one mutex in arrival order; other packages only read snapshots.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alephium-go/walletconnect/codec"
	"github.com/alephium-go/walletconnect/logger"
	"github.com/alephium-go/walletconnect/permission"
	"github.com/alephium-go/walletconnect/types"
)

// State is the session lifecycle phase.
type State int

const (
	StateUninitialized State = iota
	StateNegotiating
	StateActive
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateNegotiating:
		return "negotiating"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reconciler is the single writer of session state. Events raised by a
// transition are handed to the emit callback after the state change has
// been committed.
type Reconciler struct {
	mu sync.Mutex

	state     State
	topic     string
	networkID types.NetworkID
	permitted permission.Table
	accounts  []types.Account

	// lastAccountSet/lastChainSet hold the sorted wire sets of the last
	// accepted remote report. They exist only to drop redelivered updates
	// and are replaced atomically with every accepted change.
	lastAccountSet []string
	lastChainSet   []string

	deriver codec.AddressDeriver
	emit    func(types.Event)
	log     logger.Logger
}

// New builds an empty reconciler. emit may be nil when no event consumer
// exists (e.g. unit tests).
func New(deriver codec.AddressDeriver, emit func(types.Event), log logger.Logger) *Reconciler {
	if emit == nil {
		emit = func(types.Event) {}
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Reconciler{deriver: deriver, emit: emit, log: log}
}

// BeginNegotiation computes the initial permitted table from the requested
// chain pairs and moves to Negotiating. Zero requested chains is a protocol
// violation, fatal for the attempt.
func (r *Reconciler) BeginNegotiation(pairs []types.ChainID) (permission.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateUninitialized {
		return nil, &types.WCError{
			Code:    types.ErrInvalidState,
			Message: fmt.Sprintf("cannot negotiate from state %s", r.state),
		}
	}
	if len(pairs) == 0 {
		return nil, &types.WCError{
			Code:    types.ErrNotPermitted,
			Message: "no chains requested for negotiation",
		}
	}
	r.permitted = permission.Reduce(pairs)
	r.networkID = pairs[0].Network
	r.state = StateNegotiating
	r.log.Debug("negotiation started", map[string]any{
		"networks": len(r.permitted),
		"network":  r.networkID.String(),
	})
	return r.permitted.Clone(), nil
}

// ApplyApproval processes the wallet's approval. The embedded accounts are
// decoded, their groups recomputed, and the set filtered by the permitted
// table; zero compatible accounts fails the connection attempt and returns
// the reconciler to Uninitialized. On success the session becomes Active
// and a ConnectedEvent fires.
func (r *Reconciler) ApplyApproval(topic string, ns types.SessionNamespace) ([]types.Account, error) {
	r.mu.Lock()

	if r.state != StateNegotiating {
		r.mu.Unlock()
		// A disconnect raced the approval; discard it rather than
		// resurrecting a dead session.
		return nil, &types.WCError{
			Code:    types.ErrInvalidState,
			Message: fmt.Sprintf("approval received in state %s", r.state),
		}
	}

	reported, filtered, err := r.decodeAndFilter(ns.Accounts, r.permitted)
	if err != nil {
		r.state = StateUninitialized
		r.mu.Unlock()
		return nil, err
	}
	if len(filtered) == 0 {
		r.state = StateUninitialized
		r.mu.Unlock()
		return nil, &types.WCError{
			Code:    types.ErrNoCompatibleAccount,
			Message: "approval contains no account within the permitted groups",
		}
	}

	r.topic = topic
	r.accounts = filtered
	r.lastAccountSet = reported
	r.lastChainSet = sortedSet(ns.Chains)
	r.state = StateActive

	r.log.Info("session connected", map[string]any{
		"topic":    topic,
		"accounts": len(filtered),
	})
	accounts := copyAccounts(filtered)
	r.mu.Unlock()

	// Emit outside the lock so subscribers may read reconciler state.
	r.emit(types.ConnectedEvent{Topic: topic, Accounts: accounts})
	return accounts, nil
}

// ApplyUpdate processes a remote session-update notification. Redelivered
// updates (same reported chain and account sets) are dropped without an
// event. Malformed identifiers reject the update and keep prior state.
// Accepted updates replace the permitted table and account list atomically
// and emit AccountsChanged with the newly filtered set, empty or not.
func (r *Reconciler) ApplyUpdate(ns types.SessionNamespace) error {
	r.mu.Lock()

	if r.state != StateActive {
		r.log.Debug("update discarded", map[string]any{"state": r.state.String()})
		r.mu.Unlock()
		return nil
	}

	table := r.permitted
	if len(ns.Chains) > 0 {
		chains, err := codec.DecodeChains(ns.Chains)
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("rejecting session update: %w", err)
		}
		table = permission.Reduce(chains)
	}

	reported, filtered, err := r.decodeAndFilter(ns.Accounts, table)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("rejecting session update: %w", err)
	}

	// Transports redeliver updates; an unchanged address set is a no-op
	// unless a narrowed chain list changed which accounts survive the
	// filter.
	if equalSets(reported, r.lastAccountSet) && equalSets(addressSet(filtered), addressSet(r.accounts)) {
		r.permitted = table
		r.lastChainSet = sortedSet(ns.Chains)
		r.mu.Unlock()
		return nil
	}

	r.permitted = table
	r.accounts = filtered
	r.lastAccountSet = reported
	r.lastChainSet = sortedSet(ns.Chains)

	r.log.Info("session accounts updated", map[string]any{
		"reported": len(reported),
		"accepted": len(filtered),
	})
	accounts := copyAccounts(filtered)
	r.mu.Unlock()

	r.emit(types.AccountsChangedEvent{Accounts: accounts})
	return nil
}

// ApplyNetworkChange records the wallet's new active network. Group
// permission is not revalidated here; the next update or outbound request
// does that.
func (r *Reconciler) ApplyNetworkChange(network types.NetworkID) {
	r.mu.Lock()

	if r.state != StateActive || network == r.networkID {
		r.mu.Unlock()
		return
	}
	r.networkID = network
	r.log.Info("network changed", map[string]any{"network": network.String()})
	r.mu.Unlock()

	r.emit(types.NetworkChangedEvent{Network: network})
}

// ApplyDisconnect moves to the terminal state. Disconnecting twice is a
// no-op.
func (r *Reconciler) ApplyDisconnect(reason string) {
	r.mu.Lock()

	if r.state == StateDisconnected {
		r.mu.Unlock()
		return
	}
	r.state = StateDisconnected
	r.log.Info("session disconnected", map[string]any{"reason": reason})
	r.mu.Unlock()

	r.emit(types.DisconnectedEvent{Reason: reason})
}

// Reset returns the reconciler to Uninitialized so a fresh negotiation can
// start on the same instance.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateUninitialized
	r.topic = ""
	r.networkID = 0
	r.permitted = nil
	r.accounts = nil
	r.lastAccountSet = nil
	r.lastChainSet = nil
}

// State reports the current lifecycle phase.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Topic returns the transport topic of the active session.
func (r *Reconciler) Topic() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.topic
}

// NetworkID returns the current network.
func (r *Reconciler) NetworkID() types.NetworkID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.networkID
}

// SelectedAccount returns the account outbound signing requests must use.
func (r *Reconciler) SelectedAccount() (types.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.accounts) == 0 {
		return types.Account{}, false
	}
	return r.accounts[0], true
}

// Accounts returns a copy of the filtered account list.
func (r *Reconciler) Accounts() []types.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyAccounts(r.accounts)
}

// Permitted returns a snapshot of the live permission table.
func (r *Reconciler) Permitted() permission.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permitted.Clone()
}

// decodeAndFilter parses wire account identifiers, recomputes groups, and
// keeps the accounts whose derived group is permitted on their chain's
// network. Returns the sorted reported address set alongside the filtered
// accounts. Caller holds the mutex.
func (r *Reconciler) decodeAndFilter(wireAccounts []string, table permission.Table) ([]string, []types.Account, error) {
	reported := make([]string, 0, len(wireAccounts))
	filtered := make([]types.Account, 0, len(wireAccounts))
	seen := make(map[string]bool, len(wireAccounts))

	for _, wire := range wireAccounts {
		account, chainID, err := codec.DecodeAccount(wire, r.deriver)
		if err != nil {
			return nil, nil, err
		}
		if seen[account.Address] {
			continue
		}
		seen[account.Address] = true
		reported = append(reported, account.Address)
		if table.Allows(chainID.Network, account) {
			filtered = append(filtered, account)
		}
	}
	sort.Strings(reported)
	return reported, filtered, nil
}

func addressSet(accounts []types.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Address)
	}
	sort.Strings(out)
	return out
}

func sortedSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyAccounts(in []types.Account) []types.Account {
	out := make([]types.Account, len(in))
	copy(out, in)
	return out
}
