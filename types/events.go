package types

// Event is a typed provider notification. Subscribers switch on the
// concrete variant instead of matching string event names.
type Event interface {
	isEvent()
}

// ConnectedEvent fires once when a session reaches the active state.
type ConnectedEvent struct {
	Topic    string
	Accounts []Account
}

// DisconnectedEvent fires once when the session ends, locally or remotely.
type DisconnectedEvent struct {
	Reason string
}

// AccountsChangedEvent fires when the permitted account set genuinely
// changes. The slice may be empty when an update leaves no compatible
// account.
type AccountsChangedEvent struct {
	Accounts []Account
}

// NetworkChangedEvent fires when the wallet reports a new active network.
type NetworkChangedEvent struct {
	Network NetworkID
}

// DisplayURIEvent carries the pairing URI to render for the wallet.
type DisplayURIEvent struct {
	URI string
}

// SessionErrorEvent surfaces recoverable failures while processing a
// remote update; session state is unchanged when it fires.
type SessionErrorEvent struct {
	Err error
}

func (ConnectedEvent) isEvent()       {}
func (DisconnectedEvent) isEvent()    {}
func (AccountsChangedEvent) isEvent() {}
func (NetworkChangedEvent) isEvent()  {}
func (DisplayURIEvent) isEvent()      {}
func (SessionErrorEvent) isEvent()    {}

// Wire names of the session events a proposal subscribes to.
const (
	WireEventAccountChanged = "accountChanged"
	WireEventNetworkChanged = "networkChanged"
)
