package types

import "encoding/json"

// Wire method names. Signer methods require a signer-address match in the
// request gate; API methods are plain passthroughs to the node/explorer.
const (
	MethodSignTransferTx       = "alph_signAndSubmitTransferTx"
	MethodSignDeployContractTx = "alph_signAndSubmitDeployContractTx"
	MethodSignExecuteScriptTx  = "alph_signAndSubmitExecuteScriptTx"
	MethodSignUnsignedTx       = "alph_signUnsignedTx"
	MethodSignMessage          = "alph_signMessage"
	MethodRequestNodeAPI       = "alph_requestNodeApi"
	MethodRequestExplorerAPI   = "alph_requestExplorerApi"
)

// SignerMethods lists every method that acts on a specific signer address.
func SignerMethods() []string {
	return []string{
		MethodSignTransferTx,
		MethodSignDeployContractTx,
		MethodSignExecuteScriptTx,
		MethodSignUnsignedTx,
		MethodSignMessage,
	}
}

// APIMethods lists the passthrough methods that bypass the signer-address
// check and are validated only against the allowed-method set.
func APIMethods() []string {
	return []string{MethodRequestNodeAPI, MethodRequestExplorerAPI}
}

// Request is the RPC request envelope carried over the transport.
type Request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response is the RPC response envelope: exactly one of Result or Error is
// set.
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the wire error shape inside a Response.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse builds a well-formed error envelope for a failed request.
func ErrorResponse(id int64, code int, message string) Response {
	return Response{ID: id, Error: &ResponseError{Code: code, Message: message}}
}

// Destination is one output of a transfer transaction.
type Destination struct {
	Address string `json:"address" validate:"required"`
	// AttoAlphAmount is a base-10 integer string in attoALPH.
	AttoAlphAmount string  `json:"attoAlphAmount" validate:"required"`
	Tokens         []Token `json:"tokens,omitempty" validate:"dive"`
}

// Token is a token id and amount attached to a destination.
type Token struct {
	ID     string `json:"id" validate:"required,hexadecimal"`
	Amount string `json:"amount" validate:"required"`
}

// SignTransferTxParams are the inputs of alph_signAndSubmitTransferTx.
type SignTransferTxParams struct {
	SignerAddress string        `json:"signerAddress" validate:"required"`
	Destinations  []Destination `json:"destinations" validate:"required,min=1,dive"`
	GasAmount     uint64        `json:"gasAmount,omitempty"`
	GasPrice      string        `json:"gasPrice,omitempty"`
}

// SignTransferTxResult is the signed transfer returned by the wallet.
type SignTransferTxResult struct {
	TxID       string `json:"txId"`
	UnsignedTx string `json:"unsignedTx"`
	Signature  string `json:"signature"`
	GasAmount  uint64 `json:"gasAmount"`
	GasPrice   string `json:"gasPrice"`
	FromGroup  uint32 `json:"fromGroup"`
	ToGroup    uint32 `json:"toGroup"`
}

// SignDeployContractTxParams are the inputs of
// alph_signAndSubmitDeployContractTx.
type SignDeployContractTxParams struct {
	SignerAddress         string `json:"signerAddress" validate:"required"`
	Bytecode              string `json:"bytecode" validate:"required,hexadecimal"`
	InitialAttoAlphAmount string `json:"initialAttoAlphAmount,omitempty"`
	IssueTokenAmount      string `json:"issueTokenAmount,omitempty"`
	GasAmount             uint64 `json:"gasAmount,omitempty"`
	GasPrice              string `json:"gasPrice,omitempty"`
}

// SignDeployContractTxResult is the deployment result.
type SignDeployContractTxResult struct {
	TxID            string `json:"txId"`
	UnsignedTx      string `json:"unsignedTx"`
	Signature       string `json:"signature"`
	ContractAddress string `json:"contractAddress"`
	ContractID      string `json:"contractId"`
	GasAmount       uint64 `json:"gasAmount"`
	GasPrice        string `json:"gasPrice"`
	FromGroup       uint32 `json:"fromGroup"`
	ToGroup         uint32 `json:"toGroup"`
}

// SignExecuteScriptTxParams are the inputs of
// alph_signAndSubmitExecuteScriptTx.
type SignExecuteScriptTxParams struct {
	SignerAddress  string `json:"signerAddress" validate:"required"`
	Bytecode       string `json:"bytecode" validate:"required,hexadecimal"`
	AttoAlphAmount string `json:"attoAlphAmount,omitempty"`
	GasAmount      uint64 `json:"gasAmount,omitempty"`
	GasPrice       string `json:"gasPrice,omitempty"`
}

// SignExecuteScriptTxResult is the script execution result.
type SignExecuteScriptTxResult struct {
	TxID       string `json:"txId"`
	UnsignedTx string `json:"unsignedTx"`
	Signature  string `json:"signature"`
	GasAmount  uint64 `json:"gasAmount"`
	GasPrice   string `json:"gasPrice"`
	FromGroup  uint32 `json:"fromGroup"`
	ToGroup    uint32 `json:"toGroup"`
}

// SignUnsignedTxParams are the inputs of alph_signUnsignedTx.
type SignUnsignedTxParams struct {
	SignerAddress string `json:"signerAddress" validate:"required"`
	UnsignedTx    string `json:"unsignedTx" validate:"required,hexadecimal"`
}

// SignUnsignedTxResult is the detached signature over an unsigned tx.
type SignUnsignedTxResult struct {
	TxID       string `json:"txId"`
	UnsignedTx string `json:"unsignedTx"`
	Signature  string `json:"signature"`
}

// SignMessageParams are the inputs of alph_signMessage.
type SignMessageParams struct {
	SignerAddress string `json:"signerAddress" validate:"required"`
	Message       string `json:"message" validate:"required"`
	MessageHasher string `json:"messageHasher,omitempty" validate:"omitempty,oneof=alephium blake2b sha256 identity"`
}

// SignMessageResult is the message signature.
type SignMessageResult struct {
	Signature string `json:"signature"`
}

// NodeAPIParams describe a raw node/explorer API call forwarded through the
// wallet without signer-address validation.
type NodeAPIParams struct {
	Path   string          `json:"path" validate:"required"`
	Method string          `json:"method" validate:"required,oneof=GET POST PUT DELETE"`
	Body   json.RawMessage `json:"body,omitempty"`
}
