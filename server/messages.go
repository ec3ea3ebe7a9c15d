package server

// InterpretRequest carries a program as ROXB bytes or as assembly text.
// Program takes precedence when both are set.
type InterpretRequest struct {
	Program  []byte `cbor:"1,keyasint,omitempty"`
	Assembly string `cbor:"2,keyasint,omitempty"`
	Trace    bool   `cbor:"3,keyasint,omitempty"`
}

// InterpretResponse reports one execution. A runtime failure is not an RPC
// error: Success is false, Error holds the message and Output holds what
// the program printed before failing.
type InterpretResponse struct {
	ExecutionID string `cbor:"1,keyasint"`
	Output      string `cbor:"2,keyasint"`
	Trace       string `cbor:"3,keyasint,omitempty"`
	Error       string `cbor:"4,keyasint,omitempty"`
	Success     bool   `cbor:"5,keyasint"`
}

// TokenizeRequest carries rox source text.
type TokenizeRequest struct {
	Source string `cbor:"1,keyasint"`
}

// TokenInfo is one scanned token.
type TokenInfo struct {
	Kind   string `cbor:"1,keyasint"`
	Lexeme string `cbor:"2,keyasint"`
	Line   int    `cbor:"3,keyasint"`
}

// TokenizeResponse lists the tokens up to Eof, or up to the first lexical
// error, which is reported in Error.
type TokenizeResponse struct {
	Tokens []TokenInfo `cbor:"1,keyasint"`
	Error  string      `cbor:"2,keyasint,omitempty"`
}

// DisassembleRequest carries a program like InterpretRequest. Name labels
// the listing header; empty means "chunk".
type DisassembleRequest struct {
	Program  []byte `cbor:"1,keyasint,omitempty"`
	Assembly string `cbor:"2,keyasint,omitempty"`
	Name     string `cbor:"3,keyasint,omitempty"`
}

// DisassembleResponse holds the labelled listing.
type DisassembleResponse struct {
	Listing string `cbor:"1,keyasint"`
}

// GetExecutionRequest names a past execution.
type GetExecutionRequest struct {
	ExecutionID string `cbor:"1,keyasint"`
}
