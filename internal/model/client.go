package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClientID identifies a chat participant. Chat platforms hand these out as
// signed 64-bit integers, so the operator is a ClientID too.
type ClientID int64

// ParseClientID parses the decimal form of a ClientID.
func ParseClientID(s string) (ClientID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid client id %q: %w", s, err)
	}
	return ClientID(n), nil
}

// String returns the decimal form of the id.
func (c ClientID) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// MessageRef is the opaque identity of a message the gateway has sent.
type MessageRef string

// ClientRequest is a pending signal request awaiting an operator decision.
type ClientRequest struct {
	ClientID    ClientID  `json:"client_id"`
	RequestedAt time.Time `json:"requested_at"`
	// Seq distinguishes successive registrations by the same client.
	Seq uint64 `json:"-"`
}

// ProofSubmission is a forwarded proof awaiting the operator's reply.
// CorrelationKey is the ref of the forward sent to the operator, never the
// submitting client's id.
type ProofSubmission struct {
	CorrelationKey MessageRef `json:"correlation_key"`
	ClientID       ClientID   `json:"client_id"`
	Content        string     `json:"content"`
	SubmittedAt    time.Time  `json:"submitted_at"`
}
