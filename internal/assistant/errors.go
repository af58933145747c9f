package assistant

import "errors"

var (
	// ErrUpstream indicates the model provider call failed after retries.
	ErrUpstream = errors.New("model provider error")

	// ErrProtocol indicates the model broke the tool-calling contract,
	// for example by requesting tools on the follow-up call or by
	// omitting the correlation ref on a tool request.
	ErrProtocol = errors.New("tool protocol violation")
)
