package token

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"tolchain/core/events"
	"tolchain/core/types"
)

const (
	// EventTypeCreated is emitted when a new token is registered.
	EventTypeCreated = "token.created"
	// EventTypeMinted is emitted when supply is minted to a recipient.
	EventTypeMinted = "token.minted"
	// EventTypeTransferred is emitted for every balance movement.
	EventTypeTransferred = "token.transferred"
	// EventTypeApproved is emitted when an allowance is set.
	EventTypeApproved = "token.approved"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// CreatedEvent announces a newly registered token.
func CreatedEvent(t *Token) *types.Event {
	return &types.Event{
		Type: EventTypeCreated,
		Attributes: map[string]string{
			"symbol":   t.Symbol,
			"name":     t.Name,
			"decimals": strconv.FormatUint(uint64(t.Decimals), 10),
			"owner":    hexAddr(t.Owner),
		},
	}
}

// MintedEvent records newly minted supply.
func MintedEvent(symbol string, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"symbol": symbol,
			"to":     hexAddr(to),
			"amount": formatAmount(amount),
		},
	}
}

// TransferredEvent records a balance movement.
func TransferredEvent(symbol string, from [20]byte, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"symbol": symbol,
			"from":   hexAddr(from),
			"to":     hexAddr(to),
			"amount": formatAmount(amount),
		},
	}
}

// ApprovedEvent records an allowance grant.
func ApprovedEvent(symbol string, owner [20]byte, spender [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeApproved,
		Attributes: map[string]string{
			"symbol":  symbol,
			"owner":   hexAddr(owner),
			"spender": hexAddr(spender),
			"amount":  formatAmount(amount),
		},
	}
}
