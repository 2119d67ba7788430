package faucet

import (
	"encoding/hex"
	"math/big"

	"tolchain/core/events"
	"tolchain/core/types"
)

const (
	EventTypeClaimed   = "faucet.claimed"
	EventTypeDeposited = "faucet.deposited"
	EventTypeWithdrawn = "faucet.withdrawn"
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

// ClaimedEvent records tokens dispensed to a claimant.
func ClaimedEvent(to [20]byte, symbol string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeClaimed,
		Attributes: map[string]string{
			"to":     hexAddr(to),
			"symbol": symbol,
			"amount": amount.String(),
		},
	}
}

// DepositedEvent records a top-up of the faucet vault.
func DepositedEvent(from [20]byte, symbol string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDeposited,
		Attributes: map[string]string{
			"from":   hexAddr(from),
			"symbol": symbol,
			"amount": amount.String(),
		},
	}
}

// WithdrawnEvent records an owner withdrawal from the vault.
func WithdrawnEvent(to [20]byte, symbol string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"to":     hexAddr(to),
			"symbol": symbol,
			"amount": amount.String(),
		},
	}
}
