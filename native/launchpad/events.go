package launchpad

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"tolchain/core/events"
	"tolchain/core/types"
)

const (
	// EventTypeCreated is emitted when the factory mints a new campaign.
	EventTypeCreated = "launchpad.created"
	// EventTypeStaked is emitted when a participant locks stake tokens.
	EventTypeStaked = "launchpad.staked"
	// EventTypeContribution is emitted for every accepted contribution.
	EventTypeContribution = "launchpad.contribution"
	// EventTypeResolved is emitted once when a campaign finalizes.
	EventTypeResolved = "launchpad.resolved"
	// EventTypeSettled is emitted for every terminal payout.
	EventTypeSettled = "launchpad.settled"
)

// Settlement kinds attached to EventTypeSettled.
const (
	SettlementReward    = "reward"
	SettlementRefund    = "refund"
	SettlementEmergency = "emergency"
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

// CreatedEvent returns the event payload announcing a new campaign instance.
func CreatedEvent(c *Campaign) *types.Event {
	return &types.Event{
		Type: EventTypeCreated,
		Attributes: map[string]string{
			"launchpad":          hexAddr(c.Addr),
			"owner":              hexAddr(c.Owner),
			"rewardToken":        c.RewardToken,
			"minBuy":             formatAmount(c.MinBuy),
			"maxBuy":             formatAmount(c.MaxBuy),
			"rate":               formatAmount(c.Rate),
			"deadline":           strconv.FormatInt(c.Deadline, 10),
			"targetRaise":        formatAmount(c.TargetRaise),
			"rewardRatePerStake": formatAmount(c.RewardRatePerStake),
			"cid":                c.CID,
		},
	}
}

// StakedEvent returns the payload recording a stake deposit.
func StakedEvent(c *Campaign, participant [20]byte, amount *big.Int, total *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeStaked,
		Attributes: map[string]string{
			"launchpad":   hexAddr(c.Addr),
			"participant": hexAddr(participant),
			"amount":      formatAmount(amount),
			"totalStaked": formatAmount(total),
		},
	}
}

// ContributionEvent returns the payload recording an accepted contribution.
func ContributionEvent(c *Campaign, participant [20]byte, amount *big.Int, total *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeContribution,
		Attributes: map[string]string{
			"launchpad":   hexAddr(c.Addr),
			"participant": hexAddr(participant),
			"amount":      formatAmount(amount),
			"contributed": formatAmount(total),
			"totalRaised": formatAmount(c.TotalRaised),
		},
	}
}

// ResolvedEvent returns the payload committing the campaign outcome.
func ResolvedEvent(c *Campaign) *types.Event {
	return &types.Event{
		Type: EventTypeResolved,
		Attributes: map[string]string{
			"launchpad":   hexAddr(c.Addr),
			"resolution":  c.Resolution.String(),
			"totalRaised": formatAmount(c.TotalRaised),
			"targetRaise": formatAmount(c.TargetRaise),
		},
	}
}

// SettledEvent returns the payload for a terminal payout of the given kind.
func SettledEvent(c *Campaign, participant [20]byte, amount *big.Int, kind string) *types.Event {
	return &types.Event{
		Type: EventTypeSettled,
		Attributes: map[string]string{
			"launchpad":   hexAddr(c.Addr),
			"participant": hexAddr(participant),
			"amount":      formatAmount(amount),
			"kind":        kind,
		},
	}
}
