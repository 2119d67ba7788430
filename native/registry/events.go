package registry

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"tolchain/core/events"
	"tolchain/core/types"
)

const (
	EventTypeProjectStored     = "registry.project_stored"
	EventTypeProjectUpdated    = "registry.project_updated"
	EventTypeProjectTerminated = "registry.project_terminated"
	EventTypeProjectBoosted    = "registry.project_boosted"
	EventTypeProjectVerified   = "registry.project_verified"
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

func projectAttrs(p *Project) map[string]string {
	return map[string]string{
		"projectId": strconv.FormatUint(p.ID, 10),
		"owner":     hexAddr(p.Owner),
		"contract":  hexAddr(p.ContractAddress),
		"cid":       p.CID,
	}
}

// ProjectStoredEvent announces a newly registered project.
func ProjectStoredEvent(p *Project) *types.Event {
	return &types.Event{Type: EventTypeProjectStored, Attributes: projectAttrs(p)}
}

// ProjectUpdatedEvent records a metadata update.
func ProjectUpdatedEvent(p *Project) *types.Event {
	return &types.Event{Type: EventTypeProjectUpdated, Attributes: projectAttrs(p)}
}

// ProjectTerminatedEvent records a termination.
func ProjectTerminatedEvent(p *Project) *types.Event {
	return &types.Event{Type: EventTypeProjectTerminated, Attributes: projectAttrs(p)}
}

// ProjectBoostedEvent records a visibility boost.
func ProjectBoostedEvent(p *Project, booster [20]byte, amount *big.Int, points *big.Int) *types.Event {
	attrs := projectAttrs(p)
	attrs["booster"] = hexAddr(booster)
	attrs["amount"] = amount.String()
	attrs["points"] = points.String()
	attrs["boostPoint"] = p.BoostPoint.String()
	return &types.Event{Type: EventTypeProjectBoosted, Attributes: attrs}
}

// ProjectVerifiedEvent records a certification flag change.
func ProjectVerifiedEvent(p *Project) *types.Event {
	attrs := projectAttrs(p)
	attrs["certified"] = strconv.FormatBool(p.IsCertified)
	return &types.Event{Type: EventTypeProjectVerified, Attributes: attrs}
}
