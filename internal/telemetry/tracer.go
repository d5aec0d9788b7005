package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for coordination-core spans.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Operation & scope
	// ========================================================================
	AttrOperation = "coord.operation" // request_lease, propose, finalize, etc.
	AttrScopeKey  = "coord.scope_key" // Lease scope key the operation concerns
	AttrActorID   = "coord.actor_id"  // Requesting or holding actor's identity

	// ========================================================================
	// Consensus
	// ========================================================================
	AttrRound    = "consensus.round"    // Consensus round number
	AttrView     = "consensus.view"     // Consensus view number
	AttrNodeID   = "consensus.node_id"  // Group member identity
	AttrQuorum   = "consensus.quorum"   // Configured quorum size
	AttrProposer = "consensus.proposer" // Proposer identity for a round

	// ========================================================================
	// Lease
	// ========================================================================
	AttrLeaseID      = "lease.id"
	AttrLeaseHolder  = "lease.holder"
	AttrLeaseScope   = "lease.scope_kind"
	AttrRenewalCount = "lease.renewal_count"

	// ========================================================================
	// Peer & request
	// ========================================================================
	AttrPeer      = "peer.address"
	AttrRequestID = "request.id"
)

// Span names for coordination-core operations.
const (
	SpanLeaseRequest = "lease.request"
	SpanLeaseRenew   = "lease.renew"
	SpanLeaseRevoke  = "lease.revoke"
	SpanLeaseMigrate = "lease.migrate"

	SpanConsensusPropose  = "consensus.propose"
	SpanConsensusShare    = "consensus.share"
	SpanConsensusFinalize = "consensus.finalize"
	SpanConsensusView     = "consensus.view_change"

	SpanStateApply = "statemachine.apply"
	SpanStateQuery = "statemachine.query"

	SpanBroadcastSend = "transport.broadcast"
	SpanBroadcastRecv = "transport.receive"
)

// Operation returns an attribute for an operation name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// ScopeKey returns an attribute for a lease scope key.
func ScopeKey(key string) attribute.KeyValue {
	return attribute.String(AttrScopeKey, key)
}

// ActorID returns an attribute for an actor identity.
func ActorID(id string) attribute.KeyValue {
	return attribute.String(AttrActorID, id)
}

// Round returns an attribute for a consensus round number.
func Round(round uint64) attribute.KeyValue {
	return attribute.Int64(AttrRound, int64(round))
}

// View returns an attribute for a consensus view number.
func View(view uint64) attribute.KeyValue {
	return attribute.Int64(AttrView, int64(view))
}

// NodeID returns an attribute for a group member identity.
func NodeID(id string) attribute.KeyValue {
	return attribute.String(AttrNodeID, id)
}

// Quorum returns an attribute for the configured quorum size.
func Quorum(n int) attribute.KeyValue {
	return attribute.Int(AttrQuorum, n)
}

// Proposer returns an attribute for a round's proposer identity.
func Proposer(id string) attribute.KeyValue {
	return attribute.String(AttrProposer, id)
}

// LeaseID returns an attribute for a lease identifier.
func LeaseID(id string) attribute.KeyValue {
	return attribute.String(AttrLeaseID, id)
}

// LeaseHolder returns an attribute for a lease's current holder.
func LeaseHolder(holder string) attribute.KeyValue {
	return attribute.String(AttrLeaseHolder, holder)
}

// LeaseScope returns an attribute for a lease's scope kind.
func LeaseScope(kind string) attribute.KeyValue {
	return attribute.String(AttrLeaseScope, kind)
}

// RenewalCount returns an attribute for a lease's renewal count.
func RenewalCount(n uint32) attribute.KeyValue {
	return attribute.Int64(AttrRenewalCount, int64(n))
}

// Peer returns an attribute for a remote peer address.
func Peer(addr string) attribute.KeyValue {
	return attribute.String(AttrPeer, addr)
}

// RequestID returns an attribute for a request correlation ID.
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// StartLeaseSpan starts a span for a lease operation.
func StartLeaseSpan(ctx context.Context, spanName, scopeKey, actorID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ScopeKey(scopeKey), ActorID(actorID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartConsensusSpan starts a span for a consensus protocol step.
func StartConsensusSpan(ctx context.Context, spanName string, round uint64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Round(round)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartStateSpan starts a span for a state machine operation.
func StartStateSpan(ctx context.Context, spanName, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Operation(operation)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartBroadcastSpan starts a span for a transport send/receive.
func StartBroadcastSpan(ctx context.Context, spanName, peer string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Peer(peer)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}
