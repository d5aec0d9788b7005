package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the coordination core.
// Use these keys consistently across all log statements for log
// aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Operation & Scope
	// ========================================================================
	KeyOperation = "operation" // Operation name: request_lease, write, read, propose, etc.
	KeyScopeKey  = "scope_key" // Lease scope key the operation concerns
	KeyActorID   = "actor_id"  // Requesting or holding actor's identity

	// ========================================================================
	// Consensus
	// ========================================================================
	KeyRound    = "round"     // Consensus round number
	KeyView     = "view"      // Consensus view number
	KeyNodeID   = "node_id"   // Group member identity
	KeyQuorum   = "quorum"    // Configured quorum size
	KeyProposer = "proposer"  // Proposer identity for a round

	// ========================================================================
	// Request & Connection
	// ========================================================================
	KeyRequestID = "request_id" // HTTP request ID or RPC correlation ID
	KeyPeer      = "peer"       // Remote peer address or identity

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeySource     = "source"      // Data source: memory, badger, postgres
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for an operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// ScopeKey returns a slog.Attr for a lease scope key
func ScopeKey(key string) slog.Attr {
	return slog.String(KeyScopeKey, key)
}

// ActorID returns a slog.Attr for an actor identity
func ActorID(id string) slog.Attr {
	return slog.String(KeyActorID, id)
}

// Round returns a slog.Attr for a consensus round number
func Round(round uint64) slog.Attr {
	return slog.Uint64(KeyRound, round)
}

// View returns a slog.Attr for a consensus view number
func View(view uint64) slog.Attr {
	return slog.Uint64(KeyView, view)
}

// NodeID returns a slog.Attr for a group member identity
func NodeID(id string) slog.Attr {
	return slog.String(KeyNodeID, id)
}

// Quorum returns a slog.Attr for the configured quorum size
func Quorum(n int) slog.Attr {
	return slog.Int(KeyQuorum, n)
}

// Proposer returns a slog.Attr for a round's proposer identity
func Proposer(id string) slog.Attr {
	return slog.String(KeyProposer, id)
}

// RequestID returns a slog.Attr for a request correlation ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Peer returns a slog.Attr for a remote peer address or identity
func Peer(p string) slog.Attr {
	return slog.String(KeyPeer, p)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Source returns a slog.Attr for a data source
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}
