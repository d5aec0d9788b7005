// Package node wires the hybrid logical clock, lease manager, consensus
// group and state machine into the single object a transport binding or
// command-line entry point drives. It is the only package allowed to
// import all four.
package node

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/rhc-coord/internal/logger"
	"github.com/marmos91/rhc-coord/pkg/coorderr"
	"github.com/marmos91/rhc-coord/pkg/crdt"
	"github.com/marmos91/rhc-coord/pkg/consensus"
	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/marmos91/rhc-coord/pkg/lease"
	"github.com/marmos91/rhc-coord/pkg/metrics"
	"github.com/marmos91/rhc-coord/pkg/statemachine"
	"github.com/marmos91/rhc-coord/pkg/wire"
)

// Node is one coordination-core process: a member of a consensus group
// that owns a set of leases and a replicated key/value state machine.
type Node struct {
	self crdt.ActorId

	Clock   *hlc.HLC
	Leases  *lease.Manager
	Group   *consensus.Group
	Machine *statemachine.Machine
	Metrics *metrics.Metrics
}

// Config supplies the already-constructed pieces New assembles into a
// Node. Group is supplied later via SetGroup, since constructing a Group
// requires a consensus.Validator and consensus.Applier, and this Node is
// meant to be both: Metrics defaults to an unregistered instance when nil.
type Config struct {
	Self    crdt.ActorId
	Clock   *hlc.HLC
	Leases  *lease.Manager
	Machine *statemachine.Machine
	Metrics *metrics.Metrics
}

// New assembles a Node from cfg. Call SetGroup once the consensus group
// has been constructed with this Node as its Validator and Applier.
func New(cfg Config) *Node {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(nil)
	}
	return &Node{
		self:    cfg.Self,
		Clock:   cfg.Clock,
		Leases:  cfg.Leases,
		Machine: cfg.Machine,
		Metrics: cfg.Metrics,
	}
}

// SetGroup attaches the consensus group this node participates in. Split
// from New because *consensus.Group must be constructed with this Node
// already in hand (as its Validator and Applier), and this Node needs the
// Group back to drive writes and lease migrations.
func (n *Node) SetGroup(g *consensus.Group) {
	n.Group = g
}

// Validate implements consensus.Validator: every proposed value must at
// least decode as a well-formed RoundCommand before this node will sign
// it.
func (n *Node) Validate(round uint64, value []byte) error {
	var cmd wire.RoundCommand
	if err := wire.Decode(value, &cmd); err != nil {
		return fmt.Errorf("round %d proposes an undecodable command: %w", round, err)
	}
	switch cmd.Kind {
	case wire.RoundKV:
		var kv wire.KVCommand
		return wire.Decode(cmd.Payload, &kv)
	case wire.RoundFence:
		var fr wire.FenceRequest
		return wire.Decode(cmd.Payload, &fr)
	case wire.RoundGrant:
		var gr wire.GrantRequest
		return wire.Decode(cmd.Payload, &gr)
	default:
		return fmt.Errorf("round %d proposes unknown command kind %d", round, cmd.Kind)
	}
}

// Apply implements consensus.Applier: it dispatches a committed round's
// value to the state machine or the lease manager depending on its kind.
// Apply must be idempotent against round replays; the state machine and
// lease manager each guard their own side of that independently.
func (n *Node) Apply(round uint64, value []byte) error {
	var cmd wire.RoundCommand
	if err := wire.Decode(value, &cmd); err != nil {
		return fmt.Errorf("decode round command at round %d: %w", round, err)
	}

	switch cmd.Kind {
	case wire.RoundKV:
		return n.Machine.Apply(round, cmd.Payload)

	case wire.RoundFence:
		var fr wire.FenceRequest
		if err := wire.Decode(cmd.Payload, &fr); err != nil {
			return fmt.Errorf("decode fence request at round %d: %w", round, err)
		}
		scope := scopeFromWire(fr.Scope)
		if err := n.Leases.Fence(scope, hlc.Timestamp{Physical: fr.FenceTs}); err != nil {
			if coorderr.IsNotFound(err) {
				return nil // nothing to fence yet; the eventual grant still applies
			}
			return err
		}
		return nil

	case wire.RoundGrant:
		var gr wire.GrantRequest
		if err := wire.Decode(cmd.Payload, &gr); err != nil {
			return fmt.Errorf("decode grant request at round %d: %w", round, err)
		}
		scope := scopeFromWire(gr.Scope)
		_, err := n.Leases.Acquire(scope, crdt.ActorId(gr.Holder), time.Duration(gr.DurationMs)*time.Millisecond)
		if err != nil && !coorderr.IsLeaseConflict(err) {
			return err
		}
		n.Metrics.LeaseMigrated(scope.Kind.String())
		return nil

	default:
		return fmt.Errorf("apply: unknown round command kind %d at round %d", cmd.Kind, round)
	}
}

func scopeFromWire(s wire.WireScope) lease.Scope {
	switch s.Kind {
	case wire.ScopeDirectory:
		return lease.DirectoryScope(s.Path, s.Recursive)
	case wire.ScopeBlock:
		return lease.BlockScope(s.BlockID)
	default:
		return lease.FileScope(s.Path)
	}
}

func wireFromScope(s lease.Scope) wire.WireScope {
	switch s.Kind {
	case lease.ScopeDirectory:
		return wire.WireScope{Kind: wire.ScopeDirectory, Path: s.Path, Recursive: s.Recursive}
	case lease.ScopeBlock:
		return wire.WireScope{Kind: wire.ScopeBlock, BlockID: s.BlockID}
	default:
		return wire.WireScope{Kind: wire.ScopeFile, Path: s.Path}
	}
}

// Write commits a KV set for key to the consensus group if this node
// holds the covering lease. Otherwise it returns an Unauthorized error
// naming the current holder (NotFound if no lease covers path); the
// write is not forwarded to the holder.
func (n *Node) Write(ctx context.Context, path, key string, value []byte) error {
	if n.Leases.CanWrite(path) {
		cmd := wire.KVCommand{Kind: wire.KVSet, Key: key, Value: value}
		payload, err := wire.Encode(&cmd)
		if err != nil {
			return fmt.Errorf("encode write command: %w", err)
		}
		envelope := wire.RoundCommand{Kind: wire.RoundKV, Payload: payload}
		data, err := wire.Encode(&envelope)
		if err != nil {
			return fmt.Errorf("encode round envelope: %w", err)
		}
		_, err = n.Group.Commit(ctx, data)
		return err
	}

	l, ok := n.Leases.FindCovering(path, n.Leases.Now())
	if !ok {
		return fmt.Errorf("write %q: %w", path, coorderr.NewNotFound(path, "lease"))
	}
	logger.Debug("write rejected: lease held by another node", "path", path, "holder", string(l.Holder))
	return fmt.Errorf("write %q: %w", path, coorderr.NewUnauthorized(path, string(l.Holder)))
}

// Read returns key's current value from the local replica of the state
// machine. Reads never require holding a lease: the CRDT layer and
// consensus log keep every replica eventually consistent.
func (n *Node) Read(ctx context.Context, key string) ([]byte, bool, error) {
	return n.Machine.Get(ctx, key)
}

// RequestLease acquires or migrates the lease covering scope to self,
// driving the three-step fence/commit/grant protocol through the
// consensus group when another node currently holds it.
func (n *Node) RequestLease(ctx context.Context, scope lease.Scope, duration time.Duration) (*lease.Lease, error) {
	now := n.Leases.Now()
	if existing, ok := n.Leases.IsValid(scope, now); ok {
		if existing.Holder == n.self {
			return existing, nil
		}

		fenceReq := wire.FenceRequest{Scope: wireFromScope(scope), FenceTs: now.Physical, Proposer: string(n.self)}
		fencePayload, err := wire.Encode(&fenceReq)
		if err != nil {
			return nil, fmt.Errorf("encode fence request: %w", err)
		}
		fenceEnvelope := wire.RoundCommand{Kind: wire.RoundFence, Payload: fencePayload}
		fenceData, err := wire.Encode(&fenceEnvelope)
		if err != nil {
			return nil, fmt.Errorf("encode fence envelope: %w", err)
		}

		grantReq := wire.GrantRequest{Scope: wireFromScope(scope), Holder: string(n.self), DurationMs: uint64(duration.Milliseconds()), FenceTs: now.Physical}
		grantPayload, err := wire.Encode(&grantReq)
		if err != nil {
			return nil, fmt.Errorf("encode grant request: %w", err)
		}
		grantEnvelope := wire.RoundCommand{Kind: wire.RoundGrant, Payload: grantPayload}
		grantData, err := wire.Encode(&grantEnvelope)
		if err != nil {
			return nil, fmt.Errorf("encode grant envelope: %w", err)
		}

		l, err := n.Leases.MigrateIn(ctx, scope, n.self, duration, n.Group, fenceData, grantData)
		if err != nil {
			n.Metrics.LeaseAcquired(scope.Kind.String(), metrics.StatusDenied)
			return nil, err
		}
		n.Metrics.LeaseAcquired(scope.Kind.String(), metrics.StatusGranted)
		return l, nil
	}

	l, err := n.Leases.Acquire(scope, n.self, duration)
	if err != nil {
		n.Metrics.LeaseAcquired(scope.Kind.String(), metrics.StatusDenied)
		return nil, err
	}
	n.Metrics.LeaseAcquired(scope.Kind.String(), metrics.StatusGranted)
	return l, nil
}
