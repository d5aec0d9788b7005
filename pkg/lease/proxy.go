package lease

import (
	"context"
	"fmt"

	"github.com/marmos91/rhc-coord/pkg/crdt"
)

// ProxyWrite is the payload a non-holder sends to the current lease
// holder when asked to write a path it cannot write itself. It
// preserves the "writes never fail, they just pay latency" invariant:
// rather than reject the write, the non-holder forwards it.
type ProxyWrite struct {
	Path   string
	Bytes  []byte
	Origin crdt.ActorId
}

// ProxyResult is the holder's acknowledgment of a proxied write.
type ProxyResult struct {
	Applied   bool
	AppliedBy crdt.ActorId
}

// Applier applies a write's bytes to the scope's backing state once the
// holder has verified its own lease. Supplied by the caller (typically
// pkg/node) so this package stays free of a dependency on storage.
type Applier interface {
	Apply(ctx context.Context, path string, bytes []byte) error
}

// ProxyServer is the holder side of the proxy-write path: it verifies
// its own lease before applying a write forwarded by a non-holder.
type ProxyServer struct {
	self    crdt.ActorId
	manager *Manager
	applier Applier
}

// NewProxyServer returns a ProxyServer that applies writes via applier
// once self's lease over the target path is confirmed.
func NewProxyServer(self crdt.ActorId, manager *Manager, applier Applier) *ProxyServer {
	return &ProxyServer{self: self, manager: manager, applier: applier}
}

// Handle verifies the local lease for write.Path and, if held, applies
// the write. It returns an Unauthorized error if this node does not
// currently hold the covering lease.
func (s *ProxyServer) Handle(ctx context.Context, write ProxyWrite) (ProxyResult, error) {
	if !s.manager.CanWrite(write.Path) {
		return ProxyResult{}, errUnauthorized(write.Path, s.self)
	}
	if err := s.applier.Apply(ctx, write.Path, write.Bytes); err != nil {
		return ProxyResult{}, fmt.Errorf("apply proxied write to %q: %w", write.Path, err)
	}
	return ProxyResult{Applied: true, AppliedBy: s.self}, nil
}

// Forwarder delivers a ProxyWrite to the node currently holding the
// lease for its path and returns its result. Supplied by the caller; no
// implementation ships in this module, and pkg/lease only shapes the
// payload.
type Forwarder interface {
	Forward(ctx context.Context, holder crdt.ActorId, write ProxyWrite) (ProxyResult, error)
}

// ProxyClient is the non-holder side of the proxy-write path: it
// identifies the current holder for a path and forwards the write to
// them instead of failing the caller's write outright.
type ProxyClient struct {
	self      crdt.ActorId
	manager   *Manager
	forwarder Forwarder
}

// NewProxyClient returns a ProxyClient that forwards writes via
// forwarder when self does not hold the lease for the target path.
func NewProxyClient(self crdt.ActorId, manager *Manager, forwarder Forwarder) *ProxyClient {
	return &ProxyClient{self: self, manager: manager, forwarder: forwarder}
}

// Write proxies bytes for path to the current holder, or returns
// errNoLease if no valid lease covers path at all (e.g. mid-migration).
func (c *ProxyClient) Write(ctx context.Context, path string, bytes []byte) (ProxyResult, error) {
	l, ok := c.manager.FindCovering(path, c.manager.Now())
	if !ok {
		return ProxyResult{}, errNoLease(path)
	}
	return c.forwarder.Forward(ctx, l.Holder, ProxyWrite{Path: path, Bytes: bytes, Origin: c.self})
}
