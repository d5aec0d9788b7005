package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/rhc-coord/pkg/lease"
	"github.com/marmos91/rhc-coord/pkg/node"
)

// LeaseHandler serves read-only views over a node's lease table. Mutating
// a lease (acquiring, releasing, forcing a migration) is deliberately not
// exposed here: those belong to the client protocol the coordination core
// speaks to its own writers, not to the operator surface.
type LeaseHandler struct {
	node *node.Node
}

// NewLeaseHandler creates a lease handler bound to n.
func NewLeaseHandler(n *node.Node) *LeaseHandler {
	return &LeaseHandler{node: n}
}

// LeaseView is the JSON-safe projection of a lease.Lease.
type LeaseView struct {
	ID           string `json:"id"`
	ScopeKind    string `json:"scope_kind"`
	ScopeKey     string `json:"scope_key"`
	Holder       string `json:"holder"`
	GrantedAt    uint64 `json:"granted_at_ms"`
	ExpiresAt    uint64 `json:"expires_at_ms"`
	RenewalCount uint32 `json:"renewal_count"`
}

func toLeaseView(l *lease.Lease) LeaseView {
	return LeaseView{
		ID:           l.ID.String(),
		ScopeKind:    l.Scope.Kind.String(),
		ScopeKey:     l.Scope.Key(),
		Holder:       string(l.Holder),
		GrantedAt:    l.GrantedAt.Physical,
		ExpiresAt:    l.ExpiresAt.Physical,
		RenewalCount: l.RenewalCount,
	}
}

// List handles GET /api/v1/leases - every lease this node currently knows
// about, expired or not.
func (h *LeaseHandler) List(w http.ResponseWriter, r *http.Request) {
	leases := h.node.Leases.Snapshot()
	out := make([]LeaseView, 0, len(leases))
	for _, l := range leases {
		out = append(out, toLeaseView(l))
	}
	WriteJSONOK(w, out)
}

// Get handles GET /api/v1/leases/{scopeKey} - the lease currently
// covering a single scope key, if any.
func (h *LeaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	scopeKey := chi.URLParam(r, "scopeKey")
	for _, l := range h.node.Leases.Snapshot() {
		if l.Scope.Key() == scopeKey {
			WriteJSONOK(w, toLeaseView(l))
			return
		}
	}
	NotFound(w, "no lease for scope "+scopeKey)
}
