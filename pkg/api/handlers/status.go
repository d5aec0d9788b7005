package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/rhc-coord/pkg/node"
)

// StatusHealthTimeout bounds how long a status probe will wait on the
// node's internal state before reporting unhealthy.
const StatusHealthTimeout = 5 * time.Second

// StatusHandler serves the operator-facing liveness, readiness and
// detailed status endpoints for a single coordination core process.
type StatusHandler struct {
	node *node.Node
}

// NewStatusHandler creates a status handler bound to n.
func NewStatusHandler(n *node.Node) *StatusHandler {
	return &StatusHandler{node: n}
}

// Liveness handles GET /health - simple liveness probe.
func (h *StatusHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, struct {
		Status string `json:"status"`
	}{Status: "alive"})
}

// Readiness handles GET /health/ready - readiness probe. A node is ready
// once it has been wired to a consensus group.
func (h *StatusHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.node == nil || h.node.Group == nil {
		WriteProblem(w, http.StatusServiceUnavailable, "Not Ready", "node is not wired to a consensus group")
		return
	}
	WriteJSONOK(w, struct {
		Status string `json:"status"`
	}{Status: "ready"})
}

// ClockStatus reports a single HLC reading for operator diagnostics.
type ClockStatus struct {
	Physical uint64 `json:"physical"`
	Logical  uint32 `json:"logical"`
}

// ConsensusStatus summarizes the consensus group this node participates in.
type ConsensusStatus struct {
	Self         string   `json:"self"`
	Members      []string `json:"members"`
	Quorum       int      `json:"quorum"`
	CurrentRound uint64   `json:"current_round"`
	CurrentView  uint64   `json:"current_view"`
	Equivocation int      `json:"equivocation_count"`
}

// StatusResponse is the full detailed status reported by GET /api/v1/status.
type StatusResponse struct {
	Clock     ClockStatus     `json:"clock"`
	Leases    int             `json:"active_leases"`
	Consensus ConsensusStatus `json:"consensus"`
}

// Detail handles GET /api/v1/status - a full snapshot of clock, lease and
// consensus state for this node.
func (h *StatusHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if h.node == nil {
		InternalServerError(w, "node not initialized")
		return
	}

	now := h.node.Clock.Now()
	resp := StatusResponse{
		Clock:  ClockStatus{Physical: now.Physical, Logical: now.Logical},
		Leases: h.node.Leases.Stats().ActiveLeases,
	}

	if g := h.node.Group; g != nil {
		resp.Consensus = ConsensusStatus{
			Self:         g.Self(),
			Members:      g.Members(),
			Quorum:       g.Quorum(),
			CurrentRound: g.CurrentRound(),
			CurrentView:  g.CurrentView(),
			Equivocation: len(g.Evidence()),
		}
	}

	WriteJSONOK(w, resp)
}
