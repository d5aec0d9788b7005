package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/rhc-coord/pkg/node"
)

// ConsensusHandler exposes read-only views over the consensus group's
// round log and equivocation evidence.
type ConsensusHandler struct {
	node *node.Node
}

// NewConsensusHandler creates a consensus handler bound to n.
func NewConsensusHandler(n *node.Node) *ConsensusHandler {
	return &ConsensusHandler{node: n}
}

// AccusationView is the JSON-safe projection of a consensus.Accusation.
type AccusationView struct {
	Round    uint64 `json:"round"`
	NodeID   string `json:"node_id"`
	Reporter string `json:"reporter"`
}

// Evidence handles GET /api/v1/consensus/evidence - every equivocation
// accusation this node has recorded.
func (h *ConsensusHandler) Evidence(w http.ResponseWriter, r *http.Request) {
	entries := h.node.Group.Evidence()
	out := make([]AccusationView, 0, len(entries))
	for _, a := range entries {
		out = append(out, AccusationView{Round: a.Round, NodeID: a.NodeID, Reporter: a.Reporter})
	}
	WriteJSONOK(w, out)
}

// RoundView reports a single committed round's value, base64-free since
// it is opaque XDR the operator is not expected to decode by hand.
type RoundView struct {
	Round     uint64 `json:"round"`
	ValueSize int    `json:"value_size_bytes"`
}

// Round handles GET /api/v1/consensus/rounds/{round} - whether a given
// round has committed, and its payload size.
func (h *ConsensusHandler) Round(w http.ResponseWriter, r *http.Request) {
	roundParam := chi.URLParam(r, "round")
	round, err := strconv.ParseUint(roundParam, 10, 64)
	if err != nil {
		BadRequest(w, "round must be a non-negative integer")
		return
	}

	value, ok := h.node.Group.CommittedValue(round)
	if !ok {
		NotFound(w, "round has not committed")
		return
	}

	WriteJSONOK(w, RoundView{Round: round, ValueSize: len(value)})
}
