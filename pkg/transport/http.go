// Package transport carries consensus round messages between group
// members over plain HTTP, XDR-encoded the same way pkg/wire encodes
// everything else this project puts on a wire.
package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/marmos91/rhc-coord/internal/logger"
	"github.com/marmos91/rhc-coord/pkg/consensus"
	"github.com/marmos91/rhc-coord/pkg/wire"
)

// requestTimeout bounds how long a single peer POST may take before this
// node gives up on that peer for the current broadcast.
const requestTimeout = 2 * time.Second

// HTTPBroadcaster implements consensus.Broadcaster by POSTing XDR-encoded
// Propose and ThresholdShare messages to every peer's consensus endpoint.
// A peer that is unreachable is logged and skipped: consensus tolerates
// up to f silent members, so one slow POST must never block the others.
type HTTPBroadcaster struct {
	client    *http.Client
	peerAddrs map[string]string // member id -> "host:port"
}

// NewHTTPBroadcaster creates a broadcaster that delivers to peerAddrs,
// a map of every other group member's id to its transport address.
func NewHTTPBroadcaster(peerAddrs map[string]string) *HTTPBroadcaster {
	return &HTTPBroadcaster{
		client:    &http.Client{Timeout: requestTimeout},
		peerAddrs: peerAddrs,
	}
}

func (b *HTTPBroadcaster) postAll(path string, payload []byte) error {
	for nodeID, addr := range b.peerAddrs {
		url := fmt.Sprintf("http://%s%s", addr, path)
		resp, err := b.client.Post(url, "application/octet-stream", bytes.NewReader(payload))
		if err != nil {
			logger.Warn("consensus broadcast failed", "peer", nodeID, "path", path, "error", err)
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 300 {
			logger.Warn("consensus broadcast rejected", "peer", nodeID, "path", path, "status", resp.StatusCode)
		}
	}
	return nil
}

// BroadcastPropose implements consensus.Broadcaster.
func (b *HTTPBroadcaster) BroadcastPropose(p wire.Propose) error {
	data, err := wire.Encode(&p)
	if err != nil {
		return fmt.Errorf("encode propose: %w", err)
	}
	return b.postAll("/internal/consensus/propose", data)
}

// BroadcastShare implements consensus.Broadcaster.
func (b *HTTPBroadcaster) BroadcastShare(s wire.ThresholdShare) error {
	data, err := wire.Encode(&s)
	if err != nil {
		return fmt.Errorf("encode threshold share: %w", err)
	}
	return b.postAll("/internal/consensus/share", data)
}

// Receiver serves the HTTP endpoints peers' HTTPBroadcasters deliver to,
// feeding decoded messages into a local consensus.Group. A node that
// receives a Propose must re-broadcast its own resulting share to every
// other member itself: the algorithm reaches quorum by full share
// fan-out, not by routing everything back through the original proposer.
type Receiver struct {
	group       *consensus.Group
	broadcaster consensus.Broadcaster
}

// NewReceiver creates a receiver that applies incoming messages to group,
// re-broadcasting derived shares via broadcaster.
func NewReceiver(group *consensus.Group, broadcaster consensus.Broadcaster) *Receiver {
	return &Receiver{group: group, broadcaster: broadcaster}
}

// Handler returns the http.Handler to mount at /internal/consensus on
// this node's transport listener.
func (rv *Receiver) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/internal/consensus/propose", rv.handlePropose)
	mux.HandleFunc("/internal/consensus/share", rv.handleShare)
	return mux
}

func (rv *Receiver) handlePropose(w http.ResponseWriter, r *http.Request) {
	var p wire.Propose
	if err := decodeBody(r, &p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	share, err := rv.group.OnPropose(p)
	if err != nil {
		logger.Warn("reject incoming proposal", "round", p.Round, "proposer", p.Proposer, "error", err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if share == nil {
		return
	}
	if err := rv.broadcaster.BroadcastShare(*share); err != nil {
		logger.Warn("re-broadcast own share failed", "round", p.Round, "error", err)
	}
}

func (rv *Receiver) handleShare(w http.ResponseWriter, r *http.Request) {
	var s wire.ThresholdShare
	if err := decodeBody(r, &s); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	commit, err := rv.group.OnShare(s)
	if err != nil {
		logger.Warn("reject incoming share", "round", s.Round, "node_id", s.NodeID, "error", err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if commit != nil {
		if _, err := rv.group.Finalize(*commit); err != nil {
			logger.Warn("finalize from locally-aggregated commit failed", "round", commit.Round, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, v interface{}) error {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(r.Body); err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	return wire.Decode(buf.Bytes(), v)
}
