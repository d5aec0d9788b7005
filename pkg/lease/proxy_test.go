package lease

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/rhc-coord/pkg/crdt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingApplier struct {
	applied map[string][]byte
}

func (a *recordingApplier) Apply(ctx context.Context, path string, bytes []byte) error {
	a.applied[path] = bytes
	return nil
}

func TestProxyServerRejectsWriteWithoutLease(t *testing.T) {
	m := newTestManager(1000)
	applier := &recordingApplier{applied: make(map[string][]byte)}
	server := NewProxyServer("node2", m, applier)

	_, err := server.Handle(context.Background(), ProxyWrite{Path: "/data/file.txt", Bytes: []byte("x"), Origin: "node1"})
	require.Error(t, err)
}

func TestProxyServerAppliesWriteWhenHoldingLease(t *testing.T) {
	m := newTestManager(1000)
	_, err := m.Acquire(FileScope("/data/file.txt"), "node1", 30*time.Second)
	require.NoError(t, err)

	applier := &recordingApplier{applied: make(map[string][]byte)}
	server := NewProxyServer("node1", m, applier)

	result, err := server.Handle(context.Background(), ProxyWrite{Path: "/data/file.txt", Bytes: []byte("payload"), Origin: "node2"})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, []byte("payload"), applier.applied["/data/file.txt"])
}

type recordingForwarder struct {
	lastHolder crdt.ActorId
	lastWrite  ProxyWrite
}

func (f *recordingForwarder) Forward(ctx context.Context, holder crdt.ActorId, write ProxyWrite) (ProxyResult, error) {
	f.lastHolder = holder
	f.lastWrite = write
	return ProxyResult{Applied: true, AppliedBy: holder}, nil
}

func TestProxyClientForwardsToCurrentHolder(t *testing.T) {
	m := newTestManager(1000)
	_, err := m.Acquire(FileScope("/data/file.txt"), "node1", 30*time.Second)
	require.NoError(t, err)

	forwarder := &recordingForwarder{}
	client := NewProxyClient("node2", m, forwarder)

	result, err := client.Write(context.Background(), "/data/file.txt", []byte("payload"))
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, crdt.ActorId("node1"), forwarder.lastHolder)
}

func TestProxyClientReturnsNoLeaseWhenNoCoveringLease(t *testing.T) {
	m := newTestManager(1000)
	forwarder := &recordingForwarder{}
	client := NewProxyClient("node2", m, forwarder)

	_, err := client.Write(context.Background(), "/data/unleased.txt", []byte("payload"))
	require.Error(t, err)
}
