// Package notify implements the downstream RPC surface that ships
// schedule descriptors to node agents, and the fault-notification
// client that broadcasts scheduler errors and feasibility warnings.
// Both are external collaborators: the scheduling core never imports
// this package or holds a reference to either type.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/khryptorgraphics/taskorch/internal/feasibility"
	"github.com/khryptorgraphics/taskorch/internal/scheduler"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
)

// Dispatcher fans a schedule out to node agents, one websocket
// connection per node id. Agents register with Register after
// completing the upgrade handshake; Dispatch is a no-op for any node
// id with no registered connection (the agent simply hasn't
// connected yet, which is not an error at this layer).
type Dispatcher struct {
	mu     sync.RWMutex
	conns  map[string]*websocket.Conn
	logger *slog.Logger
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{conns: make(map[string]*websocket.Conn), logger: logger}
}

// Register attaches an upgraded websocket connection for nodeID,
// replacing and closing any prior connection for that node.
func (d *Dispatcher) Register(nodeID string, conn *websocket.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.conns[nodeID]; ok {
		old.Close()
	}
	d.conns[nodeID] = conn
}

// Unregister drops the connection for nodeID, if any.
func (d *Dispatcher) Unregister(nodeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.conns, nodeID)
}

// Dispatch ships each node's SchedInfo to its registered agent
// connection as a JSON text frame.
func (d *Dispatcher) Dispatch(result map[string]scheduler.SchedInfo) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for nodeID, info := range result {
		conn, ok := d.conns[nodeID]
		if !ok {
			d.logger.Warn("no agent connection registered for node, skipping dispatch", "node", nodeID)
			continue
		}
		payload, err := json.Marshal(info)
		if err != nil {
			d.logger.Error("failed to marshal schedule for dispatch", "node", nodeID, "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			d.logger.Error("failed to dispatch schedule", "node", nodeID, "error", err)
		}
	}
}

// faultEvent is the wire shape broadcast on the /v1/faults channel.
type faultEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FaultClient broadcasts SchedulerError and feasibility.Warning events
// to every connection registered via Subscribe. It is an external
// collaborator; Scheduler.Schedule never holds a reference to it.
type FaultClient struct {
	mu          sync.RWMutex
	subscribers map[*websocket.Conn]struct{}
	logger      *slog.Logger
}

// NewFaultClient constructs an empty FaultClient.
func NewFaultClient(logger *slog.Logger) *FaultClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FaultClient{subscribers: make(map[*websocket.Conn]struct{}), logger: logger}
}

// Subscribe registers conn to receive fault broadcasts.
func (f *FaultClient) Subscribe(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[conn] = struct{}{}
}

// Unsubscribe removes conn from the broadcast set.
func (f *FaultClient) Unsubscribe(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscribers, conn)
}

// NotifySchedulerError broadcasts a terminal SchedulerError.
func (f *FaultClient) NotifySchedulerError(err schederr.SchedulerError) {
	f.broadcast(faultEvent{Kind: "scheduler_error", Message: err.Error()})
}

// NotifyFeasibilityWarnings broadcasts every warning from a
// feasibility report in turn.
func (f *FaultClient) NotifyFeasibilityWarnings(warnings []feasibility.Warning) {
	for _, w := range warnings {
		f.broadcast(faultEvent{
			Kind:    "feasibility_warning",
			Message: "node " + w.Node + " cpu utilisation sum exceeds Liu & Layland bound",
		})
	}
}

func (f *FaultClient) broadcast(evt faultEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		f.logger.Error("failed to marshal fault event", "error", err)
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for conn := range f.subscribers {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			f.logger.Warn("failed to broadcast fault event", "error", err)
		}
	}
}
