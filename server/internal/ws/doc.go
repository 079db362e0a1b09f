// Package ws implements the example real-time consumer bound at example/ws/.
//
// Hub manages a set of connected clients forming one group. Text frames
// received from any client are relayed to every member, including the sender.
//
// New(group) creates a Hub.
// Hub.Run(ctx) relays queued messages; blocks until ctx is cancelled, then
// closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends a
// "connected" event, then streams group messages.
//
// Message format sent to clients:
//
//	{"event": "connected", "data": {"group": "example", "clients": 3}}
//	{"event": "message",   "data": {"text": "...", "sent_at": "2024-01-01T00:00:00Z"}}
//
// Slow clients whose send buffer fills are disconnected. The upgrader accepts
// all origins; apply CORS restrictions at the reverse proxy level.
package ws
