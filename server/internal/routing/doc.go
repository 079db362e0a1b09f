// Package routing holds the websocket routing table.
//
// A Table is built once at startup from Route values and never changes.
// Websocket(consumer) builds the production table, which has exactly one
// entry: `example/ws/$` → the example consumer.
package routing
