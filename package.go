// Dynport models node-editor nodes whose inputs grow and shrink with their
// connections. Each node's inputs are owned by a port controller (package
// ports) that keeps exactly one empty "spare" input open for the next link,
// remembers inputs whose link was removed, and saves that state with the
// graph. Package graphapi holds the graph itself and its JSON save format,
// package client drives a graph from a remote editor over a websocket, and
// cmd/portreplay replays recorded editor events.
package dynport
