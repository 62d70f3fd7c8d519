package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinsley/dynport/graphapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefs = `
nodes:
  Number:
    behavior: constant
    outputs:
      - {name: value, type: decimal}
  Sum:
    behavior: sum
    inputs:
      - {name: a, type: decimal}
      - {name: b, type: decimal}
      - {name: c, type: decimal}
    outputs:
      - {name: total, type: decimal}
`

const testEvents = `
- {type: node_added, data: {type: Number, properties: {value: 2}}}
- {type: node_added, data: {type: Number, properties: {value: 5}}}
- {type: node_added, data: {type: Sum}}
- {type: link_created, data: {origin_id: 1, origin_slot: 0, target_id: 3, target_slot: 0}}
- {type: link_created, data: {origin_id: 2, origin_slot: 0, target_id: 3, target_slot: 1}}
- {type: link_removed, data: {link_id: 1}}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReplayPrintsLayouts(t *testing.T) {
	dir := t.TempDir()
	defs := writeFile(t, dir, "nodes.yaml", testDefs)
	events := writeFile(t, dir, "events.yaml", testEvents)
	saved := filepath.Join(dir, "out.json")

	out, err := runCmd(t, "replay", "--defs", defs, "--events", events, "--out", saved, "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, out, "node 3 Sum: order=[1 2 0] spare=2 active=2")
	assert.NotContains(t, out, "Number:")

	objects, err := graphapi.NewNodeObjectsFromFile(defs)
	require.NoError(t, err)
	graph, _, err := graphapi.NewGraphFromJsonFile(saved, objects)
	require.NoError(t, err)
	sum := graph.GetNodeById(3).Ports
	assert.True(t, sum.IsDisconnected(0))
	assert.True(t, sum.IsConnected(1))
	assert.Equal(t, 2, sum.SpareIndex())
}

func TestReplayResumesSavedGraph(t *testing.T) {
	dir := t.TempDir()
	defs := writeFile(t, dir, "nodes.yaml", testDefs)
	first := writeFile(t, dir, "first.yaml", testEvents)
	saved := filepath.Join(dir, "saved.json")
	_, err := runCmd(t, "replay", "--defs", defs, "--events", first, "--out", saved, "--progress=false")
	require.NoError(t, err)

	// reconnecting the disconnected slot reactivates it
	second := writeFile(t, dir, "second.json", `[
		{"type": "link_created", "data": {"origin_id": 1, "origin_slot": 0, "target_id": 3, "target_slot": 0}}
	]`)
	out, err := runCmd(t, "replay", "--defs", defs, "--graph", saved, "--events", second, "--trace", "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"outcome":"reactivated"`)
	assert.Contains(t, out, "node 3 Sum: order=[0 1 2] spare=2 active=2")
}

func TestReplayStopsOnFailedEvent(t *testing.T) {
	dir := t.TempDir()
	defs := writeFile(t, dir, "nodes.yaml", testDefs)
	events := writeFile(t, dir, "events.yaml", `
- {type: node_added, data: {type: Sum}}
- {type: link_removed, data: {link_id: 4}}
- {type: node_added, data: {type: Sum}}
`)

	_, err := runCmd(t, "replay", "--defs", defs, "--events", events, "--progress=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 2 (link_removed)")

	out, err := runCmd(t, "replay", "--defs", defs, "--events", events, "--keep-going", "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 3 events failed")
	assert.Equal(t, 2, strings.Count(out, "Sum: order=[0]"))
}

func TestReplayRequiresEvents(t *testing.T) {
	_, err := runCmd(t, "replay")
	assert.Error(t, err)
}
