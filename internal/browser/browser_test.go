package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigDefaults(t *testing.T) {
	t.Setenv("SURFER_DATA_DIR", "/tmp/surfer-data")

	cfg := ResolveConfig(Config{})
	assert.Equal(t, filepath.Join("/tmp/surfer-data", "browser", DefaultProfileName, "user-data"), cfg.UserDataDir)
	assert.Equal(t, DefaultActionTimeout, cfg.ActionTimeout)
	assert.False(t, cfg.Headless)
}

func TestResolveConfigExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := ResolveConfig(Config{
		UserDataDir:   "~/.config/browseruse/profiles/default",
		ActionTimeout: 5 * time.Second,
	})
	assert.Equal(t, filepath.Join(home, ".config/browseruse/profiles/default"), cfg.UserDataDir)
	assert.Equal(t, 5*time.Second, cfg.ActionTimeout)
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}

func TestFindChromeExecutableCustomPath(t *testing.T) {
	_, err := FindChromeExecutable(filepath.Join(t.TempDir(), "missing-chrome"))
	assert.ErrorContains(t, err, "browser executable not found")

	exe := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))
	got, err := FindChromeExecutable(exe)
	require.NoError(t, err)
	assert.Equal(t, BrowserCustom, got.Kind)
	assert.Equal(t, exe, got.Path)
}

func TestKnownLocationsPerPlatform(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		assert.NotEmpty(t, knownLocations(goos), goos)
	}
}

func str(s string) *accessibility.Value {
	return &accessibility.Value{Type: accessibility.ValueTypeString, Value: []byte(`"` + s + `"`)}
}

func TestFormatAXTree(t *testing.T) {
	nodes := []*accessibility.Node{
		{NodeID: "1", Role: str("RootWebArea"), Name: str("Search"), ChildIDs: []accessibility.NodeID{"2", "3"}},
		{NodeID: "2", ParentID: "1", Ignored: true, ChildIDs: []accessibility.NodeID{"4"}},
		{NodeID: "3", ParentID: "1", Role: str("link"), Name: str("About"), BackendDOMNodeID: 30},
		{NodeID: "4", ParentID: "2", Role: str("textbox"), Name: str("Query"), BackendDOMNodeID: 40},
		{NodeID: "5", ParentID: "1", Role: str("button"), BackendDOMNodeID: 0},
	}

	tree, refs := formatAXTree(nodes)

	assert.Equal(t, map[int]cdp.BackendNodeID{1: 40, 2: 30}, refs)
	lines := strings.Split(strings.TrimSpace(tree), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `RootWebArea: "Search"`, lines[0])
	assert.Equal(t, `  [ref=1] textbox: "Query"`, lines[1])
	assert.Equal(t, `  [ref=2] link: "About"`, lines[2])
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	s := strings.Repeat("é", 10)
	out := truncate(s, 5)
	assert.True(t, strings.HasSuffix(out, "(truncated)"))
	assert.Equal(t, "éé", strings.TrimSuffix(out, "\n... (truncated)"))
	assert.Equal(t, "short", truncate("short", 10))
}

func TestClosedSessionRejectsActions(t *testing.T) {
	s := NewSession(ResolveConfig(Config{UserDataDir: t.TempDir()}))
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	err := s.Navigate(context.Background(), "example.com")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUnknownRef(t *testing.T) {
	s := NewSession(nil)
	err := s.ClickRef(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestActionsWaitForTheRunningOne(t *testing.T) {
	s := NewSession(ResolveConfig(Config{UserDataDir: t.TempDir()}))
	require.NoError(t, s.Close(context.Background()))

	// occupy the tab as a running action would
	s.busy <- struct{}{}

	done := make(chan error, 1)
	go func() { done <- s.Scroll(context.Background(), "down") }()

	select {
	case err := <-done:
		t.Fatalf("action ran while another held the tab: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	// a waiter whose context ends gives up
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Scroll(ctx, "up"), context.Canceled)

	<-s.busy
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("waiting action never ran")
	}
}
