package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/neboloop/surfer/internal/logging"
)

var (
	// ErrClosed is returned by every action after Close.
	ErrClosed = errors.New("browser session is closed")
	// ErrUnknownRef is returned for a ref that is not in the last snapshot.
	ErrUnknownRef = errors.New("unknown element ref")
)

// Session is one persistent browser shared by every agent run. The browser
// is launched on first use and stays open until Close.
type Session struct {
	cfg *ResolvedConfig

	mu          sync.Mutex
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	closed      bool

	// one action at a time on the shared tab
	busy chan struct{}

	// Reference map for semantic snapshots: ref ID -> backend node ID
	refMu sync.RWMutex
	refs  map[int]cdp.BackendNodeID
}

// NewSession creates a session. No browser is started until the first action.
func NewSession(cfg *ResolvedConfig) *Session {
	if cfg == nil {
		cfg = ResolveConfig(Config{})
	}
	return &Session{
		cfg:  cfg,
		busy: make(chan struct{}, 1),
		refs: make(map[int]cdp.BackendNodeID),
	}
}

// tab returns the tab context, launching the browser if needed.
func (s *Session) tab() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.tabCtx != nil {
		return s.tabCtx, nil
	}

	exe, err := FindChromeExecutable(s.cfg.ExecutablePath)
	if err != nil {
		return nil, err
	}
	exePath := ""
	if exe != nil {
		exePath = exe.Path
	}
	if err := os.MkdirAll(s.cfg.UserDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user data dir: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), s.cfg.allocatorOptions(exePath)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	// an empty Run starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	logging.Infof("[browser] launched %s profile=%s headless=%v", exe, s.cfg.UserDataDir, s.cfg.Headless)
	s.tabCtx, s.tabCancel, s.allocCancel = tabCtx, tabCancel, allocCancel
	return tabCtx, nil
}

// run executes actions on the tab, bounded by the action timeout and by ctx.
// Actions from concurrent callers are serialized; a caller whose ctx ends
// while waiting gives up without touching the browser.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	select {
	case s.busy <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.busy }()

	tabCtx, err := s.tab()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(tabCtx, s.cfg.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err = chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and waits for the body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("URL is required for navigate")
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	return s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Snapshot captures the page's accessibility tree and refreshes the refs
// used by ClickRef and TypeRef.
func (s *Session) Snapshot(ctx context.Context) (*PageState, error) {
	var state PageState
	err := s.run(ctx,
		chromedp.Location(&state.URL),
		chromedp.Title(&state.Title),
		chromedp.ActionFunc(func(ctx context.Context) error {
			nodes, err := accessibility.GetFullAXTree().Do(ctx)
			if err != nil {
				return err
			}
			text, refs := formatAXTree(nodes)
			s.refMu.Lock()
			s.refs = refs
			s.refMu.Unlock()
			state.Tree = text
			state.Refs = len(refs)
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get accessibility tree: %w", err)
	}
	return &state, nil
}

func (s *Session) lookup(ref int) (cdp.BackendNodeID, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	id, ok := s.refs[ref]
	if !ok {
		return 0, fmt.Errorf("%w %d: take a new snapshot", ErrUnknownRef, ref)
	}
	return id, nil
}

// resolveNode pushes a backend node to the frontend so DOM calls can use it.
func resolveNode(ctx context.Context, id cdp.BackendNodeID) (cdp.NodeID, error) {
	nodeIDs, err := dom.PushNodesByBackendIDsToFrontend([]cdp.BackendNodeID{id}).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve node: %w", err)
	}
	if len(nodeIDs) == 0 {
		return 0, fmt.Errorf("node not found")
	}
	return nodeIDs[0], nil
}

// ClickRef clicks the centre of the element with the given ref.
func (s *Session) ClickRef(ctx context.Context, ref int) error {
	backendID, err := s.lookup(ref)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		nodeID, err := resolveNode(ctx, backendID)
		if err != nil {
			return err
		}
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(nodeID).Do(ctx); err != nil {
			return fmt.Errorf("failed to scroll into view: %w", err)
		}
		box, err := dom.GetBoxModel().WithNodeID(nodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to get box model: %w", err)
		}
		if len(box.Content) < 8 {
			return fmt.Errorf("element has no clickable area")
		}
		x := (box.Content[0] + box.Content[2] + box.Content[4] + box.Content[6]) / 4
		y := (box.Content[1] + box.Content[3] + box.Content[5] + box.Content[7]) / 4
		return chromedp.MouseClickXY(x, y).Do(ctx)
	}))
}

// TypeRef replaces the value of the element with the given ref. When submit
// is set Enter is pressed afterwards.
func (s *Session) TypeRef(ctx context.Context, ref int, text string, submit bool) error {
	backendID, err := s.lookup(ref)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		nodeID, err := resolveNode(ctx, backendID)
		if err != nil {
			return err
		}
		if err := dom.Focus().WithNodeID(nodeID).Do(ctx); err != nil {
			return fmt.Errorf("failed to focus element: %w", err)
		}
		// select existing text so typing replaces it
		if err := chromedp.KeyEvent("a", chromedp.KeyModifiers(selectAllModifier())).Do(ctx); err != nil {
			return err
		}
		keys := text
		if submit {
			keys += "\r"
		}
		return chromedp.KeyEvent(keys).Do(ctx)
	}))
}

// Scroll moves the viewport by most of a screen. Direction is "up" or "down".
func (s *Session) Scroll(ctx context.Context, direction string) error {
	sign := 1
	if direction == "up" {
		sign = -1
	}
	js := fmt.Sprintf("window.scrollBy(0, %d * window.innerHeight * 0.8)", sign)
	return s.run(ctx, chromedp.Evaluate(js, nil))
}

// Text returns the visible text of the page body, truncated.
func (s *Session) Text(ctx context.Context) (string, error) {
	var text string
	if err := s.run(ctx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return truncate(strings.TrimSpace(text), maxTextLength), nil
}

// Close shuts the browser down. It returns when the browser has exited or
// ctx is done, whichever comes first. Later calls are no-ops.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tabCtx, tabCancel, allocCancel := s.tabCtx, s.tabCancel, s.allocCancel
	s.mu.Unlock()

	if tabCtx == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		// Cancel closes the browser gracefully; allocCancel kills what is left
		err := chromedp.Cancel(tabCtx)
		tabCancel()
		allocCancel()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("close browser: %w", err)
		}
		logging.Info("[browser] closed")
		return nil
	case <-ctx.Done():
		allocCancel()
		return ctx.Err()
	}
}
