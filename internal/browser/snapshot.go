package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
)

// PageState is what the agent sees of the current page.
type PageState struct {
	URL   string
	Title string
	// Tree is the accessibility tree with [ref=N] markers on interactive
	// elements.
	Tree string
	// Refs is the number of interactive elements in Tree.
	Refs int
}

var interactiveRoles = map[string]bool{
	"button":     true,
	"link":       true,
	"textbox":    true,
	"searchbox":  true,
	"checkbox":   true,
	"radio":      true,
	"combobox":   true,
	"listbox":    true,
	"option":     true,
	"menuitem":   true,
	"tab":        true,
	"slider":     true,
	"spinbutton": true,
	"switch":     true,
	"treeitem":   true,
}

// formatAXTree renders nodes as an indented outline and returns the ref map
// for interactive elements. Ignored nodes are skipped but their children are
// kept at the same depth.
func formatAXTree(nodes []*accessibility.Node) (string, map[int]cdp.BackendNodeID) {
	byID := make(map[accessibility.NodeID]*accessibility.Node, len(nodes))
	for _, n := range nodes {
		if n != nil {
			byID[n.NodeID] = n
		}
	}

	f := &axFormatter{byID: byID, refs: make(map[int]cdp.BackendNodeID), seen: make(map[accessibility.NodeID]bool)}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, hasParent := byID[n.ParentID]; n.ParentID == "" || !hasParent {
			f.walk(n, 0)
		}
	}

	out := f.sb.String()
	if len(out) > maxSnapshotLength {
		out = truncate(out, maxSnapshotLength)
	}
	return out, f.refs
}

type axFormatter struct {
	byID map[accessibility.NodeID]*accessibility.Node
	refs map[int]cdp.BackendNodeID
	seen map[accessibility.NodeID]bool
	sb   strings.Builder
}

func (f *axFormatter) walk(n *accessibility.Node, depth int) {
	if f.seen[n.NodeID] {
		return
	}
	f.seen[n.NodeID] = true

	childDepth := depth
	if !n.Ignored {
		role := axValue(n.Role)
		name := axValue(n.Name)
		indent := strings.Repeat("  ", depth)

		switch {
		case interactiveRoles[role] && n.BackendDOMNodeID != 0:
			ref := len(f.refs) + 1
			f.refs[ref] = n.BackendDOMNodeID
			if name != "" {
				fmt.Fprintf(&f.sb, "%s[ref=%d] %s: %q\n", indent, ref, role, name)
			} else {
				fmt.Fprintf(&f.sb, "%s[ref=%d] %s\n", indent, ref, role)
			}
			childDepth++
		case name != "" && role != "generic" && role != "none":
			fmt.Fprintf(&f.sb, "%s%s: %q\n", indent, role, name)
			childDepth++
		case name != "":
			fmt.Fprintf(&f.sb, "%s%q\n", indent, name)
			childDepth++
		}
	}

	for _, id := range n.ChildIDs {
		if child, ok := f.byID[id]; ok {
			f.walk(child, childDepth)
		}
	}
}

// axValue returns the string form of an accessibility property value.
func axValue(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(v.Value), &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(v.Value)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.ToValidUTF8(s[:n], "")
	return cut + "\n... (truncated)"
}
