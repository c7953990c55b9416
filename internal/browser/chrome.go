package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// BrowserKind identifies the type of Chromium-based browser.
type BrowserKind string

const (
	BrowserChrome   BrowserKind = "chrome"
	BrowserBrave    BrowserKind = "brave"
	BrowserEdge     BrowserKind = "edge"
	BrowserChromium BrowserKind = "chromium"
	BrowserCustom   BrowserKind = "custom"
)

// BrowserExecutable represents a found browser binary.
type BrowserExecutable struct {
	Kind BrowserKind
	Path string
}

type candidate struct {
	kind BrowserKind
	path string
}

// FindChromeExecutable finds a Chrome/Chromium browser on the system. A
// custom path must exist. It returns nil, nil when nothing is installed in a
// known location, leaving the choice to chromedp's own lookup.
func FindChromeExecutable(customPath string) (*BrowserExecutable, error) {
	if customPath != "" {
		if !fileExists(customPath) {
			return nil, fmt.Errorf("browser executable not found: %s", customPath)
		}
		return &BrowserExecutable{Kind: BrowserCustom, Path: customPath}, nil
	}

	for _, c := range knownLocations(runtime.GOOS) {
		if fileExists(c.path) {
			return &BrowserExecutable{Kind: c.kind, Path: c.path}, nil
		}
	}

	for _, c := range []candidate{
		{BrowserChrome, "google-chrome"},
		{BrowserChrome, "google-chrome-stable"},
		{BrowserChromium, "chromium"},
		{BrowserChromium, "chromium-browser"},
	} {
		if path, err := exec.LookPath(c.path); err == nil {
			return &BrowserExecutable{Kind: c.kind, Path: path}, nil
		}
	}
	return nil, nil
}

func knownLocations(goos string) []candidate {
	home := os.Getenv("HOME")
	switch goos {
	case "darwin":
		var out []candidate
		for _, app := range []candidate{
			{BrowserChrome, "Google Chrome"},
			{BrowserBrave, "Brave Browser"},
			{BrowserEdge, "Microsoft Edge"},
			{BrowserChromium, "Chromium"},
		} {
			bin := filepath.Join(app.path+".app", "Contents", "MacOS", app.path)
			out = append(out,
				candidate{app.kind, filepath.Join("/Applications", bin)},
				candidate{app.kind, filepath.Join(home, "Applications", bin)},
			)
		}
		return out
	case "windows":
		var out []candidate
		roots := []string{os.Getenv("LOCALAPPDATA"), programFiles("ProgramFiles", `C:\Program Files`), programFiles("ProgramFiles(x86)", `C:\Program Files (x86)`)}
		for _, root := range roots {
			if root == "" {
				continue
			}
			out = append(out,
				candidate{BrowserChrome, filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe")},
				candidate{BrowserBrave, filepath.Join(root, "BraveSoftware", "Brave-Browser", "Application", "brave.exe")},
				candidate{BrowserEdge, filepath.Join(root, "Microsoft", "Edge", "Application", "msedge.exe")},
			)
		}
		return out
	default:
		return []candidate{
			{BrowserChrome, "/usr/bin/google-chrome"},
			{BrowserChrome, "/usr/bin/google-chrome-stable"},
			{BrowserBrave, "/usr/bin/brave-browser"},
			{BrowserEdge, "/usr/bin/microsoft-edge"},
			{BrowserChromium, "/usr/bin/chromium"},
			{BrowserChromium, "/usr/bin/chromium-browser"},
			{BrowserChromium, "/snap/bin/chromium"},
		}
	}
}

func programFiles(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// String implements fmt.Stringer.
func (e *BrowserExecutable) String() string {
	if e == nil {
		return "<auto>"
	}
	return strings.TrimSpace(fmt.Sprintf("%s (%s)", e.Path, e.Kind))
}
