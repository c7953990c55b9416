package browser

import (
	"runtime"

	"github.com/chromedp/cdproto/input"
)

// selectAllModifier is Cmd on macOS and Ctrl elsewhere.
func selectAllModifier() input.Modifier {
	if runtime.GOOS == "darwin" {
		return input.ModifierMeta
	}
	return input.ModifierCtrl
}
