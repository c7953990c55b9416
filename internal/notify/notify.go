// Package notify shows native OS notifications when a web agent run ends.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/neboloop/surfer/internal/lifecycle"
	"github.com/neboloop/surfer/internal/logging"
)

const title = "Surfer"

// Attach sends a notification for every finished agent run on m. Sending
// happens on its own goroutine so event dispatch is never held up.
func Attach(m *lifecycle.Manager) {
	m.OnAgentRun(func(e lifecycle.Event, d lifecycle.AgentRunEventData) {
		if body := message(e, d); body != "" {
			go Send(title, body)
		}
	})
}

func message(e lifecycle.Event, d lifecycle.AgentRunEventData) string {
	switch e {
	case lifecycle.EventAgentRunComplete:
		return "Finished: " + d.Task
	case lifecycle.EventAgentRunError:
		return fmt.Sprintf("Failed: %s (%v)", d.Task, d.Error)
	case lifecycle.EventAgentRunCancelled:
		return "Cancelled: " + d.Task
	}
	return ""
}

// Send displays a native OS notification.
// Falls back silently if the notification system is unavailable.
func Send(title, body string) {
	cmd := command(runtime.GOOS, sanitize(title), sanitize(body))
	if cmd == nil {
		return
	}
	if err := cmd.Run(); err != nil {
		logging.Debugf("[notify] failed to send notification: %v", err)
	}
}

func command(goos, title, body string) *exec.Cmd {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		return exec.Command("osascript", "-e", script)
	case "linux":
		return exec.Command("notify-send", title, body)
	case "windows":
		ps := fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$textNodes = $template.GetElementsByTagName('text')
$textNodes.Item(0).AppendChild($template.CreateTextNode('%s')) > $null
$textNodes.Item(1).AppendChild($template.CreateTextNode('%s')) > $null
$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('Surfer').Show($toast)
`, title, body)
		return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", ps)
	}
	return nil
}

// sanitize strips characters that could break quoting and bounds the length.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "\\", "")
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
