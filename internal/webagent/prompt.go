package webagent

import (
	"fmt"
	"strings"

	"github.com/neboloop/surfer/internal/browser"
)

const systemPrompt = `You are a web browsing agent. You complete the user's task by controlling a real Chrome browser one action at a time.

Each turn you receive the task, the steps taken so far and the current page as an accessibility tree. Interactive elements are marked [ref=N].

Reply with exactly one JSON object and nothing else:
{"thought": "<short reasoning>", "action": "<action>", ...fields}

Actions:
- {"action": "navigate", "url": "https://..."}: open a URL. Start with a search engine when you do not know the site.
- {"action": "click", "ref": N}: click element N.
- {"action": "type", "ref": N, "text": "...", "submit": true}: replace the text of input N, optionally pressing Enter.
- {"action": "scroll", "direction": "down"}: scroll the page ("up" or "down").
- {"action": "extract"}: read the visible text of the page.
- {"action": "done", "answer": "..."}: finish with the final answer to the task.

Refs change after every action; only use refs from the current page. When you have the answer, reply with done.`

// maxRecentSteps bounds how much step history goes into each prompt.
const maxRecentSteps = 12

// buildPrompt renders the user turn for one step.
func buildPrompt(task string, steps []Step, page *browser.PageState, pageErr error) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Task: %s\n\n", task)

	sb.WriteString("Previous steps:\n")
	if len(steps) == 0 {
		sb.WriteString("(none)\n")
	}
	recent := steps
	if len(recent) > maxRecentSteps {
		fmt.Fprintf(&sb, "(%d earlier steps omitted)\n", len(recent)-maxRecentSteps)
		recent = recent[len(recent)-maxRecentSteps:]
	}
	for _, s := range recent {
		fmt.Fprintf(&sb, "%d. %s -> %s\n", s.Number, s.Action, s.Outcome)
	}

	sb.WriteString("\nCurrent page:\n")
	switch {
	case pageErr != nil:
		fmt.Fprintf(&sb, "(snapshot failed: %v)\n", pageErr)
	case page == nil || page.URL == "" || page.URL == "about:blank":
		sb.WriteString("(blank page)\n")
	default:
		fmt.Fprintf(&sb, "URL: %s\nTitle: %s\n\n%s\n", page.URL, page.Title, page.Tree)
	}

	sb.WriteString("\nReply with the next action as JSON.")
	return sb.String()
}
