package webagent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action kinds the model may choose.
const (
	ActionNavigate = "navigate"
	ActionClick    = "click"
	ActionType     = "type"
	ActionScroll   = "scroll"
	ActionExtract  = "extract"
	ActionDone     = "done"
)

// Action is one browser step chosen by the model.
type Action struct {
	Thought   string `json:"thought,omitempty"`
	Action    string `json:"action"`
	URL       string `json:"url,omitempty"`
	Ref       int    `json:"ref,omitempty"`
	Text      string `json:"text,omitempty"`
	Submit    bool   `json:"submit,omitempty"`
	Direction string `json:"direction,omitempty"`
	Answer    string `json:"answer,omitempty"`
}

var errNoJSON = errors.New("no JSON object in reply")

// parseAction extracts the first JSON object from a model reply, tolerating
// markdown fences and surrounding prose, and validates it.
func parseAction(reply string) (Action, error) {
	var a Action

	start := strings.Index(reply, "{")
	if start < 0 {
		return a, errNoJSON
	}
	dec := json.NewDecoder(strings.NewReader(reply[start:]))
	if err := dec.Decode(&a); err != nil {
		return a, fmt.Errorf("decode action: %w", err)
	}
	a.Action = strings.ToLower(strings.TrimSpace(a.Action))
	return a, a.validate()
}

func (a Action) validate() error {
	switch a.Action {
	case ActionNavigate:
		if a.URL == "" {
			return fmt.Errorf("navigate needs a url")
		}
	case ActionClick:
		if a.Ref <= 0 {
			return fmt.Errorf("click needs a ref")
		}
	case ActionType:
		if a.Ref <= 0 {
			return fmt.Errorf("type needs a ref")
		}
	case ActionScroll:
		if a.Direction != "" && a.Direction != "up" && a.Direction != "down" {
			return fmt.Errorf("scroll direction must be up or down, got %q", a.Direction)
		}
	case ActionExtract, ActionDone:
	case "":
		return fmt.Errorf("missing action")
	default:
		return fmt.Errorf("unknown action %q", a.Action)
	}
	return nil
}

// String is the compact form used in the step log.
func (a Action) String() string {
	switch a.Action {
	case ActionNavigate:
		return fmt.Sprintf("navigate %s", a.URL)
	case ActionClick:
		return fmt.Sprintf("click ref=%d", a.Ref)
	case ActionType:
		s := fmt.Sprintf("type %q into ref=%d", a.Text, a.Ref)
		if a.Submit {
			s += " and submit"
		}
		return s
	case ActionScroll:
		dir := a.Direction
		if dir == "" {
			dir = "down"
		}
		return "scroll " + dir
	default:
		return a.Action
	}
}
