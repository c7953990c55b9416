// Code shaped after the API definition; request and response bodies for the
// HTTP surface.
package types

import "time"

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Html     string `json:"html,omitempty"` // rendered markdown
}

type WebAgentRequest struct {
	Task string `json:"task"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Response string `json:"response"`
}

// AgentStatusResponse is one of {running:false}, {running:true} or
// {completed:true, result}.
type AgentStatusResponse struct {
	Running   *bool   `json:"running,omitempty"`
	Completed bool    `json:"completed,omitempty"`
	Result    *string `json:"result,omitempty"`
}

type AgentHistoryRequest struct {
	Limit int `form:"limit"`
}

type AgentRun struct {
	Id         string     `json:"id"`
	Task       string     `json:"task"`
	Status     string     `json:"status"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type AgentHistoryResponse struct {
	Runs []AgentRun `json:"runs"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}
