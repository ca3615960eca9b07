// Package agents tracks the heartbeat and status of named background agents.
package agents

import (
	"fmt"
	"strings"
)

// Status is one agent's last reported state.
type Status struct {
	AgentID       string  `json:"agentId"`
	Name          string  `json:"name"`
	Emoji         string  `json:"emoji"`
	LastAction    *string `json:"lastAction,omitempty"`
	LastHeartbeat *int64  `json:"lastHeartbeat,omitempty"`
	Status        string  `json:"status"`
	ErrorCount    *int    `json:"errorCount,omitempty"`
	UpdatedAt     int64   `json:"updatedAt"`
}

// Validate checks required fields.
func (s *Status) Validate() error {
	if strings.TrimSpace(s.AgentID) == "" {
		return fmt.Errorf("agentId is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(s.Status) == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}
