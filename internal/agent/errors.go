package agent

import "errors"

var (
	ErrAgentNotRunning = errors.New("agent not running")
	ErrTaskNotFound    = errors.New("task not found")
)
