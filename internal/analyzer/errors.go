package analyzer

import "errors"

var (
	// ErrEmptyRequest indicates a request with no project, workflow or job to analyze.
	ErrEmptyRequest = errors.New("analysis request identifies no build")

	// ErrUnknownAnalyzer indicates a config name outside heuristic | llm.
	ErrUnknownAnalyzer = errors.New("unknown analyzer")
)
