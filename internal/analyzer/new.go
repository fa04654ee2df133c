package analyzer

import (
	"fmt"

	"ci-integration-agent/config"
)

// New picks the analyzer named in config. gen may be nil unless the llm analyzer is chosen.
func New(cfg config.FailureAnalysisConfig, gen Generator) (Analyzer, error) {
	switch cfg.Analyzer {
	case "", config.AnalyzerHeuristic:
		return NewHeuristic(), nil
	case config.AnalyzerLLM:
		if gen == nil {
			return nil, fmt.Errorf("llm analyzer needs at least one enabled LLM provider")
		}
		return NewLLM(gen), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, cfg.Analyzer)
	}
}
