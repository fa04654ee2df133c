package model

import (
	"encoding/json"
	"time"
)

// FailureType classifies what broke a build.
type FailureType string

const (
	FailureTypeTestFailure     FailureType = "test_failure"
	FailureTypeBuildError      FailureType = "build_error"
	FailureTypeDependencyError FailureType = "dependency_error"
	FailureTypeTimeout         FailureType = "timeout"
	FailureTypeInfrastructure  FailureType = "infrastructure"
	FailureTypeConfiguration   FailureType = "configuration"
	FailureTypeUnknown         FailureType = "unknown"
)

// ParseFailureType maps free text onto FailureType, defaulting to unknown.
func ParseFailureType(s string) FailureType {
	switch ft := FailureType(s); ft {
	case FailureTypeTestFailure, FailureTypeBuildError, FailureTypeDependencyError,
		FailureTypeTimeout, FailureTypeInfrastructure, FailureTypeConfiguration:
		return ft
	default:
		return FailureTypeUnknown
	}
}

// FailureAnalysis is the immutable result of diagnosing one failed workflow or job.
type FailureAnalysis struct {
	ID             string            `json:"id"`
	ProjectSlug    string            `json:"project_slug"`
	WorkflowID     string            `json:"workflow_id,omitempty"`
	JobID          string            `json:"job_id,omitempty"`
	FailureType    FailureType       `json:"failure_type"`
	ErrorMessages  []string          `json:"error_messages"`
	Confidence     float64           `json:"confidence"`
	AnalysisTime   time.Duration     `json:"-"`
	SuggestedFixes []string          `json:"suggested_fixes,omitempty"`
	Context        map[string]string `json:"context,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// MarshalJSON adds analysis_time_seconds, the wire form of AnalysisTime.
func (a FailureAnalysis) MarshalJSON() ([]byte, error) {
	type plain FailureAnalysis
	return json.Marshal(struct {
		plain
		AnalysisTimeSeconds float64 `json:"analysis_time_seconds"`
	}{plain(a), a.AnalysisTime.Seconds()})
}

// AnalysisTimeSeconds is the analysis duration as reported over the wire.
func (a FailureAnalysis) AnalysisTimeSeconds() float64 {
	return a.AnalysisTime.Seconds()
}

// ClampConfidence bounds a confidence score to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
