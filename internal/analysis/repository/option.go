package repository

// DefaultListLimit applies when ListOptions.Limit is zero.
const DefaultListLimit = 20

// ListOptions holds the parameters for listing stored analyses, newest first.
type ListOptions struct {
	ProjectSlug string // Filter by project (optional)
	Limit       int    // Max number of results (default 20)
}
