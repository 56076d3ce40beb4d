// Package doctor runs diagnostic checks against the configuration and the
// session API.
package doctor

import "context"

// Status represents the result status of a check item.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// CheckItem represents a single line item within a check result.
type CheckItem struct {
	Label  string `json:"label"`
	Status Status `json:"-"`
	Detail string `json:"detail,omitempty"`

	// For JSON output
	StatusStr string `json:"status"`
}

// Result represents the outcome of a check containing multiple items.
type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

// Failed reports whether any item in r failed.
func (r Result) Failed() bool {
	for _, item := range r.Items {
		if item.Status == StatusFail {
			return true
		}
	}
	return false
}

// Check defines the interface for a doctor check.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll executes all checks and returns their results. After a failure, later
// checks whose RequiresPrevious returns true are reported as skipped.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	failed := false
	for _, check := range checks {
		var result Result
		if dep, ok := check.(interface{ RequiresPrevious() bool }); ok && dep.RequiresPrevious() && failed {
			result = Result{
				Name:  check.Name(),
				Items: []CheckItem{{Label: "skipped", Status: StatusWarn, Detail: "an earlier check failed"}},
			}
		} else {
			result = check.Run(ctx)
		}

		for i := range result.Items {
			result.Items[i].StatusStr = result.Items[i].Status.String()
		}
		failed = failed || result.Failed()
		results = append(results, result)
	}
	return results
}

// Summary returns counts of passed, warned, and failed items across all results.
func Summary(results []Result) (passed, warned, failed int) {
	for _, r := range results {
		for _, item := range r.Items {
			switch item.Status {
			case StatusPass:
				passed++
			case StatusWarn:
				warned++
			case StatusFail:
				failed++
			}
		}
	}
	return
}
