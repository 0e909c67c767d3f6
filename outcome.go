package launchd

import (
	"strings"
)

// Outcome is the classified result of one launchctl invocation
type Outcome int

const (
	// OutcomeSuccess means exit status 0
	OutcomeSuccess Outcome = iota
	// OutcomeBenign means a non-zero exit that leaves the job in the wanted
	// state, e.g. bootstrapping an already loaded job
	OutcomeBenign
	// OutcomeFatal means the operation failed
	OutcomeFatal
)

// String returns the string representation of an Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBenign:
		return "benign"
	default:
		return "fatal"
	}
}

// Rule maps diagnostic text to an outcome. A rule matches when stderr
// contains any of its substrings.
type Rule struct {
	Substrings []string
	Outcome    Outcome
	// Hint is attached to the error when the outcome is fatal
	Hint string
}

func (r Rule) matches(stderr string) bool {
	for _, s := range r.Substrings {
		if strings.Contains(stderr, s) {
			return true
		}
	}
	return false
}

// RuleSet holds the ordered classification rules per operation. First
// match wins; no match on a non-zero exit is fatal.
type RuleSet map[Operation][]Rule

// HintRunAsRoot is attached to bootstrap failures that launchctl reports as
// a bare I/O error
const HintRunAsRoot = "Try re-running the command as root for richer errors."

// DefaultRules is the classification table for launchctl's diagnostic text.
// launchctl has no machine-readable error codes, so these substrings are the
// only signal available.
var DefaultRules = RuleSet{
	OpBootstrap: {
		{Substrings: []string{"already loaded", "service already loaded"}, Outcome: OutcomeBenign},
		{Substrings: []string{"Input/output error"}, Outcome: OutcomeFatal, Hint: HintRunAsRoot},
	},
	OpBootout: {
		{Substrings: []string{"not loaded", "No such process", "Could not find specified service"}, Outcome: OutcomeBenign},
	},
}

// Classification is the result of Classify
type Classification struct {
	Outcome Outcome
	// Reason is the trimmed diagnostic text for fatal outcomes
	Reason string
	Hint   string
}

// Classify turns an exit status and stderr text into an Outcome using rules.
// A nil rules value uses DefaultRules.
func Classify(rules RuleSet, op Operation, exitCode int, stderr string) Classification {
	if exitCode == 0 {
		return Classification{Outcome: OutcomeSuccess}
	}
	if rules == nil {
		rules = DefaultRules
	}
	reason := strings.TrimSpace(stderr)
	for _, r := range rules[op] {
		if !r.matches(stderr) {
			continue
		}
		if r.Outcome == OutcomeFatal {
			return Classification{Outcome: OutcomeFatal, Reason: reason, Hint: r.Hint}
		}
		return Classification{Outcome: r.Outcome}
	}
	return Classification{Outcome: OutcomeFatal, Reason: reason}
}
