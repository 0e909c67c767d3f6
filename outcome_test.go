package launchd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		op       Operation
		exitCode int
		stderr   string
		want     Outcome
		hint     string
	}{
		{"zero exit", OpBootstrap, 0, "", OutcomeSuccess, ""},
		{"zero exit ignores stderr", OpKickstart, 0, "warning", OutcomeSuccess, ""},
		{"bootstrap already loaded", OpBootstrap, 5, "Bootstrap failed: 5: service already loaded\n", OutcomeBenign, ""},
		{"bootstrap io error", OpBootstrap, 5, "Bootstrap failed: 5: Input/output error\n", OutcomeFatal, HintRunAsRoot},
		{"bootstrap other", OpBootstrap, 1, "Bootstrap failed: 1: Operation not permitted", OutcomeFatal, ""},
		{"bootout not loaded", OpBootout, 3, "Boot-out failed: 3: service not loaded", OutcomeBenign, ""},
		{"bootout no such process", OpBootout, 3, "Boot-out failed: 3: No such process", OutcomeBenign, ""},
		{"bootout missing service", OpBootout, 113, "Could not find specified service", OutcomeBenign, ""},
		{"bootout other", OpBootout, 1, "Boot-out failed: 1: Operation not permitted", OutcomeFatal, ""},
		{"kickstart never benign", OpKickstart, 113, "Could not find specified service", OutcomeFatal, ""},
		{"enable fatal", OpEnable, 1, "Not privileged", OutcomeFatal, ""},
		{"disable fatal", OpDisable, 1, "", OutcomeFatal, ""},
		{"list fatal", OpList, 1, "already loaded", OutcomeFatal, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(nil, tc.op, tc.exitCode, tc.stderr)
			assert.Equal(t, tc.want, got.Outcome)
			assert.Equal(t, tc.hint, got.Hint)
		})
	}
}

func TestClassifyCustomRules(t *testing.T) {
	rules := RuleSet{
		OpKickstart: {{Substrings: []string{"Could not find"}, Outcome: OutcomeBenign}},
	}

	assert.Equal(t, OutcomeBenign, Classify(rules, OpKickstart, 113, "Could not find specified service").Outcome)
	// Custom tables replace the defaults entirely
	assert.Equal(t, OutcomeFatal, Classify(rules, OpBootstrap, 5, "service already loaded").Outcome)
}

func TestClassifyReasonIsTrimmed(t *testing.T) {
	got := Classify(nil, OpEnable, 1, "  Not privileged to set domain\n")
	assert.Equal(t, "Not privileged to set domain", got.Reason)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "benign", OutcomeBenign.String())
	assert.Equal(t, "fatal", OutcomeFatal.String())
}
