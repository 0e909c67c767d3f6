package launchd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseList(t *testing.T) {
	testCases := []struct {
		name   string
		output string
		want   []LoadedService
	}{
		{
			name:   "running and stopped",
			output: "PID\tStatus\tLabel\n1234\t0\tcom.example.running\n-\t78\tcom.example.stopped\n",
			want: []LoadedService{
				{Label: "com.example.running", PID: intPtr(1234), LastExitCode: intPtr(0)},
				{Label: "com.example.stopped", LastExitCode: intPtr(78)},
			},
		},
		{
			name:   "header only",
			output: "PID\tStatus\tLabel\n",
			want:   []LoadedService{},
		},
		{
			name:   "empty output",
			output: "",
			want:   []LoadedService{},
		},
		{
			name:   "malformed lines are dropped",
			output: "PID\tStatus\tLabel\nbad line\n1234\t0\tcom.example.test\n\n",
			want: []LoadedService{
				{Label: "com.example.test", PID: intPtr(1234), LastExitCode: intPtr(0)},
			},
		},
		{
			name:   "empty label is dropped",
			output: "PID\tStatus\tLabel\n12\t0\t \n13\t0\tcom.example.kept\n",
			want: []LoadedService{
				{Label: "com.example.kept", PID: intPtr(13), LastExitCode: intPtr(0)},
			},
		},
		{
			name:   "non-numeric pid and signal exit",
			output: "PID\tStatus\tLabel\nabc\t-9\tcom.example.killed\n",
			want: []LoadedService{
				{Label: "com.example.killed", LastExitCode: intPtr(-9)},
			},
		},
		{
			name:   "non-numeric exit code is absent",
			output: "PID\tStatus\tLabel\n-\t-\tcom.example.never\n",
			want: []LoadedService{
				{Label: "com.example.never"},
			},
		},
		{
			name:   "crlf line endings",
			output: "PID\tStatus\tLabel\r\n42\t0\tcom.example.crlf\r\n",
			want: []LoadedService{
				{Label: "com.example.crlf", PID: intPtr(42), LastExitCode: intPtr(0)},
			},
		},
		{
			name:   "extra fields are ignored",
			output: "PID\tStatus\tLabel\n7\t0\tcom.example.extra\tjunk\n",
			want: []LoadedService{
				{Label: "com.example.extra", PID: intPtr(7), LastExitCode: intPtr(0)},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseList(tc.output))
		})
	}
}

func TestParseListPreservesRowOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("PID\tStatus\tLabel\n")
	labels := []string{"z.last", "a.first", "m.middle"}
	for _, l := range labels {
		b.WriteString("-\t0\t" + l + "\n")
	}

	got := ParseList(b.String())
	require.Len(t, got, len(labels))
	for i, l := range labels {
		assert.Equal(t, l, got[i].Label)
		assert.False(t, got[i].Running())
	}
}

func TestIndexByLabel(t *testing.T) {
	idx := indexByLabel(ParseList("PID\tStatus\tLabel\n1\t0\ta\n-\t1\tb\n"))
	require.Contains(t, idx, "a")
	require.Contains(t, idx, "b")
	assert.True(t, idx["a"].Running())
	assert.False(t, idx["b"].Running())
}

// FuzzParseList checks the parser never panics and never yields an empty label
func FuzzParseList(f *testing.F) {
	f.Add("PID\tStatus\tLabel\n1234\t0\tcom.example.running\n-\t78\tcom.example.stopped\n")
	f.Add("PID\tStatus\tLabel\n")
	f.Add("\n\t\t\n")
	f.Add("x\n-\t-\t-\n")

	f.Fuzz(func(t *testing.T, output string) {
		for _, svc := range ParseList(output) {
			if svc.Label == "" {
				t.Fatalf("empty label parsed from %q", output)
			}
		}
	})
}
