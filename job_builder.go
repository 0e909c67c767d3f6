package launchd

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// JobBuilder provides a fluent interface for assembling a JobDefinition
type JobBuilder struct {
	def JobDefinition
}

// NewJobBuilder creates a JobBuilder for label
func NewJobBuilder(label string) *JobBuilder {
	return &JobBuilder{def: JobDefinition{Label: label}}
}

// WithProgram sets the executable path
func (b *JobBuilder) WithProgram(path string) *JobBuilder {
	b.def.Program = &path
	return b
}

// WithProgramArguments sets the argument vector, argv[0] included
func (b *JobBuilder) WithProgramArguments(args ...string) *JobBuilder {
	b.def.ProgramArguments = append([]string{}, args...)
	return b
}

// WithRunAtLoad sets RunAtLoad
func (b *JobBuilder) WithRunAtLoad(v bool) *JobBuilder {
	b.def.RunAtLoad = &v
	return b
}

// WithKeepAlive sets KeepAlive
func (b *JobBuilder) WithKeepAlive(v bool) *JobBuilder {
	b.def.KeepAlive = &v
	return b
}

// WithStartInterval sets StartInterval in seconds
func (b *JobBuilder) WithStartInterval(seconds uint64) *JobBuilder {
	b.def.StartInterval = &seconds
	return b
}

// WithCalendarInterval appends a StartCalendarInterval entry
func (b *JobBuilder) WithCalendarInterval(ci CalendarInterval) *JobBuilder {
	b.def.StartCalendarInterval = append(b.def.StartCalendarInterval, ci)
	return b
}

// WithStdout sets StandardOutPath
func (b *JobBuilder) WithStdout(path string) *JobBuilder {
	b.def.StandardOutPath = &path
	return b
}

// WithStderr sets StandardErrorPath
func (b *JobBuilder) WithStderr(path string) *JobBuilder {
	b.def.StandardErrorPath = &path
	return b
}

// WithWorkingDirectory sets WorkingDirectory
func (b *JobBuilder) WithWorkingDirectory(path string) *JobBuilder {
	b.def.WorkingDirectory = &path
	return b
}

// WithEnv adds an environment variable
func (b *JobBuilder) WithEnv(key, value string) *JobBuilder {
	if b.def.EnvironmentVariables == nil {
		b.def.EnvironmentVariables = make(map[string]string)
	}
	b.def.EnvironmentVariables[key] = value
	return b
}

// WithDisabled sets Disabled
func (b *JobBuilder) WithDisabled(v bool) *JobBuilder {
	b.def.Disabled = &v
	return b
}

// Build validates and returns a copy of the definition
func (b *JobBuilder) Build() (*JobDefinition, error) {
	if b.def.Label == "" {
		return nil, errors.New("label is required")
	}
	if b.def.Program == nil && len(b.def.ProgramArguments) == 0 {
		return nil, errors.Newf("job %s: program or program arguments required", b.def.Label)
	}
	if b.def.Program != nil && !filepath.IsAbs(*b.def.Program) {
		return nil, errors.Newf("job %s: program must be an absolute path", b.def.Label)
	}
	for _, ci := range b.def.StartCalendarInterval {
		if err := ci.Validate(); err != nil {
			return nil, errors.Wrapf(err, "job %s", b.def.Label)
		}
	}

	def := b.def
	if b.def.EnvironmentVariables != nil {
		def.EnvironmentVariables = make(map[string]string, len(b.def.EnvironmentVariables))
		for k, v := range b.def.EnvironmentVariables {
			def.EnvironmentVariables[k] = v
		}
	}
	if b.def.ProgramArguments != nil {
		def.ProgramArguments = append(make([]string, 0, len(b.def.ProgramArguments)), b.def.ProgramArguments...)
	}
	if b.def.StartCalendarInterval != nil {
		def.StartCalendarInterval = append(make([]CalendarInterval, 0, len(b.def.StartCalendarInterval)), b.def.StartCalendarInterval...)
	}
	return &def, nil
}

// Validate checks each set field against launchd's accepted ranges
func (ci CalendarInterval) Validate() error {
	check := func(name string, v *uint32, lo, hi uint32) error {
		if v != nil && (*v < lo || *v > hi) {
			return errors.Newf("calendar interval %s %d out of range [%d, %d]", name, *v, lo, hi)
		}
		return nil
	}
	for _, err := range []error{
		check(KeyMinute, ci.Minute, 0, 59),
		check(KeyHour, ci.Hour, 0, 23),
		check(KeyDay, ci.Day, 1, 31),
		check(KeyWeekday, ci.Weekday, 0, 7),
		check(KeyMonth, ci.Month, 1, 12),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
