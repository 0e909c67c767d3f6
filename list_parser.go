package launchd

import (
	"strconv"
	"strings"
)

// ListFieldCount is the minimum number of tab-separated fields in a
// `launchctl list` row: PID, LastExitStatus, Label
const ListFieldCount = 3

// ParseList parses `launchctl list` output. The first line is a header and
// is always skipped. Rows with fewer than three tab-separated fields or an
// empty label are dropped; a pid of "-" or any non-numeric token is absent.
func ParseList(output string) []LoadedService {
	lines := strings.Split(output, "\n")
	if len(lines) <= 1 {
		return []LoadedService{}
	}

	services := make([]LoadedService, 0, len(lines)-1)
	for _, line := range lines[1:] {
		parts := strings.Split(strings.TrimSuffix(line, "\r"), "\t")
		if len(parts) < ListFieldCount {
			continue
		}

		label := strings.TrimSpace(parts[2])
		if label == "" {
			continue
		}

		services = append(services, LoadedService{
			Label:        label,
			PID:          parsePID(parts[0]),
			LastExitCode: parseOptionalInt(parts[1]),
		})
	}
	return services
}

func parsePID(field string) *int {
	n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return nil
	}
	pid := int(n)
	return &pid
}

func parseOptionalInt(field string) *int {
	n, err := strconv.ParseInt(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return nil
	}
	v := int(n)
	return &v
}

// indexByLabel builds a label lookup over a loaded set. Later rows win on
// duplicate labels.
func indexByLabel(services []LoadedService) map[string]*LoadedService {
	idx := make(map[string]*LoadedService, len(services))
	for i := range services {
		idx[services[i].Label] = &services[i]
	}
	return idx
}
