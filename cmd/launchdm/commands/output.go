package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/axondata/go-launchd"
	"github.com/pterm/pterm"
)

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeTable(w io.Writer, header bool, data pterm.TableData) error {
	table := pterm.DefaultTable.WithData(data)
	if header {
		table = table.WithHasHeader()
	}
	s, err := table.Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, pterm.Success.Sprintf(format, args...))
}

func optInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func optString(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func optBool(p *bool) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatBool(*p)
}

func statusText(s launchd.JobStatus) string {
	switch s {
	case launchd.StatusRunning:
		return pterm.Green(s.String())
	case launchd.StatusStopped:
		return pterm.Gray(s.String())
	default:
		return s.String()
	}
}
