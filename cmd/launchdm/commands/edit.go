package commands

import (
	"context"
	"io"
	"os"

	"github.com/axondata/go-launchd"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// SaveRawCmd replaces a job file with hand-edited XML
var SaveRawCmd = &cobra.Command{
	Use:   "save-raw <label|path>",
	Short: "Replace a job file with XML read from a file or stdin",
	Long: `Validate XML property-list text and write it verbatim over the job file.
Nothing is written when the text does not parse.

Examples:
  launchdm show com.example.backup --raw > backup.plist
  $EDITOR backup.plist
  launchdm save-raw com.example.backup --file backup.plist --reload`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		reload, _ := cmd.Flags().GetBool("reload")

		var in io.Reader = cmd.InOrStdin()
		if file != "" && file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return runSaveRaw(cmd.Context(), cmd.OutOrStdout(), args[0], in, reload)
	},
}

// DeleteCmd unloads a job and removes its file
var DeleteCmd = &cobra.Command{
	Use:   "delete <label|path>",
	Short: "Unload, disable and remove a job file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	SaveRawCmd.Flags().StringP("file", "f", "-", "Read XML from this file instead of stdin")
	SaveRawCmd.Flags().Bool("reload", false, "Restart the job after saving")
}

func runSaveRaw(ctx context.Context, w io.Writer, arg string, in io.Reader, reload bool) error {
	t, err := app.resolveTarget(ctx, arg)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(err, "failed to read XML")
	}
	if err := app.Manager.SaveRawPlist(t.Path, string(data)); err != nil {
		return err
	}
	success(w, "Saved %s", t.Path)

	if reload {
		if err := app.Manager.RestartJob(ctx, t.Path); err != nil {
			return err
		}
		success(w, "Restarted %s", t.Label)
	}
	return nil
}

// logPath picks the job's stdout or stderr file
func logPath(def *launchd.JobDefinition, stderr bool) (string, error) {
	key, p := launchd.KeyStandardOutPath, def.StandardOutPath
	if stderr {
		key, p = launchd.KeyStandardErrorPath, def.StandardErrorPath
	}
	if p == nil || *p == "" {
		return "", errors.WithHint(
			errors.Newf("job %s has no %s", def.Label, key),
			"Set it in the job file or recreate the job with --stdout/--stderr.")
	}
	return *p, nil
}

func runDelete(ctx context.Context, w io.Writer, arg string) error {
	t, err := app.resolveTarget(ctx, arg)
	if err != nil {
		return err
	}
	if err := app.Manager.EnsureUserAgent(launchd.OpDelete, t.Path); err != nil {
		return err
	}
	if err := app.Manager.DeleteJob(ctx, t.Path, t.Label); err != nil {
		return err
	}
	success(w, "Deleted %s", t.Path)
	return nil
}
