package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/window"
)

func newDetectCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the application in the focused window",
		Long: `Queries the focused window with xdotool (through flatpak-spawn when
sandboxed) and prints the name clips would be tagged with. Useful for
checking detect.games entries. --table lists the patterns in match order.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDetect(cmd.Context(), v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	cmd.Flags().Bool("table", false, "list the game table instead of querying the window")
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

type detectResult struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Process string `json:"process"`
	PID     int    `json:"pid"`
	Runner  string `json:"runner"`
	Games   int    `json:"games"`
}

func runDetect(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	a, err := loadApp(v)
	if err != nil {
		return err
	}
	defer a.Close()

	tbl := a.gameTable()
	if v.GetBool("table") {
		return printGameTable(os.Stdout, tbl, v.GetBool("json"))
	}

	insp := a.inspector()
	info := insp.Active(ctx)
	res := detectResult{
		Name:    insp.Resolve(info),
		Title:   info.Title,
		Process: info.Process,
		PID:     info.PID,
		Runner:  a.runner.Name(),
		Games:   tbl.Len(),
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", res.Name)
	fmt.Fprintf(w, "Title:\t%s\n", res.Title)
	fmt.Fprintf(w, "Process:\t%s (pid %d)\n", res.Process, res.PID)
	fmt.Fprintf(w, "Runner:\t%s\n", res.Runner)
	fmt.Fprintf(w, "Games:\t%d patterns\n", res.Games)
	return w.Flush()
}

func printGameTable(out io.Writer, tbl window.Table, asJSON bool) error {
	if asJSON {
		enc, _ := json.MarshalIndent(tbl.Entries(), "", "  ")
		_, err := fmt.Fprintln(out, string(enc))
		return err
	}
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PATTERN\tNAME\n")
	for _, e := range tbl.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Pattern, e.Name)
	}
	return w.Flush()
}
