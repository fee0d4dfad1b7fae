package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/journal"
)

func newHistoryCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show recent uploads from the journal",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runHistory(v) },
	}

	f := cmd.Flags()
	f.Int("limit", 20, "show at most this many records (0 = all)")
	f.Bool("failed", false, "only show failed uploads")
	f.Bool("json", false, "output raw JSON")
	f.String("journal", "", "journal file (default from config)")
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runHistory(v *viper.Viper) error {
	setupLogging(v)

	a, err := loadApp(v)
	if err != nil {
		return err
	}
	defer a.Close()

	var keep func(journal.Record) bool
	if v.GetBool("failed") {
		keep = journal.Failed
	}
	records, err := a.journal.Tail(v.GetInt("limit"), keep)
	if err != nil {
		return err
	}

	if v.GetBool("json") {
		if records == nil {
			records = []journal.Record{}
		}
		enc, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	printHistory(records)
	return nil
}

func printHistory(records []journal.Record) {
	if len(records) == 0 {
		fmt.Println("No uploads recorded.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "WHEN\tOUTCOME\tTRIES\tAPP\tFILE\tRESULT\n")
	_, _ = fmt.Fprintf(tw, "----\t-------\t-----\t---\t----\t------\n")
	for _, r := range records {
		result := r.URL
		if r.Outcome == journal.OutcomeFailure {
			result = fmt.Sprintf("[%s] %s", r.ErrorKind, r.Error)
		}
		app := r.Application
		if app == "" {
			app = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			fmtAge(r.Time), r.Outcome, r.Attempts, app, filepath.Base(r.File), result,
		)
	}
	_ = tw.Flush()
}
