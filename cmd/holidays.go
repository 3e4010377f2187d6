package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tidbyt.dev/timetable"
	"tidbyt.dev/timetable/model"
)

var holidaysCmd = &cobra.Command{
	Use:   "holidays [url|path]",
	Short: "Lists the public holidays of a document",
	Args:  cobra.RangeArgs(0, 1),
	RunE:  holidays,
}

var holidaysAt string

func init() {
	holidaysCmd.Flags().StringVarP(&holidaysAt, "at", "", "", "Instant to check, in RFC3339 (default now)")
	rootCmd.AddCommand(holidaysCmd)
}

func holidays(cmd *cobra.Command, args []string) error {
	source, err := sourceURL(args)
	if err != nil {
		return err
	}

	now, err := instant(holidaysAt)
	if err != nil {
		return err
	}

	doc, err := loadDocument(cmd.Context(), source)
	if err != nil {
		return err
	}

	tt := timetable.Resolve(doc, now, timetable.Options{DefaultTimezone: cfg.DefaultTimezone})
	out := cmd.OutOrStdout()

	if len(doc.Holidays) == 0 {
		fmt.Fprintln(out, "No public holidays listed")
	}
	for _, h := range doc.Holidays {
		kind := "every year"
		if h.Kind == model.HolidayAbsolute {
			kind = "once"
		}
		marker := " "
		if timetable.IsHoliday(tt.Context, []model.HolidaySpec{h}) {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-10s  %s\n", marker, h.Value, kind)
	}

	if tt.Holiday {
		fmt.Fprintf(out, "\n%s is a public holiday (%s)\n", tt.Context.DateKey, tt.Timezone)
	} else {
		fmt.Fprintf(out, "\n%s is not a public holiday (%s)\n", tt.Context.DateKey, tt.Timezone)
	}

	return nil
}
