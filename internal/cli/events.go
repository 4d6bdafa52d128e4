package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewEventsCmd создаёт команду просмотра журнала событий.
func NewEventsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent store events",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			events, err := client.ListEvents(limit)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				out.JSON(events)
				return nil
			}
			printEvents(out, events)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of events (1-500)")

	return cmd
}

// NewMetricsCmd создаёт команду вывода сводки.
func NewMetricsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show store counts and worker load",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			m, err := client.GetMetrics()
			if err != nil {
				return err
			}

			out.Print(
				[]string{"TOTAL", "ACTIVE", "PROVISIONING", "FAILED", "WORKERS", "QUEUE"},
				[][]string{{
					strconv.Itoa(m.Total),
					strconv.Itoa(m.Active),
					strconv.Itoa(m.Provisioning),
					strconv.Itoa(m.Failed),
					strconv.Itoa(m.ActiveWorkers),
					strconv.Itoa(m.QueueLength),
				}},
				m,
			)
			return nil
		},
	}
}

func printEvents(out *Output, events []EventResponse) {
	headers := []string{"TIME", "STORE", "SEVERITY", "TYPE", "MESSAGE"}
	rows := make([][]string, len(events))
	for i, e := range events {
		store := e.StoreID
		if e.StoreName != "" {
			store = e.StoreName
		}
		rows[i] = []string{e.CreatedAt, store, e.Severity, e.Type, e.Message}
	}
	out.Table(headers, rows)
}
