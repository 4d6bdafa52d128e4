package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// pollInterval — период опроса статуса при --wait.
var pollInterval = 3 * time.Second

// NewStoreCmd создаёт группу команд для управления магазинами.
func NewStoreCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "store",
		Aliases: []string{"stores"},
		Short:   "Manage stores",
	}

	cmd.AddCommand(
		newStoreListCmd(clientFn, outputFn),
		newStoreCreateCmd(clientFn, outputFn),
		newStoreShowCmd(clientFn, outputFn),
		newStoreDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newStoreListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var all bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			stores, err := client.ListStores(ListStoresOpts{
				Status:         status,
				IncludeDeleted: all,
				Limit:          limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "URL", "CREATED"}
			rows := make([][]string, len(stores))
			for i, s := range stores {
				rows[i] = []string{s.ID, s.Name, s.Status, s.URL, s.CreatedAt}
			}

			out.Print(headers, rows, stores)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (queued, provisioning, ready, failed, deleting, deleted)")
	cmd.Flags().BoolVar(&all, "all", false, "Include deleted stores")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newStoreCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var storeType string
	var wait bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Provision a new store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sub, err := client.CreateStore(CreateStoreRequest{Name: args[0], Type: storeType})
			if err != nil {
				return err
			}

			if sub.QueuePosition > 0 {
				out.Success(fmt.Sprintf("Store queued: %s (position %d)", sub.ID, sub.QueuePosition))
			} else {
				out.Success(fmt.Sprintf("Store provisioning started: %s", sub.ID))
			}

			if !wait {
				out.Print(
					[]string{"ID", "NAME", "STATUS", "URL"},
					[][]string{{sub.ID, sub.Name, sub.Status, sub.URL}},
					sub,
				)
				return nil
			}

			store, err := waitForStore(client, sub.ID, timeout, "ready", "failed")
			if err != nil {
				return err
			}
			printStore(out, store)
			if store.Status == "failed" {
				return fmt.Errorf("store %s failed: %s", store.ID, store.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&storeType, "type", "woocommerce", "Store engine")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the store is ready or failed")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "Maximum time to wait with --wait")

	return cmd
}

func newStoreShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show store details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			detail, err := client.GetStore(args[0])
			if err != nil {
				return err
			}

			if out.IsJSON() {
				out.JSON(detail)
				return nil
			}

			printStore(out, &detail.Store)
			if events && len(detail.Events) > 0 {
				fmt.Fprintln(out.w)
				printEvents(out, detail.Events)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&events, "events", true, "Show the store event log")

	return cmd
}

func newStoreDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var wait bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a store and its resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sub, err := client.DeleteStore(args[0])
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Store deletion started: %s", sub.ID))

			if !wait {
				return nil
			}

			store, err := waitForStore(client, sub.ID, timeout, "deleted", "failed")
			if err != nil {
				return err
			}
			if store.Status == "failed" {
				return fmt.Errorf("store %s deletion failed: %s", store.ID, store.Error)
			}
			out.Success(fmt.Sprintf("Store deleted: %s", store.ID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the store is deleted")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum time to wait with --wait")

	return cmd
}

// waitForStore опрашивает магазин, пока статус не станет одним из final.
func waitForStore(client *Client, id string, timeout time.Duration, final ...string) (*StoreResponse, error) {
	deadline := time.Now().Add(timeout)
	for {
		detail, err := client.GetStore(id)
		if err != nil {
			return nil, err
		}
		for _, s := range final {
			if detail.Store.Status == s {
				return &detail.Store, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for store %s (status %s)", id, detail.Store.Status)
		}
		time.Sleep(pollInterval)
	}
}

func printStore(out *Output, s *StoreResponse) {
	if out.IsJSON() {
		out.JSON(s)
		return
	}
	out.Fields([][2]string{
		{"ID", s.ID},
		{"Name", s.Name},
		{"Type", s.Type},
		{"Status", s.Status},
		{"Namespace", s.Namespace},
		{"URL", s.URL},
		{"Admin URL", s.AdminURL},
		{"Error", s.Error},
		{"Created", s.CreatedAt},
		{"Updated", s.UpdatedAt},
	})
}
