package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plexusml/plexus/internal/storage"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the artifact store",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List committed cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storage.Open(flagStore)
		if err != nil {
			return err
		}

		entries := st.Entries()
		if len(entries) == 0 {
			fmt.Println("store is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FINGERPRINT\tRESOURCE\tLOCATION")
		for _, e := range entries {
			resource := e.Resource
			if resource == "" {
				resource = "-"
			}
			dir := e.Dir
			if dir == "" {
				dir = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Fingerprint.Short(), resource, dir)
		}
		return w.Flush()
	},
}

func init() {
	storeCmd.AddCommand(storeListCmd)
}
