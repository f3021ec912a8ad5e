package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var inspectAddr string

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectAddr, "addr", "http://127.0.0.1:7873", "yawngovd debug API address")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect CPU",
	Short: "Print a running governor's current state for one CPU",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(fmt.Sprintf("%s/governor/%s", inspectAddr, args[0]))
	if err != nil {
		return fmt.Errorf("reach yawngovd: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yawngovd: %s", body)
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Fprintln(os.Stdout, string(body))
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}
