package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	tuneDeepUs    uint64
	tuneShallowUs uint64
)

func init() {
	rootCmd.AddCommand(tuneCmd)
	tuneCmd.Flags().StringVar(&inspectAddr, "addr", "http://127.0.0.1:7873", "yawngovd debug API address")
	tuneCmd.Flags().Uint64Var(&tuneDeepUs, "deep-threshold-us", 10_000, "inter-arrival threshold above which the network expert is ignored")
	tuneCmd.Flags().Uint64Var(&tuneShallowUs, "shallow-threshold-us", 50, "inter-arrival threshold below which a sibling CPU is unparked")
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Update the running governor's deep/shallow inter-arrival thresholds",
	RunE:  runTune,
}

func runTune(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(map[string]uint64{
		"deep_threshold_us":    tuneDeepUs,
		"shallow_threshold_us": tuneShallowUs,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPatch, inspectAddr+"/governor/tunables", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("reach yawngovd: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yawngovd rejected tunables: status %d", resp.StatusCode)
	}
	fmt.Println("tunables applied")
	return nil
}
