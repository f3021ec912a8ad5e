package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/erfan111/yawn-governor/governor"
	"github.com/erfan111/yawn-governor/platform"
)

var (
	simRounds    int
	simSeed      int64
	simWorkload  string
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&simRounds, "rounds", 200, "number of select/reflect rounds to simulate")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 1, "PRNG seed for the synthetic workload")
	simulateCmd.Flags().StringVar(&simWorkload, "workload", "bursty", "synthetic workload: idle, bursty, or network")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the governor against a synthetic in-memory workload and print a summary",
	RunE:  runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	rng := rand.New(rand.NewSource(simSeed))
	sim := platform.NewSim(time.Unix(0, 0), 2)
	drv := defaultDriver()
	engine := governor.NewEngine(drv, sim)

	dev := &governor.DeviceState{
		CPU:     0,
		Disable: make([]bool, len(drv.States)),
	}
	var lastResidency uint64
	dev.GetLastResidencyUs = func() uint64 { return lastResidency }
	engine.EnableDevice(dev)

	counts := make([]int, len(drv.States))
	for i := 0; i < simRounds; i++ {
		idleUs := nextIdleLength(rng, simWorkload)
		sim.SetSleepLength(0, time.Duration(idleUs*2)*time.Microsecond)

		idx := engine.Select(0)
		counts[idx]++

		lastResidency = idleUs
		sim.Advance(time.Duration(idleUs) * time.Microsecond)
		if simWorkload == "network" {
			sim.AddTTWU(0, 1)
			sim.AddEpollEvents(1)
		}
		engine.Reflect(0, idx)
	}

	fmt.Printf("simulated %d rounds, workload=%s seed=%d\n", simRounds, simWorkload, simSeed)
	for i, st := range drv.States {
		fmt.Printf("  %-6s chosen %5d times (%.1f%%)\n", st.Name, counts[i], 100*float64(counts[i])/float64(simRounds))
	}
	return nil
}

// nextIdleLength produces a synthetic idle-period length in microseconds
// for the requested workload shape.
func nextIdleLength(rng *rand.Rand, workload string) uint64 {
	switch workload {
	case "idle":
		return 500_000 + uint64(rng.Intn(500_000))
	case "network":
		return uint64(50 + rng.Intn(300))
	default: // bursty
		if rng.Intn(10) == 0 {
			return uint64(10 + rng.Intn(100))
		}
		return uint64(1_000 + rng.Intn(20_000))
	}
}
