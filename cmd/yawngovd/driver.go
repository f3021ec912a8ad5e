package main

import "github.com/erfan111/yawn-governor/governor"

// defaultDriver describes a typical four-state idle hierarchy: busy-poll,
// a light clock-gated state, a deeper state with flushed caches, and the
// deepest package-level sleep. Real deployments would load this from the
// platform's ACPI _CST table or a states_file; yawngovd hardcodes a
// representative table since it owns no hardware of its own.
func defaultDriver() *governor.Driver {
	return &governor.Driver{
		StateStart: 1,
		States: []governor.DriverState{
			{Name: "POLL", TargetResidencyUs: 0, ExitLatencyUs: 0},
			{Name: "C1", TargetResidencyUs: 2, ExitLatencyUs: 2},
			{Name: "C2", TargetResidencyUs: 80, ExitLatencyUs: 60},
			{Name: "C3", TargetResidencyUs: 800, ExitLatencyUs: 300},
		},
	}
}
