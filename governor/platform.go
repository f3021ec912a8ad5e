package governor

import "time"

// Platform is the narrow capability the engine needs from the host idle
// framework and the scheduler. Production code wires a real implementation
// (see package platform); tests substitute a deterministic fake.
//
// Select calls several Platform methods per round; none of its methods may
// block, since Select and Reflect run on the idle hot path.
type Platform interface {
	// Now returns the current monotonic time, used as the network expert's
	// sampling anchor and to timestamp rounds handed to a Recorder. The
	// wake timer does not use it; it runs on time.AfterFunc.
	Now() time.Time

	// SleepLength returns the scheduler's next timer deadline for cpu —
	// tick_nohz_get_sleep_length() in the host framework.
	SleepLength(cpu int) time.Duration

	// IOWaitLoad reports the number of tasks currently blocked on I/O and
	// the CPU's run-queue load, used to bucket the timer expert.
	IOWaitLoad(cpu int) (iowaiters uint64, cpuLoad uint64)

	// NrTTWU returns the cumulative try-to-wake-up count observed on cpu.
	NrTTWU(cpu int) uint64

	// NetReqs returns a scheduler-exposed global counter of completed
	// network requests, sampled by the network expert.
	NetReqs() uint64

	// EpollEvents returns a scheduler-exposed global counter of epoll
	// readiness events, sampled by the network expert.
	EpollEvents() uint64

	// TasksWoke reports whether any real task has woken on cpu since the
	// last ResetTasksWoke call.
	TasksWoke(cpu int) bool

	// ResetTasksWoke clears the task-woke flag for cpu at the start of a
	// new select round.
	ResetTasksWoke(cpu int)

	// SetRunqueueOnline is the park/unpark hint: request that cpu's
	// run-queue be taken offline (online=false) or brought online
	// (online=true) for work-stealing purposes. Must be idempotent and
	// safe under concurrent invocation from multiple CPUs.
	SetRunqueueOnline(cpu int, online bool)

	// NumOnlineCPUs reports how many logical CPUs are currently online,
	// used by the network expert to bound its unpark hint.
	NumOnlineCPUs() int
}

// DriverState describes one hardware idle state, ordered by increasing
// target residency and exit latency — state 0 is busy-poll, the highest
// index is the deepest sleep.
type DriverState struct {
	Name              string
	TargetResidencyUs uint64
	ExitLatencyUs     uint64
	Disabled          bool
}

// Driver is the static, CPU-independent description of the hardware idle
// states available on this platform.
type Driver struct {
	States []DriverState

	// StateStart is CPUIDLE_DRIVER_STATE_START in the host framework: the
	// first state the selector will ever consider entering deliberately
	// (index 0 is reserved for busy-polling). Defaults to 1 if unset.
	StateStart int
}

func (d *Driver) stateStart() int {
	if d.StateStart <= 0 {
		return 1
	}
	return d.StateStart
}

// DeviceState is the per-CPU hardware view: which states this specific CPU
// has disabled, and how to read the residency of the state it just left.
type DeviceState struct {
	CPU int

	// Disable is indexed like Driver.States; Disable[i] mirrors the host
	// framework's per-device states_usage[i].disable.
	Disable []bool

	// GetLastResidencyUs returns the measured residency of the state the
	// CPU just exited — cpuidle_get_last_residency() in the host
	// framework. Called once per Select round, after a pending Reflect.
	GetLastResidencyUs func() uint64
}

func (d *DeviceState) disabled(i int) bool {
	if i < 0 || i >= len(d.Disable) {
		return false
	}
	return d.Disable[i]
}
