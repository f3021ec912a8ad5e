//go:build linux

package platform

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/erfan111/yawn-governor/governor"
)

// Linux is a best-effort Platform backed by /proc and golang.org/x/sys/unix.
// Several counters the original kernel governor reads from scheduler
// internals (nr_ttwu, per-rq epoll/network request counts) have no stable
// userspace equivalent; Linux approximates them or returns 0, documented
// per field below. It is meant for the `serve`/`inspect` CLI path running
// on a real machine, not for correctness-critical simulation — use Sim for
// that.
type Linux struct {
	bootTime time.Time

	mu         sync.Mutex
	ttwuApprox map[int]uint64

	netReqs     atomic.Uint64
	epollEvents atomic.Uint64

	tasksWoke sync.Map // int cpu -> bool
}

// NewLinux constructs a Linux platform collaborator.
func NewLinux() *Linux {
	return &Linux{
		bootTime:   time.Now(),
		ttwuApprox: make(map[int]uint64),
	}
}

func (l *Linux) Now() time.Time { return time.Now() }

// SleepLength has no portable userspace equivalent to
// tick_nohz_get_sleep_length(); Linux reports a conservative fixed ceiling
// so the selector never fails open into the deepest state on a stale read.
func (l *Linux) SleepLength(cpu int) time.Duration {
	return 100 * time.Millisecond
}

// IOWaitLoad reads the cpuN line of /proc/stat and returns its cumulative
// iowait and user jiffies as approximations of nr_iowait()/this_cpu_load().
func (l *Linux) IOWaitLoad(cpu int) (iowaiters uint64, cpuLoad uint64) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	want := "cpu" + strconv.Itoa(cpu)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 6 || fields[0] != want {
			continue
		}
		// user nice system idle iowait irq softirq ...
		iowait, _ := strconv.ParseUint(fields[5], 10, 64)
		user, _ := strconv.ParseUint(fields[1], 10, 64)
		return iowait, user
	}
	return 0, 0
}

// NrTTWU has no userspace equivalent; this_rq()->nr_ttwu is an in-kernel
// scheduler counter. Linux approximates it with the system-wide context
// switch count (the ctxt line of /proc/stat), returning the same value for
// every cpu; the network expert samples it as a wakeup-pressure signal
// without it claiming kernel-exact, per-CPU values.
func (l *Linux) NrTTWU(cpu int) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctxt := readProcStatScalar("ctxt")
	l.ttwuApprox[cpu] = ctxt
	return l.ttwuApprox[cpu]
}

// NetReqs and EpollEvents have no stable userspace source either; Linux
// returns in-process accumulators that only grow when a caller reports
// activity through RecordNetReq/RecordEpollEvent, and stay at 0 otherwise.
// Nothing in this repository calls those recorders.
func (l *Linux) NetReqs() uint64     { return l.netReqs.Load() }
func (l *Linux) EpollEvents() uint64 { return l.epollEvents.Load() }

// RecordNetReq lets the debugapi server or any instrumented caller report
// a completed request, feeding the network expert's rate estimate.
func (l *Linux) RecordNetReq() { l.netReqs.Add(1) }

// RecordEpollEvent lets an instrumented event loop report a readiness
// event.
func (l *Linux) RecordEpollEvent() { l.epollEvents.Add(1) }

func (l *Linux) TasksWoke(cpu int) bool {
	v, ok := l.tasksWoke.Load(cpu)
	return ok && v.(bool)
}

func (l *Linux) ResetTasksWoke(cpu int) { l.tasksWoke.Store(cpu, false) }

// MarkTaskWoke lets an instrumented caller report a real (non-timer)
// wakeup on cpu, satisfying the spurious-wake check in Engine.update.
func (l *Linux) MarkTaskWoke(cpu int) { l.tasksWoke.Store(cpu, true) }

// SetRunqueueOnline issues the park/unpark hint via sched_setaffinity,
// pulling cpu out of (or back into) this process's own affinity mask.
// It cannot offline a CPU system-wide from userspace — that needs root
// and /sys/devices/system/cpu/cpuN/online — so this is scoped to steering
// this process's own work away from a CPU the network expert judged idle,
// which is the same work-stealing intent the original hint served.
func (l *Linux) SetRunqueueOnline(cpu int, online bool) {
	var mask unix.CPUSet
	pid := 0
	if err := unix.SchedGetaffinity(pid, &mask); err != nil {
		return
	}
	if online {
		mask.Set(cpu)
	} else {
		mask.Clear(cpu)
	}
	_ = unix.SchedSetaffinity(pid, &mask)
}

func (l *Linux) NumOnlineCPUs() int {
	return runtime.NumCPU()
}

func readProcStatScalar(key string) uint64 {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[0] == key {
			v, _ := strconv.ParseUint(fields[1], 10, 64)
			return v
		}
	}
	return 0
}

var _ governor.Platform = (*Linux)(nil)
