package governor

import "time"

// fakePlatform is a minimal, single-goroutine Platform double used by every
// test in this package, including the engine-level ones; its counters and
// clock are plain fields the tests set directly.
type fakePlatform struct {
	now time.Time

	sleepLength time.Duration
	iowaiters   uint64
	cpuLoad     uint64
	nrTTWU      uint64
	netReqs     uint64
	epollEvents uint64
	tasksWoke   bool
	numOnline   int

	parked   []int
	unparked []int
}

func (f *fakePlatform) Now() time.Time                     { return f.now }
func (f *fakePlatform) SleepLength(cpu int) time.Duration  { return f.sleepLength }
func (f *fakePlatform) IOWaitLoad(cpu int) (uint64, uint64) { return f.iowaiters, f.cpuLoad }
func (f *fakePlatform) NrTTWU(cpu int) uint64               { return f.nrTTWU }
func (f *fakePlatform) NetReqs() uint64                     { return f.netReqs }
func (f *fakePlatform) EpollEvents() uint64                 { return f.epollEvents }
func (f *fakePlatform) TasksWoke(cpu int) bool              { return f.tasksWoke }
func (f *fakePlatform) ResetTasksWoke(cpu int)              { f.tasksWoke = false }
func (f *fakePlatform) NumOnlineCPUs() int {
	if f.numOnline == 0 {
		return 1
	}
	return f.numOnline
}

func (f *fakePlatform) SetRunqueueOnline(cpu int, online bool) {
	if online {
		f.unparked = append(f.unparked, cpu)
	} else {
		f.parked = append(f.parked, cpu)
	}
}

var _ Platform = (*fakePlatform)(nil)
