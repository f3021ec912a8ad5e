// Package platform provides Platform implementations for the governor: a
// deterministic in-memory fake for tests and simulation, and a best-effort
// Linux implementation backed by /proc and golang.org/x/sys/unix.
package platform

import (
	"sync"
	"time"

	"github.com/erfan111/yawn-governor/governor"
)

// Sim is a deterministic, fully in-memory Platform. Tests and the
// `simulate` CLI subcommand drive it by advancing its clock and feeding it
// counters directly, rather than reading real hardware or scheduler state.
// Grounded in the teacher's injectable Now func() time.Time fixed-clock
// pattern, generalized here to the whole Platform surface.
type Sim struct {
	mu sync.Mutex

	now time.Time

	sleepLength map[int]time.Duration
	iowaiters   map[int]uint64
	cpuLoad     map[int]uint64
	nrTTWU      map[int]uint64
	netReqs     uint64
	epollEvents uint64
	tasksWoke   map[int]bool
	online      map[int]bool
	numOnline   int

	// ParkEvents and UnparkEvents record every SetRunqueueOnline call, in
	// order, for assertions in ensemble/network-expert tests.
	ParkEvents   []int
	UnparkEvents []int
}

// NewSim returns a Sim anchored at start with numCPUs online.
func NewSim(start time.Time, numCPUs int) *Sim {
	s := &Sim{
		now:         start,
		sleepLength: make(map[int]time.Duration),
		iowaiters:   make(map[int]uint64),
		cpuLoad:     make(map[int]uint64),
		nrTTWU:      make(map[int]uint64),
		tasksWoke:   make(map[int]bool),
		online:      make(map[int]bool),
		numOnline:   numCPUs,
	}
	for i := 0; i < numCPUs; i++ {
		s.online[i] = true
	}
	return s
}

// Advance moves the simulated clock forward by d.
func (s *Sim) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// SetSleepLength sets the scheduler's next-timer-deadline fake for cpu.
func (s *Sim) SetSleepLength(cpu int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleepLength[cpu] = d
}

// SetIOWaitLoad sets the iowaiters/cpuLoad fakes for cpu.
func (s *Sim) SetIOWaitLoad(cpu int, iowaiters, cpuLoad uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iowaiters[cpu] = iowaiters
	s.cpuLoad[cpu] = cpuLoad
}

// AddTTWU bumps cpu's cumulative try-to-wake-up counter by n.
func (s *Sim) AddTTWU(cpu int, n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nrTTWU[cpu] += n
}

// AddNetReqs bumps the global completed-network-request counter by n.
func (s *Sim) AddNetReqs(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.netReqs += n
}

// AddEpollEvents bumps the global epoll-readiness counter by n.
func (s *Sim) AddEpollEvents(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epollEvents += n
}

// WakeTask marks cpu as having seen a real task wakeup this round.
func (s *Sim) WakeTask(cpu int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasksWoke[cpu] = true
}

func (s *Sim) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Sim) SleepLength(cpu int) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleepLength[cpu]
}

func (s *Sim) IOWaitLoad(cpu int) (uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iowaiters[cpu], s.cpuLoad[cpu]
}

func (s *Sim) NrTTWU(cpu int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nrTTWU[cpu]
}

func (s *Sim) NetReqs() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.netReqs
}

func (s *Sim) EpollEvents() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epollEvents
}

func (s *Sim) TasksWoke(cpu int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksWoke[cpu]
}

func (s *Sim) ResetTasksWoke(cpu int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasksWoke[cpu] = false
}

func (s *Sim) SetRunqueueOnline(cpu int, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasOnline := s.online[cpu]
	s.online[cpu] = online
	switch {
	case online && !wasOnline:
		s.numOnline++
		s.UnparkEvents = append(s.UnparkEvents, cpu)
	case !online && wasOnline:
		s.numOnline--
		s.ParkEvents = append(s.ParkEvents, cpu)
	}
}

func (s *Sim) NumOnlineCPUs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numOnline
}

var _ governor.Platform = (*Sim)(nil)
