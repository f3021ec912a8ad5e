// Package governor implements the decision engine of an adaptive CPU
// idle-state governor tuned for network-intensive server workloads.
//
// At each idle entry the engine combines three independent predictors —
// a residency EMA, a bucketed timer-deadline corrector, and a network
// inter-arrival estimator — into a single weighted forecast of how long
// the CPU is about to stay idle, then picks the deepest hardware sleep
// state whose target residency is still covered by that forecast. A
// pre-emptive wake timer aborts a sleep early when the network expert
// smells an imminent request. Every exit feeds a residency measurement
// back into the ensemble, which re-weights each expert by how wrong it
// was using an exponentially-weighted forecaster (Hedge) update.
//
// All mutable state lives in one State per logical CPU (see State) and
// is owned exclusively by that CPU's idle path plus its own wake-timer
// callback — callers must never share a State across CPUs.
package governor
