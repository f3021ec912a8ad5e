package governor

import "errors"

// Sentinel errors name the failure taxonomy of §7. None of these are ever
// returned to the host idle framework — the governor is a soft-real-time,
// best-effort policy that always returns a state index — but they are used
// as logging and metrics labels so the taxonomy stays machine-readable.
var (
	// ErrAllExpertsAbstained: every expert returned -1 this round; the
	// round aborted and the fallback state was chosen.
	ErrAllExpertsAbstained = errors.New("governor: all experts abstained")

	// ErrWeightNormalizerZero: the weight-update normalizer floor
	// evaluated to 0; the round's weight update was skipped.
	ErrWeightNormalizerZero = errors.New("governor: weight normalizer floor is zero")

	// ErrWeightCollapse: an expert's updated weight would have dropped to
	// zero; the entire ensemble was reset to InitialWeight.
	ErrWeightCollapse = errors.New("governor: expert weight collapsed, ensemble reset")

	// ErrUnusableMeasurement: the raw residency did not exceed the
	// entered state's exit latency, so it carries no signal.
	ErrUnusableMeasurement = errors.New("governor: residency measurement below exit latency")

	// ErrSpuriousWake: the CPU woke via its own pre-emptive timer with no
	// real task wakeup; the residency was deferred into pending.
	ErrSpuriousWake = errors.New("governor: spurious pre-emptive wake")

	// ErrDistributionShift: the network expert abstained after detecting
	// a change in traffic character; the ensemble was reset.
	ErrDistributionShift = errors.New("governor: network distribution shift, ensemble reset")
)
