package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "arena_registrations_total", Help: "Total successful contest registrations"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "arena_submissions_total", Help: "Scored submissions by correctness"},
		[]string{"result"},
	)
	SubmissionRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "arena_submission_rejections_total", Help: "Submissions rejected before scoring"},
		[]string{"reason"},
	)
	JudgeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "arena_judge_seconds", Help: "Time spent waiting for the judge", Buckets: prometheus.ExponentialBuckets(0.25, 2, 8)},
	)
	StateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "arena_contest_transitions_total", Help: "Contest state transitions persisted by the scheduler"},
		[]string{"to"},
	)
	SchedulerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "arena_scheduler_failures_total", Help: "Per-contest scheduler evaluation failures"},
	)
	Payouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "arena_payouts_total", Help: "Reward distribution calls by outcome"},
		[]string{"outcome"},
	)
	PayoutCoins = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "arena_payout_coins_total", Help: "Coins credited by reward distribution"},
	)
)

func Register() {
	prometheus.MustRegister(
		Registrations,
		Submissions,
		SubmissionRejections,
		JudgeLatency,
		StateTransitions,
		SchedulerFailures,
		Payouts,
		PayoutCoins,
	)
}
