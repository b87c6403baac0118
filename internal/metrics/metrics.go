package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invitationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtogether_invitations_created_total",
			Help: "Invitation create requests, split by whether a pending one already existed",
		},
		[]string{"existed"},
	)

	invitationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtogether_invitation_transitions_total",
			Help: "Persisted invitation status transitions by target status",
		},
		[]string{"status"},
	)

	matchRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runtogether_match_requests_total",
			Help: "Total number of match computations",
		},
	)

	matchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runtogether_match_scores",
			Help:    "Distribution of returned match scores (percent)",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	candidatePool = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runtogether_match_candidate_pool_size",
			Help:    "Number of candidates scored per match request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	rpcDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "runtogether_grpc_handling_seconds",
			Help: "Unary gRPC handling time",
		},
		[]string{"method", "code"},
	)
)

func RecordInvitationCreated(existed bool) {
	if existed {
		invitationsCreated.WithLabelValues("true").Inc()
		return
	}
	invitationsCreated.WithLabelValues("false").Inc()
}

func RecordTransition(status string) {
	invitationTransitions.WithLabelValues(status).Inc()
}

// RecordMatchRequest records one computation over poolSize candidates and
// the scores it returned.
func RecordMatchRequest(poolSize int, scores []float64) {
	matchRequests.Inc()
	candidatePool.Observe(float64(poolSize))
	for _, s := range scores {
		matchScores.Observe(s)
	}
}

func RecordRPC(method, code string, d time.Duration) {
	rpcDuration.WithLabelValues(method, code).Observe(d.Seconds())
}
