package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "tictactoe"

	resultLabelName = "result"
	statusLabelName = "status"
)

var (
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "number of sessions currently registered, waiting ones included",
		})

	WaitingSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waiting_sessions",
			Help:      "number of sessions still waiting for a second participant",
		})

	ConnectedParticipants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_participants",
			Help:      "number of connections currently joined to a session",
		})

	Moves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "processed moves by outcome: accepted or the rejection code",
		}, []string{resultLabelName})

	FinishedGames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finished_games_total",
			Help:      "matches that reached a terminal status, forfeits included",
		}, []string{statusLabelName})

	DroppedStates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_states_total",
			Help:      "game states discarded because a participant's update queue was full",
		})
)

// Register - registers every collector of this package on r.
func Register(r prometheus.Registerer) {
	r.MustRegister(ActiveSessions)
	r.MustRegister(WaitingSessions)
	r.MustRegister(ConnectedParticipants)
	r.MustRegister(Moves)
	r.MustRegister(FinishedGames)
	r.MustRegister(DroppedStates)
}
