// Package metrics 定义服务端的 prometheus 指标
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/palemoky/trivia-party/internal/event"
)

const namespace = "trivia"

// Metrics 服务端指标集合
type Metrics struct {
	RoomsCreated     prometheus.Counter
	RoomsClosed      *prometheus.CounterVec
	GamesStarted     prometheus.Counter
	GamesFinished    prometheus.Counter
	AnswersSubmitted *prometheus.CounterVec
	ActionsRejected  *prometheus.CounterVec
	ActiveRooms      prometheus.Gauge
	ConnectedClients prometheus.Gauge
}

// New 创建指标并注册到 reg，reg 为 nil 时不注册（用于测试）
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Number of rooms created.",
		}),
		RoomsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_closed_total",
			Help:      "Number of rooms removed from the registry, by reason.",
		}, []string{"reason"}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Number of games started.",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Number of games that reached game over.",
		}),
		AnswersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_submitted_total",
			Help:      "Number of accepted answers, by correctness.",
		}, []string{"correct"}),
		ActionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Number of player actions silently rejected, by action.",
		}, []string{"action"}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms currently held in the registry.",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of open websocket connections.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RoomsCreated,
			m.RoomsClosed,
			m.GamesStarted,
			m.GamesFinished,
			m.AnswersSubmitted,
			m.ActionsRejected,
			m.ActiveRooms,
			m.ConnectedClients,
		)
	}

	return m
}

// ObserveAnswer 记录一次被接受的作答
func (m *Metrics) ObserveAnswer(correct bool) {
	m.AnswersSubmitted.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// ObserveRejected 记录一次被静默拒绝的操作
func (m *Metrics) ObserveRejected(action string) {
	m.ActionsRejected.WithLabelValues(action).Inc()
}

// Subscribe 通过事件总线统计房间和游戏的生命周期
func (m *Metrics) Subscribe(bus *event.Bus) {
	bus.Subscribe(event.NameRoomCreated, func(context.Context, event.Event) error {
		m.RoomsCreated.Inc()
		m.ActiveRooms.Inc()
		return nil
	})
	bus.Subscribe(event.NameRoomClosed, func(_ context.Context, e event.Event) error {
		m.ActiveRooms.Dec()
		if closed, ok := e.(event.RoomClosed); ok {
			m.RoomsClosed.WithLabelValues(closed.Reason).Inc()
		}
		return nil
	})
	bus.Subscribe(event.NameGameStarted, func(context.Context, event.Event) error {
		m.GamesStarted.Inc()
		return nil
	})
	bus.Subscribe(event.NameGameFinished, func(context.Context, event.Event) error {
		m.GamesFinished.Inc()
		return nil
	})
}
