package mq

import (
	"incubatorhub/pkg/circuitbreaker"
)

// GuardedProducer wraps a Producer behind a circuit breaker so a dead broker
// fails fast instead of stalling every workflow mutation. Publish failures
// are already tolerated upstream; the breaker just caps their latency cost.
type GuardedProducer struct {
	producer *Producer
	breaker  *circuitbreaker.CircuitBreaker
}

func NewGuardedProducer(producer *Producer) *GuardedProducer {
	return &GuardedProducer{
		producer: producer,
		breaker:  circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
	}
}

func (g *GuardedProducer) Publish(routingKey string, payload any) error {
	return g.breaker.Execute(func() error {
		return g.producer.Publish(routingKey, payload)
	})
}

func (g *GuardedProducer) Close() {
	g.producer.Close()
}
