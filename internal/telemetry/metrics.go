// Package telemetry holds the service's metric instruments and the bridge
// from domain events to the security broker.
package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics counts authentication outcomes. It satisfies the auth service's
// Metrics dependency.
type AuthMetrics struct {
	loginsSucceeded   metric.Int64Counter
	loginsFailed      metric.Int64Counter
	tokenRotations    metric.Int64Counter
	familyRevocations metric.Int64Counter
}

// NewAuthMetrics registers the auth counters on the meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	m := &AuthMetrics{}
	var err error
	if m.loginsSucceeded, err = meter.Int64Counter("auth.logins.succeeded"); err != nil {
		return nil, err
	}
	if m.loginsFailed, err = meter.Int64Counter("auth.logins.failed"); err != nil {
		return nil, err
	}
	if m.tokenRotations, err = meter.Int64Counter("auth.token.rotations"); err != nil {
		return nil, err
	}
	if m.familyRevocations, err = meter.Int64Counter("auth.family.revocations"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AuthMetrics) LoginSucceeded(ctx context.Context) {
	m.loginsSucceeded.Add(ctx, 1)
}

func (m *AuthMetrics) LoginFailed(ctx context.Context) {
	m.loginsFailed.Add(ctx, 1)
}

func (m *AuthMetrics) TokenRotated(ctx context.Context) {
	m.tokenRotations.Add(ctx, 1)
}

func (m *AuthMetrics) FamilyRevoked(ctx context.Context, reason string) {
	m.familyRevocations.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// MustAuthMetrics is NewAuthMetrics for main: instrument registration only
// fails on duplicate names, which is a programming error.
func MustAuthMetrics(meter metric.Meter) *AuthMetrics {
	m, err := NewAuthMetrics(meter)
	if err != nil {
		log.Fatalf("telemetry: register auth metrics: %v", err)
	}
	return m
}
