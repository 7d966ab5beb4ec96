package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/metric"
	"git.home.luguber.info/inful/probekit/internal/probe"
)

// errPaymentDeclined is the simulated business failure.
var errPaymentDeclined = errors.New("payment declined")

// order is the demo domain object whose fields the workload monitors.
type order struct {
	ID     string
	Amount float64
	Status string
}

// OrderProcessor simulates an instrumented order pipeline. Every probe kind
// is exercised: method entry/exit timing, feature usage with a metric,
// exception reporting, and monitored field changes.
type OrderProcessor struct {
	registry *metric.Registry

	processProbe  *probe.MethodProbe
	discountProbe *probe.FeatureProbe
	errorProbe    *probe.ErrorProbe
	statusProbe   *probe.FieldProbe
	depthProbe    *probe.FieldProbe

	queueDepth int
}

func NewOrderProcessor(logs agent.LogSink, metrics agent.MetricSink) *OrderProcessor {
	registry := metric.NewRegistry()

	return &OrderProcessor{
		registry: registry,

		processProbe: probe.NewMethodProbe(logs, probe.Options{
			Category:       "orders",
			Name:           "processOrder",
			Severity:       agent.SeverityInfo,
			ErrorSeverity:  agent.SeverityError,
			LogParameters:  true,
			LogReturnValue: true,
			SourceLookup:   true,
			ParameterNames: []string{"orderID", "amount"},
		}),

		discountProbe: probe.NewFeatureProbe(logs, metrics, registry, probe.Options{
			Category:       "orders",
			Name:           "applyDiscount",
			Units:          "USD",
			LogParameters:  true,
			ParameterNames: []string{"amount", "code"},
			ParameterTypes: []reflect.Type{
				reflect.TypeOf(float64(0)),
				reflect.TypeOf(""),
			},
			ResultType: reflect.TypeOf(float64(0)),
		}),

		errorProbe: probe.NewErrorProbe(logs, probe.Options{
			Category:      "orders",
			Name:          "orderFailure",
			ErrorSeverity: agent.SeverityError,
			SourceLookup:  true,
		}),

		statusProbe: probe.NewFieldProbe(logs, metrics, registry, probe.Options{
			Category:       "orders",
			Name:           "status",
			Severity:       agent.SeverityInfo,
			ParameterTypes: []reflect.Type{reflect.TypeOf("")},
			InstanceNamer: func(instance any) (string, bool) {
				if o, ok := instance.(*order); ok {
					return "order " + o.ID, true
				}
				return "", false
			},
		}),

		depthProbe: probe.NewFieldProbe(logs, metrics, registry, probe.Options{
			Category:       "orders",
			Name:           "queueDepth",
			Units:          "orders",
			ParameterTypes: []reflect.Type{reflect.TypeOf(int(0))},
		}),
	}
}

// ProcessBatch simulates count orders. Failures are logged through the
// probes, never returned; the workload keeps going.
func (p *OrderProcessor) ProcessBatch(ctx context.Context, count int) {
	slog.Info("Processing order batch", "count", count)

	for i := 0; i < count; i++ {
		o := &order{
			ID:     uuid.NewString(),
			Amount: 25.0 + float64(i)*12.5,
			Status: "received",
		}
		p.setQueueDepth(ctx, p.queueDepth+1)
		p.processOrder(ctx, o, i)
		p.setQueueDepth(ctx, p.queueDepth-1)
	}

	slog.Info("Order batch complete", "count", count)
}

func (p *OrderProcessor) processOrder(ctx context.Context, o *order, seq int) {
	call := p.processProbe.Enter(ctx, o.ID, o.Amount)

	var result any
	var err error
	defer func() {
		if r := recover(); r != nil {
			p.errorProbe.ObservePanic(ctx, r, debug.Stack())
			err = fmt.Errorf("order pipeline panic: %v", r)
			p.setStatus(ctx, o, "failed")
		}
		call.Exit(result, err)
	}()

	p.setStatus(ctx, o, "processing")

	total := p.applyDiscount(ctx, o.Amount, discountCode(seq))
	o.Amount = total

	// Every seventh order fails payment; every eleventh trips a pipeline
	// panic so panic attribution shows up in the demo output.
	switch {
	case seq%11 == 10:
		panic("inventory ledger out of sync")
	case seq%7 == 6:
		err = errPaymentDeclined
		p.errorProbe.Observe(ctx, err)
		p.setStatus(ctx, o, "declined")
	default:
		p.setStatus(ctx, o, "settled")
		result = total
	}
}

// applyDiscount is the feature-usage example: each call is logged and sampled
// into the orders/applyDiscount metric.
func (p *OrderProcessor) applyDiscount(ctx context.Context, amount float64, code string) float64 {
	call := p.discountProbe.Enter(ctx, amount, code)

	var total float64
	switch code {
	case "SAVE10":
		total = amount * 0.9
	case "SAVE25":
		total = amount * 0.75
	default:
		total = amount
	}

	call.Exit(total, nil)
	return total
}

func (p *OrderProcessor) setStatus(ctx context.Context, o *order, status string) {
	old := o.Status
	o.Status = status
	p.statusProbe.Set(ctx, o, old, status)
}

func (p *OrderProcessor) setQueueDepth(ctx context.Context, depth int) {
	old := p.queueDepth
	p.queueDepth = depth
	p.depthProbe.Set(ctx, p, old, depth)
}

func discountCode(seq int) string {
	switch seq % 3 {
	case 0:
		return "SAVE10"
	case 1:
		return "SAVE25"
	default:
		return ""
	}
}
