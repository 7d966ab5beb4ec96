package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/probekit/internal/metric"
)

const (
	defaultSubjectPrefix = "probekit"

	logSubjectSuffix        = "logs"
	sampleSubjectSuffix     = "samples"
	definitionSubjectSuffix = "definitions"
)

// NATSSink forwards log records and metric samples to a NATS deployment so a
// remote collector can aggregate instrumentation from many processes. It
// implements both LogSink and MetricSink. Publishes are fire-and-forget; the
// probes suppress any error this sink returns.
type NATSSink struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSSink connects to the NATS server at url. An empty subjectPrefix
// defaults to "probekit".
func NewNATSSink(url, subjectPrefix string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("probekit"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}
	return &NATSSink{conn: conn, subjectPrefix: subjectPrefix}, nil
}

// logEnvelope is the wire form of a log record.
type logEnvelope struct {
	Timestamp   time.Time `json:"ts"`
	Severity    string    `json:"severity"`
	System      string    `json:"system"`
	Category    string    `json:"category"`
	Caption     string    `json:"caption"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source,omitempty"`
}

// sampleEnvelope is the wire form of a metric sample.
type sampleEnvelope struct {
	Timestamp  time.Time      `json:"ts"`
	Definition string         `json:"definition"`
	Instance   string         `json:"instance,omitempty"`
	Values     map[string]any `json:"values"`
}

// definitionEnvelope is the wire form of a metric definition.
type definitionEnvelope struct {
	Key      string             `json:"key"`
	System   string             `json:"system"`
	Category string             `json:"category"`
	Name     string             `json:"name"`
	Slots    []metric.ValueSlot `json:"slots"`
}

func (n *NATSSink) Write(_ context.Context, rec Record) error {
	env := logEnvelope{
		Timestamp:   time.Now().UTC(),
		Severity:    string(rec.Severity),
		System:      rec.System,
		Category:    rec.Category,
		Caption:     rec.Caption,
		Description: rec.Description,
		Source:      rec.Source.String(),
	}
	return n.publish(logSubjectSuffix, env)
}

func (n *NATSSink) Define(def *metric.Definition) error {
	env := definitionEnvelope{
		Key:      def.Key(),
		System:   def.System,
		Category: def.Category,
		Name:     def.Name,
		Slots:    def.Slots(),
	}
	return n.publish(definitionSubjectSuffix, env)
}

func (n *NATSSink) WriteSample(s *metric.Sample) error {
	env := sampleEnvelope{
		Timestamp:  s.Taken.UTC(),
		Definition: s.Definition.Key(),
		Instance:   s.Instance,
		Values:     encodeValues(s),
	}
	return n.publish(sampleSubjectSuffix, env)
}

func (n *NATSSink) publish(suffix string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", suffix, err)
	}
	if err := n.conn.Publish(n.subjectPrefix+"."+suffix, body); err != nil {
		return fmt.Errorf("publish %s: %w", suffix, err)
	}
	return nil
}

// Close flushes pending publishes and drops the connection.
func (n *NATSSink) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Flush(); err != nil {
		n.conn.Close()
		return err
	}
	n.conn.Close()
	return nil
}
