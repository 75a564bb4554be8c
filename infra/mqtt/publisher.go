package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/kilianp07/ewsite/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher sends run summaries to <prefix>/<scenario>/summary and status
// changes to <prefix>/<scenario>/status/<machine>.
type Publisher struct {
	cli pahoClient
	cfg Config
	log logger.Logger
}

// SummaryMessage is the payload published for every run.
type SummaryMessage struct {
	RunID     string            `json:"run_id"`
	Scenario  string            `json:"scenario"`
	Chargers  int               `json:"chargers"`
	Machines  int               `json:"machines"`
	StartedAt time.Time         `json:"started_at"`
	Summary   telemetry.Summary `json:"summary"`
}

// StatusMessage is the payload published for a machine status change.
type StatusMessage struct {
	MachineID string `json:"machine_id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	SimTime   int64  `json:"sim_time"`
}

// NewPublisher connects to the broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-publisher")
	opts.OnConnect = func(paho.Client) { log.Infof("connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return &Publisher{cli: c, cfg: cfg, log: log}, nil
}

// RecordRun implements metrics.RunSink.
func (p *Publisher) RecordRun(res coremetrics.RunResult) error {
	msg := SummaryMessage{
		RunID:     res.RunID,
		Scenario:  res.Scenario,
		Chargers:  res.Chargers,
		Machines:  res.Machines,
		StartedAt: res.StartedAt,
		Summary:   res.Summary,
	}
	return p.publish(p.topic(res.Scenario, "summary"), msg)
}

// RecordStatus implements metrics.StatusRecorder.
func (p *Publisher) RecordStatus(ev coremetrics.StatusEvent) error {
	msg := StatusMessage{
		MachineID: ev.MachineID,
		Type:      ev.Type.String(),
		Status:    ev.Status.String(),
		SimTime:   ev.SimTime,
	}
	return p.publish(p.topic(ev.Scenario, "status", ev.MachineID), msg)
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

func (p *Publisher) topic(parts ...string) string {
	segs := []string{p.cfg.TopicPrefix}
	for _, s := range parts {
		segs = append(segs, TopicSegment(s))
	}
	return strings.Join(segs, "/")
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			p.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.log.Warnf("publish to %s attempt %d failed: %v", topic, attempt+1, publishErr)
		time.Sleep(p.cfg.backoff() * time.Duration(1<<attempt))
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// TopicSegment turns a machine id or scenario name into a topic level. MQTT
// wildcards, separators and spaces are dropped or replaced.
func TopicSegment(s string) string {
	r := strings.NewReplacer("#", "", "+", "", "/", "_", " ", "_")
	out := r.Replace(strings.TrimSpace(s))
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	if out == "" {
		return "_"
	}
	return out
}
