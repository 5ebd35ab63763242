// Package notify publishes saved-frame events to external systems.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cjeanneret/ScreenGo/internal/debug"
	"github.com/cjeanneret/ScreenGo/internal/logic/capture"
)

// FrameMessage is the JSON payload published for each saved frame.
type FrameMessage struct {
	RunID  string    `json:"run_id"`
	Frame  int       `json:"frame"`
	Path   string    `json:"path"`
	Format string    `json:"format"`
	Size   int       `json:"size"`
	Time   time.Time `json:"time"`
}

// NewFrameMessage builds the payload for f.
func NewFrameMessage(runID string, f capture.Frame) FrameMessage {
	return FrameMessage{
		RunID:  runID,
		Frame:  f.Index,
		Path:   f.Path,
		Format: f.Format.String(),
		Size:   len(f.Data),
		Time:   f.Time.UTC(),
	}
}

// MQTTConfig configures the publisher.
type MQTTConfig struct {
	Broker   string // host:port
	Topic    string
	ClientID string
	RunID    string
}

// MQTT publishes frame events to a broker. It is a capture.Observer.
type MQTT struct {
	cfg    MQTTConfig
	client mqtt.Client

	mu        sync.Mutex
	published uint64
	errors    uint64
}

// NewMQTT creates a publisher; call Connect before use.
func NewMQTT(cfg MQTTConfig) *MQTT {
	return &MQTT{cfg: cfg}
}

// Connect establishes the broker connection.
func (m *MQTT) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", m.cfg.Broker))
	opts.SetClientID(m.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		debug.Error(fmt.Errorf("mqtt connection lost, will auto-reconnect: %w", err))
	}

	m.client = mqtt.NewClient(opts)
	debug.Info("Connecting to mqtt broker %s", m.cfg.Broker)

	token := m.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(5 * time.Second):
		return fmt.Errorf("mqtt connection timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	debug.Info("MQTT connection established (client_id=%s)", m.cfg.ClientID)
	return nil
}

// FrameSaved publishes f. Publishing is fire-and-forget (QoS 0) so a slow
// broker never delays the capture loop.
func (m *MQTT) FrameSaved(f capture.Frame) {
	payload, err := json.Marshal(NewFrameMessage(m.cfg.RunID, f))
	if err != nil {
		m.countError(err)
		return
	}
	token := m.client.Publish(m.cfg.Topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			m.countError(err)
			return
		}
		m.mu.Lock()
		m.published++
		m.mu.Unlock()
	}()
}

func (m *MQTT) countError(err error) {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
	debug.Error(fmt.Errorf("mqtt publish: %w", err))
}

// Stats returns the number of published and failed messages.
func (m *MQTT) Stats() (published, failed uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published, m.errors
}

// Close disconnects from the broker, waiting briefly for in-flight messages.
func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}
