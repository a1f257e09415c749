package telemetry

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/phonorad/weatherclock/internal/weather"
)

// offlineBufferSize bounds how many messages queue while disconnected.
// At one sample per five minutes this covers several hours of outage.
const offlineBufferSize = 64

// RealPublisher publishes to an actual MQTT broker. While disconnected it
// queues messages in a ring buffer and replays them on reconnect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	pending *ring
}

// NewRealPublisher creates a publisher that connects to the given broker
// in the background and keeps retrying; the device must boot with or
// without the broker reachable. clientID distinguishes clocks sharing a
// broker; empty falls back to "weatherclock".
func NewRealPublisher(broker, clientID string) *RealPublisher {
	if clientID == "" {
		clientID = "weatherclock"
	}
	p := &RealPublisher{pending: newRing(offlineBufferSize)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.replay()
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// PublishSample sends a weather sample (QoS 0, not retained).
func (p *RealPublisher) PublishSample(sample weather.Sample) error {
	payload, err := FormatSamplePayload(sample)
	if err != nil {
		return fmt.Errorf("format sample payload: %w", err)
	}
	return p.publish(TopicWeather, payload, 0, false)
}

// PublishSystem sends a lifecycle event (QoS 1, delivery matters for
// shutdown and update events).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) publish(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.pending.push(queuedMessage{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// replay flushes the offline buffer after a reconnect.
func (p *RealPublisher) replay() {
	p.mu.Lock()
	msgs := p.pending.drain()
	p.mu.Unlock()

	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		token.WaitTimeout(5 * time.Second)
	}
}

// IsConnected reports the broker connection state.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
