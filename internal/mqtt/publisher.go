package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/berfenger/solaredge2influx/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	SINK_NAME = "mqtt"

	publishTimeout = 5 * time.Second
)

type samplePayload struct {
	Time   string            `json:"time"`
	Tags   map[string]string `json:"tags"`
	Fields map[string]any    `json:"fields"`
}

// Publisher writes samples as JSON to "<base_topic>/<device>/state".
type Publisher struct {
	client *MQTTClient
	logger *zap.Logger
}

func NewPublisher(client *MQTTClient, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		logger: logger.With(zap.String("component", "mqtt")),
	}
}

// OnConnect publishes the retained online state.
func (p *Publisher) OnConnect(client mqtt.Client) {
	p.logger.Info("connected to MQTT broker")
	token := client.Publish(p.client.BridgeStateTopic(), 0, true, MQTT_PAYLOAD_ONLINE)
	go func() {
		if err := waitToken(token, publishTimeout, "MQTT publish timed out"); err != nil {
			p.logger.Warn("could not publish bridge state", zap.Error(err))
		}
	}()
}

func (p *Publisher) OnConnectionLost(_ mqtt.Client, err error) {
	p.logger.Warn("MQTT connection lost", zap.Error(err))
}

func (p *Publisher) Write(_ context.Context, sample domain.Sample) error {
	payload, err := EncodeSample(sample)
	if err != nil {
		return &domain.WriteError{Sink: SINK_NAME, Err: err}
	}
	if err := p.client.PublishWait(p.client.DeviceStateTopic(sample.Device()), payload, 0, false); err != nil {
		return &domain.WriteError{Sink: SINK_NAME, Err: err}
	}
	return nil
}

// Close publishes the offline state when connected and disconnects.
func (p *Publisher) Close() error {
	if !p.client.IsConnected() {
		p.logger.Info("MQTT broker not connected, skipping offline state")
		p.client.Disconnect(time.Second)
		return nil
	}
	err := p.client.Publish(p.client.BridgeStateTopic(), MQTT_PAYLOAD_OFFLINE, 0, true, publishTimeout)
	p.client.Disconnect(time.Second)
	return err
}

func EncodeSample(sample domain.Sample) ([]byte, error) {
	return json.Marshal(samplePayload{
		Time:   sample.Time.UTC().Format(time.RFC3339Nano),
		Tags:   sample.Tags,
		Fields: sample.Fields,
	})
}
