package mqtt

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/berfenger/solaredge2influx/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
)

// PahoClient is the underlying client handed to connection callbacks.
type PahoClient = mqtt.Client

func OptsFromConfig(cfg config.MQTTConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(fmt.Sprintf("solaredge_%d", rand.IntN(1000)))
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg config.MQTTConfig, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
		cfg:    cfg,
	}
}

type MQTTClient struct {
	client mqtt.Client
	cfg    config.MQTTConfig
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

// DeviceStateTopic is the topic carrying samples of device, e.g. "inverter/1".
func (c *MQTTClient) DeviceStateTopic(device string) string {
	return deviceStateTopic(c.baseTopic(), device)
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, timeout time.Duration) error {
	token := c.client.Publish(topic, qos, retain, payload)
	return waitToken(token, timeout, "MQTT publish timed out")
}

// PublishWait publishes and blocks until the broker flow completes.
func (c *MQTTClient) PublishWait(topic string, payload any, qos byte, retain bool) error {
	token := c.client.Publish(topic, qos, retain, payload)
	token.Wait()
	return token.Error()
}

func (c *MQTTClient) Connect(timeout time.Duration) error {
	token := c.client.Connect()
	return waitToken(token, timeout, "MQTT connect timed out")
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func waitToken(token mqtt.Token, timeout time.Duration, timeoutMessage string) error {
	if !token.WaitTimeout(timeout) {
		return errors.New(timeoutMessage)
	}
	return token.Error()
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

func deviceStateTopic(baseTopic string, device string) string {
	return fmt.Sprintf("%s/%s/state", baseTopic, device)
}
