package router

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"zigcored/internal/logger"
	"zigcored/internal/types"
)

type fakeMqttClient struct {
	published map[string][]byte
	callback  func(topic string, message []byte)
}

func newFakeMqttClient() *fakeMqttClient {
	return &fakeMqttClient{published: make(map[string][]byte)}
}

func (c *fakeMqttClient) Dispose()     {}
func (c *fakeMqttClient) UnSubscribe() {}
func (c *fakeMqttClient) Publish(subTopic string, data []byte) {
	c.published[subTopic] = data
}
func (c *fakeMqttClient) Subscribe(callback func(topic string, message []byte)) {
	c.callback = callback
}

func (c *fakeMqttClient) deliver(topic string, v interface{}) {
	data, _ := json.Marshal(v)
	c.callback(topic, data)
}

func TestOnMessageRoutesDeviceSetMessage(t *testing.T) {
	client := newFakeMqttClient()
	r := NewMQTTRouter(client, logger.GetLogger("[test]", logger.LogLevelError))

	var got types.DeviceCommandMessage
	r.SubscribeOnSetMessage(func(devCmd types.DeviceCommandMessage) { got = devCmd })

	client.deliver("zigcored/0x00124b0001020304/set", map[string]interface{}{
		"endpoint": 1,
		"commands": map[string]interface{}{"state": "on"},
	})

	assert.Equal(t, uint64(0x00124b0001020304), got.IEEEAddress)
	assert.Equal(t, uint8(1), got.Endpoint)
	assert.Equal(t, "on", got.Commands["state"])
}

func TestOnMessageRoutesGatewayGetDevices(t *testing.T) {
	client := newFakeMqttClient()
	r := NewMQTTRouter(client, logger.GetLogger("[test]", logger.LogLevelError))

	called := false
	r.SubscribeOnGetDevicesMessage(func() { called = true })

	client.callback("zigcored/gateway/get_devices", nil)

	assert.True(t, called)
}

func TestOnMessageRoutesGatewayConfigSet(t *testing.T) {
	client := newFakeMqttClient()
	r := NewMQTTRouter(client, logger.GetLogger("[test]", logger.LogLevelError))

	var got types.DeviceConfigSetMessage
	r.SubscribeOnSetDeviceConfigMessage(func(devCmd types.DeviceConfigSetMessage) { got = devCmd })

	client.deliver("zigcored/gateway/config_set", map[string]interface{}{"permitjoin": true})

	assert.True(t, got.PermitJoin)
}

func TestPublishDevicesListUsesGatewayTopic(t *testing.T) {
	client := newFakeMqttClient()
	r := NewMQTTRouter(client, logger.GetLogger("[test]", logger.LogLevelError))

	r.PublishDevicesList(nil)

	_, ok := client.published["gateway/devices"]
	assert.True(t, ok)
}
