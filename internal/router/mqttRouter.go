package router

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"zigcored/internal/logger"
	"zigcored/internal/mqtt"
	"zigcored/internal/types"
)

const (
	topicSet        = "set"
	topicGet        = "get"
	topicExplore    = "explore"
	topicConfigSet  = "config_set"
	topicGetDevices = "get_devices"
	topicGateway    = "gateway"
)

type mqttRouter struct {
	mqttClient mqtt.MqttClient
	log        logger.Logger

	onSetMessage        func(devCmd types.DeviceCommandMessage)
	onGetMessage        func(devCmd types.DeviceGetMessage)
	onExploreMessage    func(devCmd types.DeviceExploreMessage)
	onSetConfigMessage  func(devCmd types.DeviceConfigSetMessage)
	onGetDevicesMessage func()
}

// NewMQTTRouter subscribes to the bridge's {root}/# tree and decodes
// every {0xADDR}/{get,set,explore} and gateway/{get_devices,config_set}
// topic into its typed request.
func NewMQTTRouter(mqttClient mqtt.MqttClient, log logger.Logger) MQTTRouter {
	r := &mqttRouter{mqttClient: mqttClient, log: log}
	mqttClient.Subscribe(r.onMessage)
	return r
}

func (r *mqttRouter) PublishDeviceMessage(devMsg mqtt.DeviceMessage) {
	r.publishJSON(fmt.Sprintf("0x%016x", devMsg.IEEEAddress), devMsg)
}

func (r *mqttRouter) PublishDeviceDescription(devMsg mqtt.DeviceDescriptionMessage) {
	r.publishJSON(fmt.Sprintf("0x%016x/description", devMsg.IEEEAddress), devMsg)
}

func (r *mqttRouter) PublishDevicesList(devices []mqtt.DeviceSummary) {
	r.publishJSON(fmt.Sprintf("%s/devices", topicGateway), devices)
}

func (r *mqttRouter) PublishGatewayStatus(permitJoin bool) {
	r.publishJSON(fmt.Sprintf("%s/config", topicGateway), mqtt.SetGatewayConfig{PermitJoin: permitJoin})
}

func (r *mqttRouter) publishJSON(subTopic string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.Error("marshal publish for %s: %v", subTopic, err)
		return
	}
	r.mqttClient.Publish(subTopic, data)
}

func (r *mqttRouter) SubscribeOnSetMessage(callback func(devCmd types.DeviceCommandMessage)) {
	r.onSetMessage = callback
}

func (r *mqttRouter) SubscribeOnGetMessage(callback func(devCmd types.DeviceGetMessage)) {
	r.onGetMessage = callback
}

func (r *mqttRouter) SubscribeOnExploreMessage(callback func(devCmd types.DeviceExploreMessage)) {
	r.onExploreMessage = callback
}

func (r *mqttRouter) SubscribeOnSetDeviceConfigMessage(callback func(devCmd types.DeviceConfigSetMessage)) {
	r.onSetConfigMessage = callback
}

func (r *mqttRouter) SubscribeOnGetDevicesMessage(callback func()) {
	r.onGetDevicesMessage = callback
}

// onMessage decodes {root}/{addr-or-gateway}/{command}[/...] - the
// client has already stripped the root topic segment off subTopic
// publishes but incoming subscriptions still carry it, so topic here
// is the full "{root}/{segment}/{command}" string.
func (r *mqttRouter) onMessage(topic string, message []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return
	}

	if parts[1] == topicGateway {
		r.handleGatewayMessage(parts[2], message)
		return
	}

	r.handleDeviceMessage(parts[1], parts[2], message)
}

func (r *mqttRouter) handleGatewayMessage(command string, message []byte) {
	switch command {
	case topicGetDevices:
		if r.onGetDevicesMessage != nil {
			r.onGetDevicesMessage()
		}
	case topicConfigSet:
		var cfg mqtt.SetGatewayConfig
		if err := json.Unmarshal(message, &cfg); err != nil {
			r.log.Error("unmarshal gateway config_set: %v", err)
			return
		}
		if r.onSetConfigMessage != nil {
			r.onSetConfigMessage(types.DeviceConfigSetMessage{PermitJoin: cfg.PermitJoin})
		}
	}
}

func (r *mqttRouter) handleDeviceMessage(addrSegment, command string, message []byte) {
	ieee, err := strconv.ParseUint(strings.TrimPrefix(addrSegment, "0x"), 16, 64)
	if err != nil {
		r.log.Error("parsing device address %q: %v", addrSegment, err)
		return
	}

	switch command {
	case topicGet:
		var m mqtt.DeviceGetMessage
		if err := json.Unmarshal(message, &m); err != nil {
			r.log.Error("unmarshal get message for 0x%x: %v", ieee, err)
			return
		}
		if r.onGetMessage != nil {
			r.onGetMessage(types.DeviceGetMessage{IEEEAddress: ieee, ClusterID: m.ClusterID, Endpoint: m.Endpoint, Attributes: m.Attributes})
		}

	case topicSet:
		var m mqtt.DeviceSetMessage
		if err := json.Unmarshal(message, &m); err != nil {
			r.log.Error("unmarshal set message for 0x%x: %v", ieee, err)
			return
		}
		if r.onSetMessage != nil {
			r.onSetMessage(types.DeviceCommandMessage{IEEEAddress: ieee, Endpoint: m.Endpoint, Commands: m.Commands})
		}

	case topicExplore:
		if r.onExploreMessage != nil {
			r.onExploreMessage(types.DeviceExploreMessage{IEEEAddress: ieee})
		}
	}
}
