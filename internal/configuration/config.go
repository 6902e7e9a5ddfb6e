package configuration

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// defaults mirrors the coordinator's out-of-the-box PAN identity so a
// fresh install can come up on a bare config file with nothing but a
// serial port and an MQTT broker filled in.
func defaults() Configuration {
	return Configuration{
		ZNetworkConfiguration: ZNetworkConfiguration{
			PANID:         0x26DA,
			ExtendedPANID: 0xDDDD7D7DDDDD7D00,
			NetworkKey:    [16]byte{0x01, 0x03, 0x05, 0x07, 0x09, 0x0B, 0x0D, 0x0F, 0x00, 0x02, 0x04, 0x06, 0x08, 0x0A, 0x0C, 0x0D},
			Channel:       15,
		},
		SerialConfiguration: SerialConfiguration{
			BaudRate: 115200,
		},
		MqttConfiguration: MqttConfiguration{
			Port:      1883,
			RootTopic: "zigcored",
		},
		DatabaseDirectory: "./db",
		LogLevel:          0,
	}
}

// Load reads filename as YAML over the built-in defaults, then applies
// the ZIGCORED_* environment overrides a containerised deployment
// favours over editing the mounted file.
func Load(filename string) (*Configuration, error) {
	cfg := defaults()

	if data, err := os.ReadFile(filename); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("configuration: parsing %s: %w", filename, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration: reading %s: %w", filename, err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Configuration) {
	if v := os.Getenv("ZIGCORED_SERIAL_PORT"); v != "" {
		cfg.SerialConfiguration.PortName = v
	}
	if v := os.Getenv("ZIGCORED_MQTT_ADDRESS"); v != "" {
		cfg.MqttConfiguration.Address = v
	}
	if v := os.Getenv("ZIGCORED_MQTT_USERNAME"); v != "" {
		cfg.MqttConfiguration.Username = v
	}
	if v := os.Getenv("ZIGCORED_MQTT_PASSWORD"); v != "" {
		cfg.MqttConfiguration.Password = v
	}
	if v := os.Getenv("ZIGCORED_PERMIT_JOIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PermitJoin = b
		}
	}
	if v := os.Getenv("ZIGCORED_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = n
		}
	}
}

type configurationService struct {
	current Configuration
}

// NewConfigurationService wraps an already-loaded Configuration behind
// the ConfigurationService contract the downward API uses to persist
// a runtime PermitJoin toggle back to the in-memory copy (the YAML
// file on disk is not rewritten; permit-join is meant to be a runtime
// setting, not a durable one).
func NewConfigurationService(cfg Configuration) ConfigurationService {
	return &configurationService{current: cfg}
}

func (s *configurationService) Update(updated Configuration) error {
	s.current = updated
	return nil
}

func (s *configurationService) GetConfiguration() Configuration {
	return s.current
}
