package configuration

type ZNetworkConfiguration struct {
	PANID                  uint16 `yaml:"pan_id"`
	ExtendedPANID          uint64 `yaml:"extended_pan_id"`
	NetworkKey             [16]byte `yaml:"network_key"`
	Channel                uint8  `yaml:"channel"`
	CoordinatorIEEEAddress uint64 `yaml:"coordinator_ieee_address"`
}

type MqttConfiguration struct {
	Address   string `yaml:"address"`
	Port      uint16 `yaml:"port"`
	RootTopic string `yaml:"root_topic"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

type SerialConfiguration struct {
	PortName string `yaml:"port_name"`
	BaudRate uint32 `yaml:"baud_rate"`
}

type Configuration struct {
	ZNetworkConfiguration ZNetworkConfiguration `yaml:"network"`
	MqttConfiguration     MqttConfiguration     `yaml:"mqtt"`
	SerialConfiguration   SerialConfiguration   `yaml:"serial"`
	DatabaseDirectory     string                `yaml:"database_directory"`
	PermitJoin            bool                  `yaml:"permit_join"`
	LogLevel              int                   `yaml:"log_level"` // info=0, warn=1, error=2, debug=3
}
