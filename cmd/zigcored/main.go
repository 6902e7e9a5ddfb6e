package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"zigcored/internal/configuration"
	"zigcored/internal/db"
	"zigcored/internal/logger"
	"zigcored/internal/mqtt"
	"zigcored/internal/router"
	"zigcored/internal/types"
	"zigcored/internal/zigbee"
	"zigcored/internal/zigbee/adapter"
	"zigcored/internal/zigbee/adapter/znp"
	"zigcored/internal/zigbee/model"
	"zigcored/internal/zigbee/profile"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var configFile = flag.String("c", "./configuration.yaml", "path to config file name")
	flag.Parse()

	cfg, err := configuration.Load(*configFile)
	if err != nil {
		os.Stderr.WriteString("configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.GetLogger("[main]", cfg.LogLevel)

	deviceDB, err := db.NewDeviceDB(cfg.DatabaseDirectory)
	if err != nil {
		log.Error("db initialisation error: %v\n", err)
		os.Exit(1)
	}
	defer deviceDB.Close(ctx)

	records, err := deviceDB.GetDevices(ctx)
	if err != nil {
		log.Error("loading persisted devices: %v\n", err)
		os.Exit(1)
	}
	devices := make([]*model.Device, 0, len(records))
	for _, r := range records {
		devices = append(devices, r.ToDevice())
	}

	znpAdapter, err := znp.New(znp.Config{
		PortName: cfg.SerialConfiguration.PortName,
		BaudRate: cfg.SerialConfiguration.BaudRate,
	}, devices, log)
	if err != nil {
		log.Error("znp adapter initialisation error: %v\n", err)
		os.Exit(1)
	}

	bridge := router.NewBridge(deviceDB, log)
	engine := zigbee.New(znpAdapter, log, profile.Setup, bridge.HandleDeviceEvent, bridge.HandleEndpointUpdated)
	bridge.AttachEngine(engine)

	for _, d := range devices {
		engine.Catalogue().LoadDevice(d)
		if d.InterviewState == model.InterviewFinished {
			engine.Catalogue().SetupDevice(d)
		}
	}

	mqttClient, mqttDisconnect := mqtt.NewClient(cfg)
	defer mqttDisconnect()

	mqttRouter := router.NewMQTTRouter(mqttClient, log)
	setupSubscriptions(mqttRouter, bridge, ctx)

	go func() {
		netCfg := adapter.NetworkConfiguration{
			PANID:                  cfg.ZNetworkConfiguration.PANID,
			ExtendedPANID:          cfg.ZNetworkConfiguration.ExtendedPANID,
			NetworkKey:             cfg.ZNetworkConfiguration.NetworkKey,
			Channel:                cfg.ZNetworkConfiguration.Channel,
			CoordinatorIEEEAddress: cfg.ZNetworkConfiguration.CoordinatorIEEEAddress,
		}
		if err := engine.Run(ctx, netCfg); err != nil {
			log.Error("engine stopped: %v\n", err)
		}
	}()

	if cfg.PermitJoin {
		go func() {
			time.Sleep(2 * time.Second)
			if err := engine.SetPermitJoin(ctx, true); err != nil {
				log.Warn("enable permit join at startup: %v", err)
			}
			mqttRouter.PublishGatewayStatus(true)
		}()
	}

	waitForInterruptSignal()

	log.Info("exiting app...")
}

func setupSubscriptions(mqttRouter router.MQTTRouter, bridge router.Bridge, ctx context.Context) {
	mqttRouter.SubscribeOnSetMessage(func(devCmd types.DeviceCommandMessage) {
		bridge.ProcessSetMessage(ctx, devCmd)
	})
	mqttRouter.SubscribeOnGetMessage(func(devCmd types.DeviceGetMessage) {
		bridge.ProcessGetMessage(ctx, devCmd)
	})
	mqttRouter.SubscribeOnExploreMessage(func(devCmd types.DeviceExploreMessage) {
		bridge.ProcessExploreMessage(ctx, devCmd)
	})
	mqttRouter.SubscribeOnSetDeviceConfigMessage(func(devCmd types.DeviceConfigSetMessage) {
		bridge.ProcessSetDeviceConfigMessage(ctx, devCmd)
	})
	mqttRouter.SubscribeOnGetDevicesMessage(func() {
		mqttRouter.PublishDevicesList(bridge.Devices())
	})

	bridge.SubscribeOnDeviceMessage(func(devMsg mqtt.DeviceMessage) {
		mqttRouter.PublishDeviceMessage(devMsg)
	})
	bridge.SubscribeOnDeviceDescription(func(devMsg mqtt.DeviceDescriptionMessage) {
		mqttRouter.PublishDeviceDescription(devMsg)
	})
}

func waitForInterruptSignal() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt)
	defer func() {
		signal.Stop(sigchan)
	}()
	<-sigchan
}
