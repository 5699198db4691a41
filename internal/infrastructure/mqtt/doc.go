// Package mqtt provides MQTT client functionality for Exposure Core.
//
// It wraps paho.mqtt.golang with connection management, automatic
// reconnection, subscription restoration, and Last Will and Testament
// for online/offline detection.
//
// # Features
//
//   - Auto-reconnect with exponential backoff
//   - Subscription tracking with restoration after reconnect
//   - Retained online/offline status on exposure/system/status
//   - LWT so subscribers can distinguish a crash from a clean shutdown
//   - Panic recovery around message handlers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.RegistryChanged(), 1, func(topic string, payload []byte) error {
//		// react to registry change
//		return nil
//	})
//
// # Topics
//
// Topic names are built through the Topics helpers so the hierarchy
// stays consistent:
//
//	exposure/system/status          retained online/offline status
//	exposure/core/sync/completed    sync run finished
//	exposure/core/sync/failed       sync run failed
//	exposure/core/document/updated  rule document saved
//	exposure/registry/changed       registry change events (inbound)
package mqtt
