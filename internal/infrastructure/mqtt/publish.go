package mqtt

import (
	"fmt"
)

// maxPayloadSize caps a single publish at 1MB. Anything larger is a
// programming error rather than a legitimate event payload.
const maxPayloadSize = 1024 * 1024

// Publish sends a message to the specified topic.
//
// Parameters:
//   - topic: MQTT topic to publish to (must not be empty)
//   - qos: Quality of service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message
//   - payload: Message payload
//
// Returns:
//   - error: If validation fails, the client is disconnected, or the
//     broker does not acknowledge within the publish timeout
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return fmt.Errorf("%w: got %d", ErrInvalidQoS, qos)
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload, using the configured QoS.
func (c *Client) PublishString(topic, payload string) error {
	return c.Publish(topic, byte(c.cfg.QoS), false, []byte(payload))
}

// PublishRetained publishes a retained message at the configured QoS.
// The broker delivers retained messages to new subscribers immediately.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, byte(c.cfg.QoS), true, payload)
}
