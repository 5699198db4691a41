package mqtt

// Topic prefixes for the Exposure Core MQTT hierarchy.
const (
	// TopicPrefixCore is the base for core service topics.
	TopicPrefixCore = "exposure/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "exposure/system"

	// TopicPrefixRegistry is the base for registry event topics.
	TopicPrefixRegistry = "exposure/registry"
)

// Topics provides builders for Exposure Core MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// SystemStatus returns the online/offline status topic. Status messages
// are retained so new subscribers see the last known state; the LWT is
// published here on unexpected disconnect.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// SyncCompleted returns the topic announcing a finished sync run.
func (Topics) SyncCompleted() string {
	return TopicPrefixCore + "/sync/completed"
}

// SyncFailed returns the topic announcing a failed sync run.
func (Topics) SyncFailed() string {
	return TopicPrefixCore + "/sync/failed"
}

// DocumentUpdated returns the topic announcing a saved rule document.
func (Topics) DocumentUpdated() string {
	return TopicPrefixCore + "/document/updated"
}

// RegistryChanged returns the topic carrying registry change events.
// The sync manager subscribes here to trigger debounced auto-syncs.
func (Topics) RegistryChanged() string {
	return TopicPrefixRegistry + "/changed"
}
