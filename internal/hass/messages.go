package hass

import "encoding/json"

// WebSocket command types used against the Home Assistant API.
const (
	typeAuthRequired = "auth_required"
	typeAuth         = "auth"
	typeAuthOK       = "auth_ok"
	typeAuthInvalid  = "auth_invalid"
	typeResult       = "result"

	cmdEntityRegistryList = "config/entity_registry/list"
	cmdDeviceRegistryList = "config/device_registry/list"
	cmdAreaRegistryList   = "config/area_registry/list"
)

// message is the envelope for every frame exchanged with Home
// Assistant. Fields are a union across the handshake and command
// phases; unused ones stay empty.
type message struct {
	ID          int             `json:"id,omitempty"`
	Type        string          `json:"type"`
	AccessToken string          `json:"access_token,omitempty"`
	Success     bool            `json:"success,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *commandError   `json:"error,omitempty"`
}

// commandError is the error payload of a failed result frame.
type commandError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// entityEntry mirrors the entity registry list response.
type entityEntry struct {
	EntityID   string  `json:"entity_id"`
	Name       *string `json:"name"`
	DeviceID   *string `json:"device_id"`
	AreaID     *string `json:"area_id"`
	DisabledBy *string `json:"disabled_by"`
	HiddenBy   *string `json:"hidden_by"`
	Category   *string `json:"entity_category"`
}

// deviceEntry mirrors the device registry list response.
type deviceEntry struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	AreaID *string `json:"area_id"`
}

// areaEntry mirrors the area registry list response.
type areaEntry struct {
	AreaID string `json:"area_id"`
	Name   string `json:"name"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
