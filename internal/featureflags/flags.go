// Package featureflags provides runtime switches for alerting, the chatbot
// and planner features.
package featureflags

import (
	"encoding/json"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagDisableAlertsSending evaluates alerts but does not store them.
	FlagDisableAlertsSending = "disable_alerts_sending"

	// FlagDisableChatbot rejects chatbot messages.
	FlagDisableChatbot = "disable_chatbot"

	// FlagChatDailyLimit is the free-tier daily chatbot message quota.
	FlagChatDailyLimit = "chat_daily_limit"

	// FlagEnableFacilityPlanning exposes facility recommendations to Pro planners.
	FlagEnableFacilityPlanning = "enable_facility_planning"

	// FlagDisableWorkerSweep skips the alert sweep after a region refresh.
	FlagDisableWorkerSweep = "disable_worker_sweep"
)

// DefaultChatDailyLimit is the free-tier quota used when the flag is unset.
const DefaultChatDailyLimit = 5

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key" validate:"required,max=64"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates" validate:"required,min=1,dive"`
	Reason  string       `json:"reason" validate:"max=500"`
}

// BoolValue returns the flag value as a boolean, or defaultValue when the
// flag is nil or holds another type.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON numbers decode as float64
		return v != 0
	default:
		return defaultValue
	}
}

// StringValue returns the flag value as a string.
func (f *Flag) StringValue(defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(string); ok {
		return v
	}
	return defaultValue
}

// IntValue returns the flag value as an integer.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return defaultValue
	}
}

// Float64Value returns the flag value as a float64.
func (f *Flag) Float64Value(defaultValue float64) float64 {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return defaultValue
	}
}

// JSONValue unmarshals the flag value into target.
func (f *Flag) JSONValue(target interface{}) error {
	if f == nil {
		return nil
	}
	data, err := json.Marshal(f.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func (f *Flag) clone() *Flag {
	return &Flag{Key: f.Key, Value: f.Value, UpdatedAt: f.UpdatedAt}
}

// DefaultFlags returns the flag values used when nothing has been stored.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagDisableAlertsSending:   {Key: FlagDisableAlertsSending, Value: false, UpdatedAt: now},
		FlagDisableChatbot:         {Key: FlagDisableChatbot, Value: false, UpdatedAt: now},
		FlagChatDailyLimit:         {Key: FlagChatDailyLimit, Value: float64(DefaultChatDailyLimit), UpdatedAt: now},
		FlagEnableFacilityPlanning: {Key: FlagEnableFacilityPlanning, Value: true, UpdatedAt: now},
		FlagDisableWorkerSweep:     {Key: FlagDisableWorkerSweep, Value: false, UpdatedAt: now},
	}
}
