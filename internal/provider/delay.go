package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
)

// MockDelayRealistic asks the provider to simulate production latency.
const MockDelayRealistic = "realistic"

var presetName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// MockDelay is the simulated latency of a test-mode request: a provider
// preset name or a number of seconds. Presets are forwarded unchanged.
type MockDelay struct {
	Preset  string
	Seconds int
}

// ParseMockDelay reads a form value. Integers are seconds, anything else is a
// preset name.
func ParseMockDelay(raw string) MockDelay {
	if n, err := strconv.Atoi(raw); err == nil {
		return MockDelay{Seconds: n}
	}
	return MockDelay{Preset: raw}
}

func (d MockDelay) IsPreset() bool {
	return d.Preset != ""
}

// Valid reports whether the preset is a plain name or the seconds are at
// least one.
func (d MockDelay) Valid() bool {
	if d.IsPreset() {
		return presetName.MatchString(d.Preset)
	}
	return d.Seconds >= 1
}

func (d MockDelay) String() string {
	if d.IsPreset() {
		return d.Preset
	}
	return strconv.Itoa(d.Seconds)
}

func (d MockDelay) MarshalJSON() ([]byte, error) {
	if d.IsPreset() {
		return json.Marshal(d.Preset)
	}
	return json.Marshal(d.Seconds)
}

func (d *MockDelay) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return errors.New("mockDelay preset must not be empty")
		}
		*d = MockDelay{Preset: s}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("mockDelay must be a preset name or a whole number of seconds")
	}
	*d = MockDelay{Seconds: n}
	return nil
}
