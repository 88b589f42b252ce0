// Package mtime extends the standard time package with types which marshal
// cleanly into configuration formats.
package mtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration to implement marshaling and unmarshaling
// methods, so durations can be used as mcfg parameters.
type Duration struct {
	time.Duration
}

// Dur is a shortcut for Duration{d}.
func Dur(d time.Duration) Duration {
	return Duration{d}
}

// MarshalText implements the text.Marshaler interface
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalText implements the text.Unmarshaler interface
func (d *Duration) UnmarshalText(b []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(b))
	return err
}

// MarshalJSON implements the json.Marshaler interface, marshaling the Duration
// as a json string via Duration's String method
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface. A JSON string is
// parsed with time.ParseDuration, a JSON number is taken as a number of
// seconds (config files often give timeouts as plain numbers).
func (d *Duration) UnmarshalJSON(b []byte) error {
	var i interface{}
	if err := json.Unmarshal(b, &i); err != nil {
		return err
	}

	switch v := i.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %s into a duration", b)
	}
}
