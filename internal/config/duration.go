package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Duration extends time.Duration to support a "d" (days) suffix, which
// reads better for long-lived token lifetimes like "30d"
type Duration struct {
	time.Duration
}

// EnvDecode implements envconfig.Decoder
func (d *Duration) EnvDecode(ctx context.Context, v string) error {
	if v == "" {
		return nil
	}

	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return fmt.Errorf("invalid days value: %w", err)
		}
		d.Duration = time.Duration(days) * day
		return nil
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	d.Duration = duration
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	return d.EnvDecode(context.Background(), string(text))
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// String renders whole-day durations with the "d" suffix so a decoded
// value round-trips through the same notation it was configured with
func (d Duration) String() string {
	if d.Duration >= day && d.Duration%day == 0 {
		return fmt.Sprintf("%dd", d.Duration/day)
	}
	return d.Duration.String()
}
