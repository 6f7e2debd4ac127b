// Package format turns raw playback positions into display strings and slider values.
package format

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
)

// Time formats a duration as MM:SS. There is no hour field, minutes keep counting past 59.
func Time(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Progress formats position and duration as "MM:SS / MM:SS"
func Progress(pos, dur time.Duration) string {
	return Time(pos) + " / " + Time(dur)
}

// Slider returns the slider range maximum and the position clamped into [0, max].
// Right after a load the duration may still be zero, which pins the value at 0.
func Slider(pos, dur time.Duration) (max, value time.Duration) {
	if dur < 0 {
		dur = 0
	}
	return dur, lo.Clamp(pos, 0, dur)
}

// Fraction returns the clamped position as a 0..1 ratio of the duration
func Fraction(pos, dur time.Duration) float64 {
	max, value := Slider(pos, dur)
	if max == 0 {
		return 0
	}
	return float64(value) / float64(max)
}

// Volume converts a 0..1 level into a 0..100 slider percentage
func Volume(level float64) int {
	return int(math.Round(lo.Clamp(level, 0, 1) * 100))
}

// VolumeLevel converts a 0..100 slider percentage into a 0..1 level
func VolumeLevel(percent int) float64 {
	return float64(lo.Clamp(percent, 0, 100)) / 100
}
