package deck

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// TimeUnit is the unit of an Interval.
type TimeUnit string

const (
	Second TimeUnit = "second"
	Minute TimeUnit = "minute"
	Hour   TimeUnit = "hour"
	Day    TimeUnit = "day"
	Week   TimeUnit = "week"
	Month  TimeUnit = "month"
)

var unitDurations = map[TimeUnit]time.Duration{
	Second: time.Second,
	Minute: time.Minute,
	Hour:   time.Hour,
	Day:    24 * time.Hour,
	Week:   7 * 24 * time.Hour,
	Month:  30 * 24 * time.Hour,
}

// Interval is a scalar amount of a time unit, e.g. 10 minutes.
type Interval struct {
	Scalar float64  `json:"scalar" mapstructure:"scalar" validate:"gte=0"`
	Unit   TimeUnit `json:"unit" mapstructure:"unit" validate:"oneof=second minute hour day week month"`
}

// Duration converts the interval, saturating at the largest time.Duration.
func (i Interval) Duration() time.Duration {
	return scaleDuration(unitDurations[i.Unit], i.Scalar)
}

func (i Interval) String() string {
	return fmt.Sprintf("%g %s", i.Scalar, i.Unit)
}

// TimedModus selects whether answers are timed.
type TimedModus string

const (
	Normal TimedModus = "normal"
	Timed  TimedModus = "timed"
)

// StudyOptions is the scheduling policy of a deck. It is a value type: copies
// compare equal with == when every field matches, and a deck replaces its
// options as a whole.
type StudyOptions struct {
	InitialInterval    Interval   `json:"initial_interval" mapstructure:"initial_interval"`
	RememberedInterval Interval   `json:"remembered_interval" mapstructure:"remembered_interval"`
	ForgottenInterval  Interval   `json:"forgotten_interval" mapstructure:"forgotten_interval"`
	LengtheningFactor  float64    `json:"lengthening_factor" mapstructure:"lengthening_factor" validate:"gte=1"`
	ReviewSessionSize  int        `json:"review_session_size" mapstructure:"review_session_size" validate:"gt=0"`
	TimedModus         TimedModus `json:"timed_modus" mapstructure:"timed_modus" validate:"oneof=normal timed"`
	TimerInterval      Interval   `json:"timer_interval" mapstructure:"timer_interval"`
}

// DefaultStudyOptions returns the policy new decks start with.
func DefaultStudyOptions() StudyOptions {
	return StudyOptions{
		InitialInterval:    Interval{Scalar: 10, Unit: Minute},
		RememberedInterval: Interval{Scalar: 1, Unit: Day},
		ForgottenInterval:  Interval{Scalar: 1, Unit: Hour},
		LengtheningFactor:  5.0,
		ReviewSessionSize:  20,
		TimedModus:         Normal,
		TimerInterval:      Interval{Scalar: 30, Unit: Second},
	}
}

func (o StudyOptions) Equal(other StudyOptions) bool {
	return o == other
}

func (o StudyOptions) IsTimed() bool {
	return o.TimedModus == Timed
}

// Validate checks the policy bounds.
func (o StudyOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return &ValidationError{
			Field:  "study_options",
			Value:  fmt.Sprintf("%+v", o),
			Err:    ErrInvalidStudyOptions,
			Detail: err.Error(),
		}
	}
	return nil
}

func scaleDuration(d time.Duration, factor float64) time.Duration {
	scaled := float64(d) * factor
	if scaled >= math.MaxInt64 || math.IsInf(scaled, 1) || math.IsNaN(scaled) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}
