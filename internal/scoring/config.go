package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid scoring config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the scoring weights.
type Config struct {
	// Alpha trades tag familiarity against tag coverage.
	Alpha float64 `mapstructure:"alpha" validate:"gte=0,lte=1"`
	// Beta trades difficulty familiarity against difficulty coverage.
	Beta float64 `mapstructure:"beta" validate:"gte=0,lte=1"`
	// Gamma scales the wrong-submission penalty.
	Gamma float64 `mapstructure:"gamma" validate:"gte=0"`
	// W1, W2 and W3 weight the tag, difficulty and personal scores. They must sum to 1.
	W1 float64 `mapstructure:"w1" validate:"gte=0,lte=1"`
	W2 float64 `mapstructure:"w2" validate:"gte=0,lte=1"`
	W3 float64 `mapstructure:"w3" validate:"gte=0,lte=1"`
	// Smoothing is the Laplace constant of the personal acceptance rate.
	Smoothing float64 `mapstructure:"smoothing" validate:"gt=0"`
}

// DefaultConfig returns the stock weights.
func DefaultConfig() Config {
	return Config{
		Alpha:     0.7,
		Beta:      0.7,
		Gamma:     0.5,
		W1:        0.4,
		W2:        0.4,
		W3:        0.2,
		Smoothing: 1,
	}
}

const weightTolerance = 1e-9

// Validate checks every range and that W1+W2+W3 is 1.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if sum := c.W1 + c.W2 + c.W3; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: w1+w2+w3 = %g, want 1", ErrInvalidConfig, sum)
	}
	return nil
}
