// ABOUTME: Generation configuration surface
// ABOUTME: Metadata family toggles, tracker caps, worker bound, predicates

package generator

import (
	"fmt"

	"github.com/infparquet/infparquet/pkg/predicate"
	"github.com/infparquet/infparquet/pkg/stats"
)

// Config controls one generation run. The zero value is not useful;
// start from DefaultConfig.
type Config struct {
	// GenerateBaseMetadata enables leaf statistics extraction plus the
	// roll-up and roll-across aggregates built from them.
	GenerateBaseMetadata bool `json:"generate_base_metadata"`
	// GenerateCustomMetadata enables predicate evaluation into per-file
	// boolean matrices.
	GenerateCustomMetadata bool `json:"generate_custom_metadata"`

	MaxHighFreqStrings    int `json:"max_high_freq_strings"`
	MaxSpecialStrings     int `json:"max_special_strings"`
	MaxHighFreqCategories int `json:"max_high_freq_categories"`

	// MaxWorkers bounds row-group parallelism. Zero means hardware
	// concurrency; the pool caps either way.
	MaxWorkers int `json:"max_workers"`

	Predicates []predicate.Named `json:"predicates,omitempty"`
}

// DefaultConfig returns the stock configuration: both metadata families
// on, default tracker caps, hardware-sized pool, no predicates.
func DefaultConfig() Config {
	lim := stats.DefaultLimits()
	return Config{
		GenerateBaseMetadata:   true,
		GenerateCustomMetadata: true,
		MaxHighFreqStrings:     lim.MaxHighFreqStrings,
		MaxSpecialStrings:      lim.MaxSpecialStrings,
		MaxHighFreqCategories:  lim.MaxHighFreqCategories,
	}
}

// Limits projects the tracker caps into the extractor's form.
func (c Config) Limits() stats.Limits {
	return stats.Limits{
		MaxHighFreqStrings:    c.MaxHighFreqStrings,
		MaxSpecialStrings:     c.MaxSpecialStrings,
		MaxHighFreqCategories: c.MaxHighFreqCategories,
	}
}

// Validate rejects configurations no generation run could honor.
// Disabling both metadata families is allowed; the run then produces
// only the structural tree and file items.
func (c Config) Validate() error {
	if c.MaxHighFreqStrings < 0 || c.MaxSpecialStrings < 0 || c.MaxHighFreqCategories < 0 {
		return fmt.Errorf("%w: negative tracker capacity", stats.ErrInvalidParameter)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("%w: negative worker count %d", stats.ErrInvalidParameter, c.MaxWorkers)
	}
	if c.GenerateCustomMetadata {
		if err := predicate.Validate(c.Predicates); err != nil {
			return err
		}
	}
	return nil
}
