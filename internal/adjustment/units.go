package adjustment

import (
	"math"

	"github.com/alexanderramin/appraise/internal/domain"
)

const (
	SquareFeetPerSquareMeter = 10.7639
	FeetPerMeter             = 3.28084
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func factor(dim Dimension) float64 {
	switch dim {
	case DimArea:
		return SquareFeetPerSquareMeter
	case DimLength:
		return FeetPerMeter
	default:
		return 1
	}
}

// ToDisplay converts a canonical metric value to the display unit of sys,
// rounded to 2 decimals for imperial output.
func ToDisplay(v float64, dim Dimension, sys domain.MeasurementSystem) float64 {
	if sys != domain.MeasurementImperial || factor(dim) == 1 {
		return v
	}
	return round2(v * factor(dim))
}

// FromDisplay converts a value entered in the display unit of sys back to
// the canonical metric value. Apply it once per edit.
func FromDisplay(v float64, dim Dimension, sys domain.MeasurementSystem) float64 {
	if sys != domain.MeasurementImperial || factor(dim) == 1 {
		return v
	}
	return v / factor(dim)
}

// RateToDisplay converts a per-metric-unit rate ($/m²) to the display unit
// rate ($/ft²).
func RateToDisplay(rate float64, dim Dimension, sys domain.MeasurementSystem) float64 {
	if sys != domain.MeasurementImperial || factor(dim) == 1 {
		return rate
	}
	return round2(rate / factor(dim))
}

// RateFromDisplay is the inverse of RateToDisplay.
func RateFromDisplay(rate float64, dim Dimension, sys domain.MeasurementSystem) float64 {
	if sys != domain.MeasurementImperial || factor(dim) == 1 {
		return rate
	}
	return rate * factor(dim)
}

// UnitLabel names the display unit of dim under sys, or "" when the value
// is unitless.
func UnitLabel(dim Dimension, sys domain.MeasurementSystem) string {
	imperial := sys == domain.MeasurementImperial
	switch dim {
	case DimArea:
		if imperial {
			return "ft²"
		}
		return "m²"
	case DimLength:
		if imperial {
			return "ft"
		}
		return "m"
	case DimYears:
		return "yrs"
	default:
		return ""
	}
}
