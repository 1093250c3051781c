package service

import (
	"pygmalion/internal/domain"
	"pygmalion/internal/llm"
)

const (
	maxTemperature   = 1.2
	smartTokenFloor  = 700
	creativityFactor = 0.3
)

// AdjustParams deriva los parametros de muestreo a partir del vector de
// rasgos crudo. Con traits nil devuelve base sin tocar.
//
// Ojo: aqui los campos ausentes cuentan como 0 para creativityBoost, a
// diferencia de ResolveTraits que los completa con defaults. La
// inconsistencia viene del comportamiento observado en produccion y esta
// pineada por test hasta que producto la aclare.
func AdjustParams(base llm.GenerationParams, traits *domain.RawTraits) llm.GenerationParams {
	if traits == nil {
		return base
	}

	var chaotic, playfulness float64
	if traits.Chaotic != nil {
		chaotic = *traits.Chaotic
	}
	if traits.Playfulness != nil {
		playfulness = *traits.Playfulness
	}
	creativityBoost := (chaotic + playfulness) / 2

	adjusted := base
	adjusted.Temperature = base.Temperature + creativityBoost*creativityFactor
	if adjusted.Temperature > maxTemperature {
		adjusted.Temperature = maxTemperature
	}

	if traits.Intelligence != nil && *traits.Intelligence > 0.7 && adjusted.MaxTokens < smartTokenFloor {
		adjusted.MaxTokens = smartTokenFloor
	}

	return adjusted
}
