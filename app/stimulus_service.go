package app

import (
	"psyphy/domain/core"
	"psyphy/domain/imaging"
	"psyphy/domain/stimulus"
	"psyphy/internal/config"
)

// StimulusService turns requested display intensities into degraded
// stimulus frames. Intensities outside [0, 100] are clamped rather than
// rejected so staircase procedures can overshoot safely.
type StimulusService struct {
	optics  stimulus.OpticalModel
	size    int
	checker int
}

// DegradedStimulus is one rendered stimulus plus the degradation actually
// applied to it. The ID ties a presented stimulus to trial records.
type DegradedStimulus struct {
	ID        core.StimulusID
	Frame     *imaging.Frame
	Intensity stimulus.Intensity
	Sigma     float64
}

// NewStimulusService creates a stimulus service from configuration
func NewStimulusService(cfg config.StimulusConfig) *StimulusService {
	return &StimulusService{
		optics: stimulus.OpticalModel{
			FrequencyLpmm: cfg.FrequencyLpmm,
			PixelSizeMM:   cfg.PixelSizeMM,
		},
		size:    cfg.PatternSize,
		checker: cfg.CheckerSize,
	}
}

// SigmaFor maps an intensity to its blur sigma after clamping.
func (s *StimulusService) SigmaFor(intensity float64) (stimulus.Intensity, float64) {
	clamped := stimulus.Intensity(intensity).Clamp()
	return clamped, stimulus.ComputeSigma(clamped)
}

// PhysicalSigmaFor maps an MTF percentage to a blur sigma in pixels via
// the calibrated optical model.
func (s *StimulusService) PhysicalSigmaFor(mtfPercent float64) (float64, error) {
	return s.optics.Sigma(mtfPercent)
}

// Degrade blurs an arbitrary frame down to the requested intensity.
func (s *StimulusService) Degrade(frame *imaging.Frame, intensity float64) (*DegradedStimulus, error) {
	clamped, sigma := s.SigmaFor(intensity)
	blurred, err := imaging.Blur(frame, sigma)
	if err != nil {
		return nil, err
	}
	return &DegradedStimulus{
		ID:        core.StimulusID(core.NewID()),
		Frame:     blurred,
		Intensity: clamped,
		Sigma:     sigma,
	}, nil
}

// RenderPreview generates the standard checkerboard pattern and degrades
// it to the requested intensity.
func (s *StimulusService) RenderPreview(intensity float64) (*DegradedStimulus, error) {
	pattern, err := imaging.Checkerboard(s.size, s.checker)
	if err != nil {
		return nil, err
	}
	return s.Degrade(pattern, intensity)
}
