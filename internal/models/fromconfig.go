package models

import (
	"mammosim/pkg/config"
	"mammosim/pkg/phantom"
	"mammosim/pkg/projector"
	"mammosim/pkg/sinogram"
)

// AcquisitionFromConfig builds projector parameters from configuration
func AcquisitionFromConfig(cfg *config.Config) projector.Params {
	return projector.Params{
		SIDMM:            cfg.Acquisition.SIDMM,
		SDDMM:            cfg.Acquisition.SDDMM,
		AngleDeg:         cfg.Acquisition.AngleDeg,
		KVP:              cfg.Acquisition.KVP,
		ExposureS:        cfg.Acquisition.ExposureS,
		FiltrationMM:     cfg.Acquisition.FiltrationMM,
		DetectorOffsetMM: cfg.Acquisition.DetectorOffsetMM,
		GridRatio:        cfg.Acquisition.GridRatio,
		GridOn:           cfg.Acquisition.GridOn,
	}
}

// PhantomFromConfig builds phantom options from configuration
func PhantomFromConfig(cfg *config.Config) phantom.Options {
	return phantom.Options{
		Width:                 cfg.Phantom.Width,
		Height:                cfg.Phantom.Height,
		LesionRadiusPx:        cfg.Phantom.LesionRadiusPx,
		IncludeLesion:         cfg.Phantom.IncludeLesion,
		IncludeCalcifications: cfg.Phantom.IncludeCalcifications,
		IncludeBenign:         cfg.Phantom.IncludeBenign,
		Compression:           cfg.Phantom.Compression,
		CompressionFactor:     cfg.Phantom.CompressionFactor,
		Seed:                  cfg.Phantom.Seed,
	}
}

// SweepFromConfig builds sinogram sweep options from configuration.
// Progress reporting is attached by the caller.
func SweepFromConfig(cfg *config.Config) sinogram.Options {
	return sinogram.Options{
		Acquisition: AcquisitionFromConfig(cfg),
		StepDeg:     cfg.Sinogram.StepDeg,
		Workers:     cfg.Sinogram.Workers,
	}
}
