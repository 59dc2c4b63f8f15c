package product

// Params are the processing parameters that shape the output product. The
// zero value is not useful; start from DefaultParams.
type Params struct {
	// FrameID constrains processing to a fixed frame footprint. Negative
	// means unconstrained, which is a non-standard configuration.
	FrameID int `json:"frameID"`

	EstimateIonosphereDelay bool `json:"estimateIonosphereDelay"`
	ComputeSolidEarthTide   bool `json:"computeSolidEarthTide"`
	DoDenseOffsets          bool `json:"doDenseOffsets"`
	UnfilteredCoherence     bool `json:"unfilteredCoherence"`
	WrappedPhaseLayer       bool `json:"wrappedPhaseLayer"`

	// ESDCoherenceThreshold of -1 disables enhanced spectral diversity.
	ESDCoherenceThreshold float64 `json:"esdCoherenceThreshold"`
	GoldsteinFilterPower  float64 `json:"goldsteinFilterPower"`

	// OutputResolution in meters.
	OutputResolution int `json:"outputResolution"`
}

func DefaultParams() Params {
	return Params{
		FrameID:                 -1,
		EstimateIonosphereDelay: true,
		ComputeSolidEarthTide:   true,
		UnfilteredCoherence:     true,
		ESDCoherenceThreshold:   -1,
		GoldsteinFilterPower:    0.5,
		OutputResolution:        90,
	}
}

// Standard reports whether the parameter set matches the fixed recipe of
// the operational product line. Anything else is a custom product and must
// announce itself in the identifier prefix.
func (p Params) Standard() bool {
	return p.FrameID >= 0 &&
		p.EstimateIonosphereDelay &&
		p.ComputeSolidEarthTide &&
		!p.DoDenseOffsets &&
		p.UnfilteredCoherence &&
		!p.WrappedPhaseLayer &&
		p.ESDCoherenceThreshold == -1 &&
		p.GoldsteinFilterPower == 0.5 &&
		p.OutputResolution == 90
}
