package montecarlo

// Default confidence levels and resample count.
const (
	DefaultAlpha          = 0.95
	DefaultBootstrapAlpha = 0.99
	DefaultResamples      = 1000
	DefaultCoverage       = 0.95

	// MinReliableResamples is the resample count below which a bootstrap
	// interval is considered statistically unreliable. It is advisory only.
	MinReliableResamples = 30
)

// ScenarioParameters describes one asset under a one-step GBM model.
type ScenarioParameters struct {
	InitialPrice float64 `json:"initial_price"`
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`
	TimeStep     float64 `json:"time_step"`
}

// LossSample is a sequence of simulated losses. Positive values are losses
// (negative P&L). A sample is never modified after it is returned.
type LossSample []float64

// Len returns the number of losses in the sample.
func (s LossSample) Len() int { return len(s) }

// TailEstimate pairs a VaR with the Expected Shortfall computed beyond it.
type TailEstimate struct {
	Alpha    float64 `json:"alpha"`
	VaR      float64 `json:"var"`
	ES       float64 `json:"es"`
	TailSize int     `json:"tail_size"`
	// Fallback is true when no loss reached the VaR threshold and ES was
	// reported as the VaR itself.
	Fallback bool `json:"fallback"`
}

// BootstrapResult holds a bootstrap confidence interval for VaR and the
// distribution of resampled VaR estimates it was derived from.
type BootstrapResult struct {
	Alpha        float64   `json:"alpha"`
	Coverage     float64   `json:"coverage"`
	Resamples    int       `json:"resamples"`
	Lower        float64   `json:"lower"`
	Upper        float64   `json:"upper"`
	Distribution []float64 `json:"distribution"`
}
