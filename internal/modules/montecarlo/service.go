package montecarlo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/tailrisk/internal/config"
	"github.com/aristath/tailrisk/internal/utils"
)

// SingleAssetRequest asks for a single-asset simulation and its tail estimate.
type SingleAssetRequest struct {
	ScenarioParameters
	Scenarios int     `json:"scenarios"`
	Alpha     float64 `json:"alpha"`
	Seed      uint64  `json:"seed"`
}

// SingleAssetResult holds the simulated P&L, log-returns and the tail
// estimate of the implied losses.
type SingleAssetResult struct {
	Seed       uint64       `json:"seed"`
	PnL        []float64    `json:"pnl"`
	LogReturns []float64    `json:"log_returns"`
	Tail       TailEstimate `json:"tail"`
}

// PortfolioRequest asks for a correlated portfolio simulation.
type PortfolioRequest struct {
	Weights           []float64   `json:"weights"`
	InitialPrices     []float64   `json:"initial_prices"`
	Drifts            []float64   `json:"drifts"`
	Volatilities      []float64   `json:"volatilities"`
	Correlation       [][]float64 `json:"correlation"`
	TimeStep          float64     `json:"time_step"`
	Scenarios         int         `json:"scenarios"`
	Alpha             float64     `json:"alpha"`
	Seed              uint64      `json:"seed"`
	IncludeLogReturns bool        `json:"include_log_returns"`
}

// PortfolioResult holds portfolio losses and their tail estimate.
type PortfolioResult struct {
	Seed       uint64       `json:"seed"`
	Losses     LossSample   `json:"losses"`
	LogReturns [][]float64  `json:"log_returns,omitempty"`
	Tail       TailEstimate `json:"tail"`
}

// EstimateRequest asks for VaR and ES of an existing loss sample.
type EstimateRequest struct {
	Losses LossSample `json:"losses"`
	Alpha  float64    `json:"alpha"`
}

// BootstrapRequest asks for a bootstrap interval around the VaR of a loss sample.
type BootstrapRequest struct {
	Losses    LossSample `json:"losses"`
	Alpha     float64    `json:"alpha"`
	Resamples int        `json:"resamples"`
	Coverage  float64    `json:"coverage"`
	Seed      uint64     `json:"seed"`
}

// BootstrapResponse wraps a bootstrap result with the seed that produced it.
type BootstrapResponse struct {
	Seed uint64 `json:"seed"`
	BootstrapResult
	Reliable bool `json:"reliable"`
}

// Service runs simulations with configured defaults, seeding and limits.
type Service struct {
	cfg config.SimulationConfig
	log zerolog.Logger
}

// NewService creates a Monte Carlo service.
func NewService(cfg config.SimulationConfig, log zerolog.Logger) *Service {
	return &Service{
		cfg: cfg,
		log: log.With().Str("component", "montecarlo").Logger(),
	}
}

func (s *Service) seed(requested uint64) uint64 {
	if requested != 0 {
		return requested
	}
	if s.cfg.Seed != 0 {
		return s.cfg.Seed
	}
	return TimeSeed()
}

func (s *Service) scenarios(requested int) (int, error) {
	if requested == 0 {
		requested = s.cfg.Scenarios
	}
	if requested < 0 || (s.cfg.MaxScenarios > 0 && requested > s.cfg.MaxScenarios) {
		return 0, fmt.Errorf("%w: scenario count %d outside [1, %d]", ErrInvalidParameter, requested, s.cfg.MaxScenarios)
	}
	return requested, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// SingleAsset simulates one asset and estimates VaR/ES of its losses.
func (s *Service) SingleAsset(req SingleAssetRequest) (*SingleAssetResult, error) {
	n, err := s.scenarios(req.Scenarios)
	if err != nil {
		return nil, err
	}
	seed := s.seed(req.Seed)
	alpha := orDefault(req.Alpha, DefaultAlpha)

	timer := utils.NewRunTimer("simulate_single_asset", s.log)
	pnl, logReturns, err := SimulateSingleAssetReturns(NewSource(seed), req.ScenarioParameters, n)
	if err != nil {
		return nil, err
	}
	tail, err := ExpectedShortfall(LossesFromPnL(pnl), alpha)
	if err != nil {
		return nil, err
	}
	timer.Stop(n)
	s.logTail(tail, seed)

	return &SingleAssetResult{Seed: seed, PnL: pnl, LogReturns: logReturns, Tail: tail}, nil
}

// Portfolio simulates a correlated portfolio and estimates VaR/ES of its losses.
func (s *Service) Portfolio(req PortfolioRequest) (*PortfolioResult, error) {
	n, err := s.scenarios(req.Scenarios)
	if err != nil {
		return nil, err
	}
	corr, err := CorrelationFromRows(req.Correlation)
	if err != nil {
		return nil, err
	}
	seed := s.seed(req.Seed)
	alpha := orDefault(req.Alpha, DefaultAlpha)

	timer := utils.NewRunTimer("simulate_portfolio", s.log)
	scenarios, err := SimulatePortfolioScenarios(NewSource(seed), PortfolioParameters{
		Weights:       req.Weights,
		InitialPrices: req.InitialPrices,
		Drifts:        req.Drifts,
		Volatilities:  req.Volatilities,
		Correlation:   corr,
		TimeStep:      req.TimeStep,
	}, n)
	if err != nil {
		s.log.Warn().Err(err).Int("assets", len(req.Volatilities)).Msg("Portfolio simulation rejected")
		return nil, err
	}
	tail, err := ExpectedShortfall(scenarios.Losses, alpha)
	if err != nil {
		return nil, err
	}
	timer.Stop(n * corr.SymmetricDim())
	s.logTail(tail, seed)

	result := &PortfolioResult{Seed: seed, Losses: scenarios.Losses, Tail: tail}
	if req.IncludeLogReturns {
		result.LogReturns = denseRows(scenarios.LogReturns)
	}
	return result, nil
}

// Estimate computes VaR and ES of a supplied loss sample.
func (s *Service) Estimate(req EstimateRequest) (TailEstimate, error) {
	tail, err := ExpectedShortfall(req.Losses, orDefault(req.Alpha, DefaultAlpha))
	if err != nil {
		return TailEstimate{}, err
	}
	s.logTail(tail, 0)
	return tail, nil
}

// Bootstrap computes a VaR confidence interval on the configured number of
// workers. The interval depends only on the request and its seed.
func (s *Service) Bootstrap(ctx context.Context, req BootstrapRequest) (*BootstrapResponse, error) {
	resamples := req.Resamples
	if resamples == 0 {
		resamples = s.cfg.Resamples
	}
	if s.cfg.MaxResamples > 0 && resamples > s.cfg.MaxResamples {
		return nil, fmt.Errorf("%w: resample count %d exceeds limit %d", ErrInvalidParameter, resamples, s.cfg.MaxResamples)
	}
	alpha := orDefault(req.Alpha, DefaultBootstrapAlpha)
	coverage := orDefault(req.Coverage, DefaultCoverage)
	seed := s.seed(req.Seed)

	if resamples > 0 && resamples < MinReliableResamples {
		s.log.Warn().
			Int("resamples", resamples).
			Int("recommended_min", MinReliableResamples).
			Msg("Bootstrap resample count is too small for a reliable interval")
	}

	timer := utils.NewRunTimer("bootstrap_var_ci", s.log)
	result, err := ParallelBootstrapVaRCI(ctx, seed, req.Losses, alpha, resamples, coverage, s.cfg.BootstrapWorkers)
	if err != nil {
		return nil, err
	}
	timer.Stop(resamples * len(req.Losses))

	s.log.Info().
		Uint64("seed", seed).
		Float64("alpha", alpha).
		Float64("lower", result.Lower).
		Float64("upper", result.Upper).
		Int("resamples", resamples).
		Msg("Bootstrap interval computed")

	return &BootstrapResponse{
		Seed:            seed,
		BootstrapResult: *result,
		Reliable:        resamples >= MinReliableResamples,
	}, nil
}

func (s *Service) logTail(tail TailEstimate, seed uint64) {
	if tail.Fallback {
		s.log.Debug().
			Float64("alpha", tail.Alpha).
			Float64("var", tail.VaR).
			Msg("Empty tail, expected shortfall falls back to VaR")
	}
	s.log.Info().
		Uint64("seed", seed).
		Float64("alpha", tail.Alpha).
		Float64("var", tail.VaR).
		Float64("es", tail.ES).
		Int("tail_size", tail.TailSize).
		Msg("Tail risk estimated")
}

func denseRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
