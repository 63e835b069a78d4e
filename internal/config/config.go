package config

import "github.com/chidi150c/divergence-trader/internal/types"

// Config holds every runtime knob from spec §6. Populated by FromEnv(); never
// mutated after boot except BrokerConfig.APISecret-style fields nobody here
// needs, so the whole tree is read-only in practice.
type Config struct {
	TradingMode types.TradingMode

	Symbols    []string
	Timeframes []types.Timeframe

	AnalysisIntervalMinutes int
	PositionMonitorSeconds  int
	OutcomeTrackerMinutes   int
	LookbackCandles         int
	PayloadLookback         int

	Indicators IndicatorPeriods
	Risk       RiskConfig
	Validator  ValidatorConfig
	MultiTF    MultiTFConfig
	Execution  ExecutionConfig

	DefaultBrokerID string
	Brokers         map[string]BrokerConfig

	DatabaseDSN string
	Port        int
}

// IndicatorPeriods mirrors indicators.Periods but lives in config so the
// indicators package itself stays dependency-free of the config package.
type IndicatorPeriods struct {
	RSI        int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	StochK     int
	StochD     int
	MFI        int
	ATR        int
	ADX        int
	CCI        int
	WilliamsR  int
	EMAShort   int
	EMAMedium  int
	EMALong    int
	VolumeSMA  int
}

// RiskConfig holds the global risk knobs from spec §6, with an optional
// per-broker override layer.
type RiskConfig struct {
	MaxPositionPct       float64
	MaxDailyLossPct      float64
	MaxDrawdownPct       float64
	MaxOpenPositions     int
	MaxCorrelationExposure int
	MinRiskReward        float64
	MinConfidence        float64

	// BrokerOverrides keys on broker id; any zero-valued override field falls
	// back to the global value at lookup time via effective helpers below.
	BrokerOverrides map[string]RiskOverride
}

// RiskOverride overrides MinRiskReward/MinConfidence/MaxOpenPositions per
// broker (the three spec §6 calls out as broker-overridable).
type RiskOverride struct {
	MinRiskReward    *float64
	MinConfidence    *float64
	MaxOpenPositions *int
}

// EffectiveMinConfidence returns the per-broker confidence floor if set, else
// the global default — used by the analysis cycle's post-validation
// per-broker check (spec §4.10.g); the validator itself reads the global
// MinConfidence.
func (r RiskConfig) EffectiveMinConfidence(brokerID string) float64 {
	if o, ok := r.BrokerOverrides[brokerID]; ok && o.MinConfidence != nil {
		return *o.MinConfidence
	}
	return r.MinConfidence
}

// EffectiveMinRiskReward returns the per-broker R:R floor if set, else global.
func (r RiskConfig) EffectiveMinRiskReward(brokerID string) float64 {
	if o, ok := r.BrokerOverrides[brokerID]; ok && o.MinRiskReward != nil {
		return *o.MinRiskReward
	}
	return r.MinRiskReward
}

// EffectiveMaxOpenPositions returns the per-broker cap if set, else global.
func (r RiskConfig) EffectiveMaxOpenPositions(brokerID string) int {
	if o, ok := r.BrokerOverrides[brokerID]; ok && o.MaxOpenPositions != nil {
		return *o.MaxOpenPositions
	}
	return r.MaxOpenPositions
}

// ValidatorConfig holds the rule thresholds from spec §4.5/§6.
type ValidatorConfig struct {
	MinConfirmingIndicators int
	MinSwingBars4h          int
	MinSwingBars1h          int
	MinDivergenceMagnitudeRSI float64
	VolumeSMAPeriod         int
	VolumeLowThreshold      float64
	CandleGateLookback      int
}

// MultiTFConfig holds the §4.10 multi-timeframe knobs.
type MultiTFConfig struct {
	UseMultiTFConfirmation bool
	SetupExpiryHours       float64
}

// ExecutionConfig holds the §4.9 execution knobs.
type ExecutionConfig struct {
	TP1ClosePct float64
}

// InstrumentSpec holds the static per-symbol metadata spec §4.2 requires for
// `Instrument{...}` — asset class plus the pip/leverage fields
// `risk.SizePipBased` needs for the FX/index/commodity sizing path.
type InstrumentSpec struct {
	AssetClass      types.AssetClass
	PipSize         float64
	PipValuePerUnit float64
	MinUnits        float64
	MaxLeverage     float64
	BaseCurrency    string
}

// BrokerConfig holds the per-broker credentials/mode knobs from spec §6.
type BrokerConfig struct {
	ID             string
	Type           types.BrokerType
	APIKey         string
	APISecret      string
	Sandbox        bool
	StartingEquity float64
	Instruments    []string
	QuoteCurrency  string
	FeeRate        float64 // 0 for spread-based venues

	// DefaultInstrument is applied to every symbol in Instruments unless
	// InstrumentOverrides names that symbol explicitly — the same
	// default-plus-per-key-override layering RiskConfig.BrokerOverrides uses.
	DefaultInstrument   InstrumentSpec
	InstrumentOverrides map[string]InstrumentSpec

	// BaseURL is the venue's own REST endpoint for an HTTP-backed broker.
	// Empty for the paper broker, which has no venue of its own.
	BaseURL string

	// BridgeURL, when set, names a secondary data-source venue (mirrors the
	// teacher's BRIDGE_URL sidecar): a composite adapter is built that reads
	// OHLCV/ticker from the bridge while this broker's own adapter still
	// executes orders and reports balance, per spec §4.1.
	BridgeURL string
}

// InstrumentSpecFor resolves the effective InstrumentSpec for a symbol:
// InstrumentOverrides[symbol] if present, else DefaultInstrument.
func (b BrokerConfig) InstrumentSpecFor(symbol string) InstrumentSpec {
	if spec, ok := b.InstrumentOverrides[symbol]; ok {
		return spec
	}
	return b.DefaultInstrument
}

// FromEnv builds a Config from the process environment. Call LoadDotEnv()
// first if a .env file should seed it.
func FromEnv() Config {
	symbols := getEnvList("SYMBOLS", []string{"BTC-USD"})
	tfStrs := getEnvList("TIMEFRAMES", []string{"1h", "4h"})
	tfs := make([]types.Timeframe, len(tfStrs))
	for i, s := range tfStrs {
		tfs[i] = types.Timeframe(s)
	}

	defaultBroker := getEnv("DEFAULT_BROKER_ID", "paper")

	return Config{
		TradingMode: types.TradingMode(getEnv("TRADING_MODE", "paper")),

		Symbols:    symbols,
		Timeframes: tfs,

		AnalysisIntervalMinutes: getEnvInt("ANALYSIS_INTERVAL_MINUTES", 1),
		PositionMonitorSeconds:  getEnvInt("POSITION_MONITOR_SECONDS", 120),
		OutcomeTrackerMinutes:   getEnvInt("OUTCOME_TRACKER_MINUTES", 5),
		LookbackCandles:         getEnvInt("LOOKBACK_CANDLES", 200),
		PayloadLookback:         getEnvInt("PAYLOAD_LOOKBACK", 100),

		Indicators: IndicatorPeriods{
			RSI:        getEnvInt("RSI_PERIOD", 14),
			MACDFast:   getEnvInt("MACD_FAST", 12),
			MACDSlow:   getEnvInt("MACD_SLOW", 26),
			MACDSignal: getEnvInt("MACD_SIGNAL", 9),
			StochK:     getEnvInt("STOCH_K_PERIOD", 14),
			StochD:     getEnvInt("STOCH_D_PERIOD", 3),
			MFI:        getEnvInt("MFI_PERIOD", 14),
			ATR:        getEnvInt("ATR_PERIOD", 14),
			ADX:        getEnvInt("ADX_PERIOD", 14),
			CCI:        getEnvInt("CCI_PERIOD", 20),
			WilliamsR:  getEnvInt("WILLIAMS_R_PERIOD", 14),
			EMAShort:   getEnvInt("EMA_SHORT", 20),
			EMAMedium:  getEnvInt("EMA_MEDIUM", 50),
			EMALong:    getEnvInt("EMA_LONG", 200),
			VolumeSMA:  getEnvInt("VOLUME_SMA_PERIOD", 20),
		},

		Risk: RiskConfig{
			MaxPositionPct:         getEnvFloat("MAX_POSITION_PCT", 2.0),
			MaxDailyLossPct:        getEnvFloat("MAX_DAILY_LOSS_PCT", 5.0),
			MaxDrawdownPct:         getEnvFloat("MAX_DRAWDOWN_PCT", 15.0),
			MaxOpenPositions:       getEnvInt("MAX_OPEN_POSITIONS", 5),
			MaxCorrelationExposure: getEnvInt("MAX_CORRELATION_EXPOSURE", 3),
			MinRiskReward:          getEnvFloat("MIN_RISK_REWARD", 1.5),
			MinConfidence:          getEnvFloat("MIN_CONFIDENCE", 0.55),
			BrokerOverrides:        map[string]RiskOverride{},
		},

		Validator: ValidatorConfig{
			MinConfirmingIndicators:   getEnvInt("MIN_CONFIRMING_INDICATORS", 2),
			MinSwingBars4h:            getEnvInt("MIN_SWING_BARS_4H", 3),
			MinSwingBars1h:            getEnvInt("MIN_SWING_BARS_1H", 5),
			MinDivergenceMagnitudeRSI: getEnvFloat("MIN_DIVERGENCE_MAGNITUDE_RSI", 3.0),
			VolumeSMAPeriod:           getEnvInt("VOLUME_SMA_PERIOD", 20),
			VolumeLowThreshold:        getEnvFloat("VOLUME_LOW_THRESHOLD", 0.5),
			CandleGateLookback:        getEnvInt("CANDLE_GATE_LOOKBACK", 5),
		},

		MultiTF: MultiTFConfig{
			UseMultiTFConfirmation: getEnvBool("USE_MULTI_TF_CONFIRMATION", true),
			SetupExpiryHours:       getEnvFloat("SETUP_EXPIRY_HOURS", 12),
		},

		Execution: ExecutionConfig{
			TP1ClosePct: getEnvFloat("TP1_CLOSE_PCT", 0.5),
		},

		DefaultBrokerID: defaultBroker,
		Brokers: map[string]BrokerConfig{
			defaultBroker: {
				ID:             defaultBroker,
				Type:           types.BrokerType(getEnv("BROKER_TYPE", string(types.BrokerPaper))),
				APIKey:         getEnv("BROKER_API_KEY", ""),
				APISecret:      getEnv("BROKER_API_SECRET", ""),
				Sandbox:        getEnvBool("BROKER_SANDBOX", true),
				StartingEquity: getEnvFloat("STARTING_EQUITY", 10000),
				Instruments:    symbols,
				QuoteCurrency:  "USD",
				FeeRate:        getEnvFloat("FEE_RATE", 0.001),
				BaseURL:        getEnv("BROKER_BASE_URL", ""),
				BridgeURL:      getEnv("BRIDGE_URL", ""),
				DefaultInstrument: InstrumentSpec{
					AssetClass:      types.AssetClass(getEnv("BROKER_ASSET_CLASS", string(types.Crypto))),
					PipSize:         getEnvFloat("BROKER_PIP_SIZE", 0.01),
					PipValuePerUnit: getEnvFloat("BROKER_PIP_VALUE_PER_UNIT", 0.01),
					MinUnits:        getEnvFloat("BROKER_MIN_UNITS", 0),
					MaxLeverage:     getEnvFloat("BROKER_MAX_LEVERAGE", 1),
					BaseCurrency:    getEnv("BROKER_BASE_CURRENCY", ""),
				},
			},
		},

		DatabaseDSN: getEnv("DATABASE_DSN", ""),
		Port:        getEnvInt("PORT", 8080),
	}
}
