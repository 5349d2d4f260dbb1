// SPDX-License-Identifier: MIT

package config

// Environment variable keys. All runtime overrides share the GEOANON_ prefix.
const (
	EnvDataDir    = "GEOANON_DATA_DIR"
	EnvLogLevel   = "GEOANON_LOG_LEVEL"
	EnvLogService = "GEOANON_LOG_SERVICE"

	EnvStrategy  = "GEOANON_STRATEGY"
	EnvLatColumn = "GEOANON_LAT_COLUMN"
	EnvLonColumn = "GEOANON_LON_COLUMN"
	EnvAltColumn = "GEOANON_ALT_COLUMN"
	EnvDecimals  = "GEOANON_DECIMALS"
	EnvOnError   = "GEOANON_ON_ERROR"
	EnvSeed      = "GEOANON_SEED"
	EnvValidate  = "GEOANON_VALIDATE"

	EnvFencePath   = "GEOANON_FENCE"
	EnvFencePolicy = "GEOANON_FENCE_POLICY"

	EnvStoreBackend  = "GEOANON_STORE_BACKEND"
	EnvStoreDir      = "GEOANON_STORE_DIR"
	EnvRedisAddr     = "GEOANON_REDIS_ADDR"
	EnvRedisPassword = "GEOANON_REDIS_PASSWORD"
	EnvRedisDB       = "GEOANON_REDIS_DB"

	EnvHistoryPath = "GEOANON_HISTORY_PATH"
	EnvHistoryKeep = "GEOANON_HISTORY_KEEP"

	EnvAPIListen        = "GEOANON_API_LISTEN"
	EnvAPIToken         = "GEOANON_API_TOKEN"
	EnvAPIAnonymous     = "GEOANON_API_ANONYMOUS"
	EnvAPIMaxConns      = "GEOANON_API_MAX_CONNS"
	EnvAPIBodyLimit     = "GEOANON_API_BODY_LIMIT"
	EnvRateLimitEnabled = "GEOANON_RATE_LIMIT_ENABLED"
	EnvRateLimitRPS     = "GEOANON_RATE_LIMIT_RPS"
	EnvRateLimitBurst   = "GEOANON_RATE_LIMIT_BURST"

	EnvMetricsEnabled = "GEOANON_METRICS_ENABLED"

	EnvOTELEnabled     = "GEOANON_OTEL_ENABLED"
	EnvOTELEndpoint    = "GEOANON_OTEL_ENDPOINT"
	EnvOTELProtocol    = "GEOANON_OTEL_PROTOCOL"
	EnvOTELInsecure    = "GEOANON_OTEL_INSECURE"
	EnvOTELSampleRatio = "GEOANON_OTEL_SAMPLE_RATIO"

	EnvWatchEnabled = "GEOANON_WATCH_ENABLED"
	EnvWatchDir     = "GEOANON_WATCH_DIR"
	EnvWatchOut     = "GEOANON_WATCH_OUT"
	EnvWatchPattern = "GEOANON_WATCH_PATTERN"
	EnvWatchSettle  = "GEOANON_WATCH_SETTLE"

	EnvPostGISDSN   = "GEOANON_POSTGIS_DSN"
	EnvPostGISTable = "GEOANON_POSTGIS_TABLE"
)

// mergeEnvConfig overlays GEOANON_* environment variables onto cfg.
// Environment wins over both defaults and the config file.
func mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = ParseString(EnvDataDir, cfg.DataDir)
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = ParseString(EnvLogService, cfg.LogService)

	cfg.Run.Strategy = ParseString(EnvStrategy, cfg.Run.Strategy)
	cfg.Run.LatColumn = ParseString(EnvLatColumn, cfg.Run.LatColumn)
	cfg.Run.LonColumn = ParseString(EnvLonColumn, cfg.Run.LonColumn)
	cfg.Run.AltColumn = ParseString(EnvAltColumn, cfg.Run.AltColumn)
	cfg.Run.Decimals = ParseInt(EnvDecimals, cfg.Run.Decimals)
	cfg.Run.OnError = ParseString(EnvOnError, cfg.Run.OnError)
	cfg.Run.Seed = ParseInt64(EnvSeed, cfg.Run.Seed)
	cfg.Run.Validate = ParseBool(EnvValidate, cfg.Run.Validate)
	cfg.Run.FencePath = ParseString(EnvFencePath, cfg.Run.FencePath)
	cfg.Run.FencePolicy = ParseString(EnvFencePolicy, cfg.Run.FencePolicy)

	cfg.Store.Backend = ParseString(EnvStoreBackend, cfg.Store.Backend)
	cfg.Store.Dir = ParseString(EnvStoreDir, cfg.Store.Dir)
	cfg.Store.Redis.Addr = ParseString(EnvRedisAddr, cfg.Store.Redis.Addr)
	cfg.Store.Redis.Password = ParseString(EnvRedisPassword, cfg.Store.Redis.Password)
	cfg.Store.Redis.DB = ParseInt(EnvRedisDB, cfg.Store.Redis.DB)

	cfg.History.Path = ParseString(EnvHistoryPath, cfg.History.Path)
	cfg.History.Keep = ParseInt(EnvHistoryKeep, cfg.History.Keep)

	cfg.API.ListenAddr = ParseString(EnvAPIListen, cfg.API.ListenAddr)
	cfg.API.Token = ParseString(EnvAPIToken, cfg.API.Token)
	cfg.API.Anonymous = ParseBool(EnvAPIAnonymous, cfg.API.Anonymous)
	cfg.API.MaxConns = ParseInt(EnvAPIMaxConns, cfg.API.MaxConns)
	cfg.API.BodyLimit = ParseInt64(EnvAPIBodyLimit, cfg.API.BodyLimit)
	cfg.API.RateLimit.Enabled = ParseBool(EnvRateLimitEnabled, cfg.API.RateLimit.Enabled)
	cfg.API.RateLimit.RPS = ParseInt(EnvRateLimitRPS, cfg.API.RateLimit.RPS)
	cfg.API.RateLimit.Burst = ParseInt(EnvRateLimitBurst, cfg.API.RateLimit.Burst)

	cfg.Metrics.Enabled = ParseBool(EnvMetricsEnabled, cfg.Metrics.Enabled)

	cfg.Telemetry.Enabled = ParseBool(EnvOTELEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = ParseString(EnvOTELEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Protocol = ParseString(EnvOTELProtocol, cfg.Telemetry.Protocol)
	cfg.Telemetry.Insecure = ParseBool(EnvOTELInsecure, cfg.Telemetry.Insecure)
	cfg.Telemetry.SampleRatio = ParseFloat(EnvOTELSampleRatio, cfg.Telemetry.SampleRatio)

	cfg.Watch.Enabled = ParseBool(EnvWatchEnabled, cfg.Watch.Enabled)
	cfg.Watch.Dir = ParseString(EnvWatchDir, cfg.Watch.Dir)
	cfg.Watch.OutDir = ParseString(EnvWatchOut, cfg.Watch.OutDir)
	cfg.Watch.Pattern = ParseString(EnvWatchPattern, cfg.Watch.Pattern)
	cfg.Watch.Settle = ParseDuration(EnvWatchSettle, cfg.Watch.Settle)

	cfg.Sink.PostGIS.DSN = ParseString(EnvPostGISDSN, cfg.Sink.PostGIS.DSN)
	cfg.Sink.PostGIS.Table = ParseString(EnvPostGISTable, cfg.Sink.PostGIS.Table)
}
