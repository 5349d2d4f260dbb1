// SPDX-License-Identifier: MIT

package config

import "time"

// mergeFileConfig overlays the YAML file values onto cfg. Only values the
// file actually sets are applied, so defaults survive partial files.
func mergeFileConfig(cfg *AppConfig, file *FileConfig) {
	if file == nil {
		return
	}

	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogService != "" {
		cfg.LogService = file.LogService
	}

	if file.Strategy != "" {
		cfg.Run.Strategy = file.Strategy
	}
	if file.Columns.Lat != "" {
		cfg.Run.LatColumn = file.Columns.Lat
	}
	if file.Columns.Lon != "" {
		cfg.Run.LonColumn = file.Columns.Lon
	}
	if file.Columns.Alt != "" {
		cfg.Run.AltColumn = file.Columns.Alt
	}
	if file.Decimals != nil {
		cfg.Run.Decimals = *file.Decimals
	}
	if file.OnError != "" {
		cfg.Run.OnError = file.OnError
	}
	if file.Seed != nil {
		cfg.Run.Seed = *file.Seed
	}
	if file.Validate != nil {
		cfg.Run.Validate = *file.Validate
	}
	if file.Fence.Path != "" {
		cfg.Run.FencePath = file.Fence.Path
	}
	if file.Fence.Policy != "" {
		cfg.Run.FencePolicy = file.Fence.Policy
	}

	if s := file.Store; s != nil {
		if s.Backend != "" {
			cfg.Store.Backend = s.Backend
		}
		if s.Dir != "" {
			cfg.Store.Dir = s.Dir
		}
		if r := s.Redis; r != nil {
			if r.Addr != "" {
				cfg.Store.Redis.Addr = r.Addr
			}
			if r.Password != "" {
				cfg.Store.Redis.Password = r.Password
			}
			if r.DB != nil {
				cfg.Store.Redis.DB = *r.DB
			}
		}
	}

	if h := file.History; h != nil {
		if h.Path != "" {
			cfg.History.Path = h.Path
		}
		if h.Keep != nil {
			cfg.History.Keep = *h.Keep
		}
	}

	if a := file.API; a != nil {
		if a.ListenAddr != "" {
			cfg.API.ListenAddr = a.ListenAddr
		}
		if a.Token != "" {
			cfg.API.Token = a.Token
		}
		if a.Anonymous != nil {
			cfg.API.Anonymous = *a.Anonymous
		}
		if a.MaxConns != nil {
			cfg.API.MaxConns = *a.MaxConns
		}
		if a.BodyLimit != nil {
			cfg.API.BodyLimit = *a.BodyLimit
		}
		if rl := a.RateLimit; rl != nil {
			if rl.Enabled != nil {
				cfg.API.RateLimit.Enabled = *rl.Enabled
			}
			if rl.RPS != nil {
				cfg.API.RateLimit.RPS = *rl.RPS
			}
			if rl.Burst != nil {
				cfg.API.RateLimit.Burst = *rl.Burst
			}
		}
	}

	if m := file.Metrics; m != nil && m.Enabled != nil {
		cfg.Metrics.Enabled = *m.Enabled
	}

	if tel := file.Telemetry; tel != nil {
		if tel.Enabled != nil {
			cfg.Telemetry.Enabled = *tel.Enabled
		}
		if tel.Endpoint != "" {
			cfg.Telemetry.Endpoint = tel.Endpoint
		}
		if tel.Protocol != "" {
			cfg.Telemetry.Protocol = tel.Protocol
		}
		if tel.Insecure != nil {
			cfg.Telemetry.Insecure = *tel.Insecure
		}
		if tel.SampleRatio != nil {
			cfg.Telemetry.SampleRatio = *tel.SampleRatio
		}
	}

	if w := file.Watch; w != nil {
		if w.Enabled != nil {
			cfg.Watch.Enabled = *w.Enabled
		}
		if w.Dir != "" {
			cfg.Watch.Dir = w.Dir
		}
		if w.OutDir != "" {
			cfg.Watch.OutDir = w.OutDir
		}
		if w.Pattern != "" {
			cfg.Watch.Pattern = w.Pattern
		}
		if w.Settle != "" {
			if d, err := time.ParseDuration(w.Settle); err == nil {
				cfg.Watch.Settle = d
			}
		}
	}

	if s := file.Sink; s != nil && s.PostGIS != nil {
		if s.PostGIS.DSN != "" {
			cfg.Sink.PostGIS.DSN = s.PostGIS.DSN
		}
		if s.PostGIS.Table != "" {
			cfg.Sink.PostGIS.Table = s.PostGIS.Table
		}
	}
}
