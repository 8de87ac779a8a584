package config

import "flag"

// Flags holds command-line overrides. Zero values leave the loaded config untouched.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	AtlasSize  int
	MaxTiles   int
	ReversedZ  bool
}

// BindFlags registers the shared overrides on fs. Parse fs before calling Load.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{MaxTiles: -1}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file (rotated)")
	fs.IntVar(&f.AtlasSize, "atlas", 0, "Atlas edge length in texels")
	fs.IntVar(&f.MaxTiles, "max-tiles", -1, "Shadow tile slots (0 = unbounded)")
	fs.BoolVar(&f.ReversedZ, "reversed-z", false, "Clip depth is reversed")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.AtlasSize > 0 {
		cfg.Atlas.Size = f.AtlasSize
	}
	if f.MaxTiles >= 0 {
		cfg.Atlas.MaxTiles = f.MaxTiles
	}
	if f.ReversedZ {
		cfg.Atlas.ReversedZ = true
	}
}
