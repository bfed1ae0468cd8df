package capture

import "testing"

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Expected default config to validate, got %v", errs)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("Expected 640x480 default, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative device", func(c *Config) { c.Device = -1 }},
		{"width too small", func(c *Config) { c.Width = 100 }},
		{"width too large", func(c *Config) { c.Width = MaxWidth + 1 }},
		{"height too small", func(c *Config) { c.Height = 80 }},
		{"height too large", func(c *Config) { c.Height = MaxHeight + 1 }},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }},
		{"framerate too high", func(c *Config) { c.Framerate = 240 }},
		{"zero quality", func(c *Config) { c.Quality = 0 }},
		{"quality over 100", func(c *Config) { c.Quality = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if errs := cfg.Validate(); len(errs) == 0 {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
