package compositor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigKeepsDefaults(t *testing.T) {
	c, err := ParseConfig([]byte("workers = 3\n[glyph_cache]\nlayers = 4\n"))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if c.Workers != 3 || c.GlyphCache.Layers != 4 {
		t.Errorf("parsed = %+v", c)
	}
	d := DefaultConfig()
	if c.DevicePixelRatio != d.DevicePixelRatio || c.GlyphCache.AtlasSize != d.GlyphCache.AtlasSize {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "colour = 1\n"},
		{"syntax", "workers = \n"},
		{"zero dpr", "device_pixel_ratio = 0.0\n"},
		{"small atlas", "[glyph_cache]\natlas_size = 16\n"},
		{"clear color", "clear_color = [2.0, 0.0, 0.0, 1.0]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.doc)); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ParseConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.toml")
	doc := "dither = false\n[debug]\nenabled = true\naddr = \"127.0.0.1:0\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if c.Dither || !c.Debug.Enabled || c.Debug.Addr != "127.0.0.1:0" {
		t.Errorf("LoadConfig() = %+v", c)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) error = %v, want ErrNotExist", err)
	}
}

func TestConfigMarshal(t *testing.T) {
	data, err := DefaultConfig().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig(Marshal()) error = %v", err)
	}
	if c != DefaultConfig() {
		t.Errorf("decoded = %+v, want %+v", c, DefaultConfig())
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	WithDevicePixelRatio(-1)(&o)
	if o.dpr != 1 {
		t.Errorf("dpr = %v after a negative ratio, want 1", o.dpr)
	}
	WithDevicePixelRatio(2)(&o)
	WithDither(false)(&o)
	WithDebugServer("")(&o)
	if o.dpr != 2 || o.dither || !o.debug || o.debugAddr != "" {
		t.Errorf("options = %+v", o)
	}

	c := DefaultConfig()
	c.Workers = 7
	WithConfig(c)(&o)
	if o.workers != 7 || o.dpr != 1 || o.debug {
		t.Errorf("WithConfig() options = %+v", o)
	}
}
