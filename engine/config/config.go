package config

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Log         LogConfig         `toml:"log"`
	Renderer    RendererConfig    `toml:"renderer"`
	Cycle       CycleConfig       `toml:"cycle"`
}

type ApplicationConfig struct {
	// The application name used in windowing and as the Vulkan application name.
	Name string `toml:"name"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height uint32 `toml:"height"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type RendererConfig struct {
	// Enables VK_LAYER_KHRONOS_validation and the debug report callback.
	Validation bool `toml:"validation"`
	// Use MAILBOX presentation when the surface offers it, FIFO otherwise.
	PreferMailbox bool `toml:"prefer_mailbox"`
	// RGBA clear color of the render pass.
	ClearColor [4]float32 `toml:"clear_color"`
	// Directory holding triangle.vert.spv and triangle.frag.spv.
	ShaderDir string `toml:"shader_dir"`
	// Upper bound for a single fence wait.
	FenceTimeoutMS uint32 `toml:"fence_timeout_ms"`
}

// CycleConfig bounds the duration of one animation cycle. The host picks a
// value between the two depending on the cursor position.
type CycleConfig struct {
	MinMS float32 `toml:"min_ms"`
	MaxMS float32 `toml:"max_ms"`
}

func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "Phase",
			Width:  600,
			Height: 600,
		},
		Log: LogConfig{
			Level: "info",
		},
		Renderer: RendererConfig{
			Validation:     false,
			PreferMailbox:  true,
			ClearColor:     [4]float32{0.0, 0.0, 0.2, 1.0},
			ShaderDir:      "shaders",
			FenceTimeoutMS: 1000,
		},
		Cycle: CycleConfig{
			MinMS: 500,
			MaxMS: 5000,
		},
	}
}

// Load reads a TOML file on top of the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding toml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return errors.Newf("application size must be positive, got %dx%d", c.Application.Width, c.Application.Height)
	}
	if c.Renderer.ShaderDir == "" {
		return errors.New("renderer.shader_dir must not be empty")
	}
	if c.Renderer.FenceTimeoutMS == 0 {
		return errors.New("renderer.fence_timeout_ms must be positive")
	}
	if c.Cycle.MinMS <= 0 || c.Cycle.MaxMS < c.Cycle.MinMS {
		return errors.Newf("cycle bounds must satisfy 0 < min_ms <= max_ms, got %v/%v", c.Cycle.MinMS, c.Cycle.MaxMS)
	}
	for _, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return errors.Newf("renderer.clear_color components must be in [0,1], got %v", c.Renderer.ClearColor)
		}
	}
	return nil
}

// Marshal renders the configuration back to TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// LoadOrCreate loads path, writing the defaults there first when the file
// does not exist yet.
func LoadOrCreate(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err == nil {
		return Load(path)
	}
	if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking config %s", path)
	}
	cfg := Default()
	data, err := cfg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "encoding default config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing default config %s", path)
	}
	return cfg, nil
}
