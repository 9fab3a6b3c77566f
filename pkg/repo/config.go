package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/knyt/pkg/object"
)

const configFileName = "config.toml"

// Config stores repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig is the single identity used for author and committer.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig holds repository layout settings.
type CoreConfig struct {
	DefaultBranch string `toml:"default_branch"`
	IgnoreFile    string `toml:"ignore_file"`
}

// DefaultConfig returns the settings used when config.toml is absent or
// leaves a field empty.
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{Name: "knyt", Email: "you@example.com"},
		Core: CoreConfig{DefaultBranch: "main", IgnoreFile: ".knytignore"},
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if strings.TrimSpace(c.User.Name) == "" {
		c.User.Name = def.User.Name
	}
	if strings.TrimSpace(c.User.Email) == "" {
		c.User.Email = def.User.Email
	}
	if strings.TrimSpace(c.Core.DefaultBranch) == "" {
		c.Core.DefaultBranch = def.Core.DefaultBranch
	}
	if strings.TrimSpace(c.Core.IgnoreFile) == "" {
		c.Core.IgnoreFile = def.Core.IgnoreFile
	}
}

// signature returns the configured identity at the given unix time.
func (c *Config) signature(unix int64) object.Signature {
	return object.Signature{
		Name:   c.User.Name,
		Email:  c.User.Email,
		When:   unix,
		Offset: "+0000",
	}
}

func configPath(knytDir string) string {
	return filepath.Join(knytDir, configFileName)
}

// readConfig reads .knyt/config.toml. A missing file yields the defaults.
func readConfig(knytDir string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(configPath(knytDir), cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, ioErr("read config", err)
		}
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// WriteConfig atomically writes .knyt/config.toml and updates r.Config.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.fillDefaults()
	if err := writeConfigFile(r.KnytDir, cfg); err != nil {
		return err
	}
	r.Config = cfg
	return nil
}

func writeConfigFile(knytDir string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := writeFileAtomic(configPath(knytDir), buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-tmp-*")
	if err != nil {
		return ioErr("tmpfile", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ioErr("write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ioErr("close", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return ioErr("chmod", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ioErr("rename", err)
	}
	return nil
}
