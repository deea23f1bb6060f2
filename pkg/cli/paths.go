package cli

import (
	"os"
	"path/filepath"
)

// Paths locates bodyview files under ~/.giztoy/bodyview.
type Paths struct {
	HomeDir string
}

// NewPaths returns Paths for the current user.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// AppDir returns ~/.giztoy/bodyview.
func (p *Paths) AppDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir, AppName)
}

// ConfigFile returns ~/.giztoy/bodyview/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// PrefsDir returns the default badger directory for viewer preferences.
func (p *Paths) PrefsDir() string {
	return filepath.Join(p.AppDir(), "prefs")
}

// BindingsFile returns the default gesture and voice bindings file. It is
// only read when it exists.
func (p *Paths) BindingsFile() string {
	return filepath.Join(p.AppDir(), "bindings.yaml")
}

// ExpandHome replaces a leading "~/" with the home directory.
func (p *Paths) ExpandHome(path string) string {
	if len(path) >= 2 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(p.HomeDir, path[2:])
	}
	return path
}
