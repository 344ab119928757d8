package download

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/gosdccc/gosdccc/pkg/paths"
)

const manifestName = "manifest.yaml"

// Install is one entry of the install manifest.
type Install struct {
	Version     string    `yaml:"version"`
	URL         string    `yaml:"url"`
	Path        string    `yaml:"path"`
	InstalledAt time.Time `yaml:"installed_at"`
}

type manifest struct {
	Installs []Install `yaml:"installs"`
}

func manifestPath(storageDir string) string {
	return filepath.Join(storageDir, manifestName)
}

func readManifest(storageDir string) (*manifest, error) {
	data, err := os.ReadFile(manifestPath(storageDir))
	if os.IsNotExist(err) {
		return &manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading install manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing install manifest: %w", err)
	}
	return &m, nil
}

func writeManifest(storageDir string, m *manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding install manifest: %w", err)
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}
	if err := atomic.WriteFile(manifestPath(storageDir), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing install manifest: %w", err)
	}
	return nil
}

// recordInstall adds or replaces the manifest entry for install.Version.
func recordInstall(storageDir string, install Install) error {
	m, err := readManifest(storageDir)
	if err != nil {
		return err
	}
	replaced := false
	for i := range m.Installs {
		if m.Installs[i].Version == install.Version {
			m.Installs[i] = install
			replaced = true
			break
		}
	}
	if !replaced {
		m.Installs = append(m.Installs, install)
	}
	return writeManifest(storageDir, m)
}

// Installed lists the releases recorded in the install manifest.
func Installed(opts ...Option) ([]Install, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	m, err := readManifest(o.storageDir)
	if err != nil {
		return nil, err
	}
	return m.Installs, nil
}

// Uninstall removes the extracted release directory of a version and drops
// its manifest entry. Unknown versions are an error.
func Uninstall(version string, opts ...Option) error {
	o, err := buildOptions(opts)
	if err != nil {
		return err
	}
	m, err := readManifest(o.storageDir)
	if err != nil {
		return err
	}
	kept := m.Installs[:0]
	found := false
	for _, install := range m.Installs {
		if install.Version == version {
			found = true
			continue
		}
		kept = append(kept, install)
	}
	if !found {
		return fmt.Errorf("version %q is not installed", version)
	}
	if err := os.RemoveAll(filepath.Join(o.storageDir, version)); err != nil {
		return fmt.Errorf("removing %s: %w", version, err)
	}
	m.Installs = kept
	return writeManifest(o.storageDir, m)
}

// UninstallAll removes the whole storage directory.
func UninstallAll(opts ...Option) error {
	o, err := buildOptions(opts)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(o.storageDir); err != nil {
		return fmt.Errorf("removing %s: %w", o.storageDir, err)
	}
	return nil
}

// StorageDir returns the effective storage directory.
func StorageDir() string {
	return paths.GetStorageDir()
}
