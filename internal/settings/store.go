package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bobby-s-dev/weatherstar/internal/display"
	"github.com/bobby-s-dev/weatherstar/internal/models"
)

const fileName = "settings.yaml"

type LocationSettings struct {
	AutoDetect  bool     `yaml:"auto_detect" json:"auto_detect"`
	Latitude    *float64 `yaml:"lat,omitempty" json:"lat,omitempty"`
	Longitude   *float64 `yaml:"lon,omitempty" json:"lon,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Saved returns the manual location, or nil when auto detection is on or the
// coordinates are incomplete.
func (l LocationSettings) Saved() *models.DetectedLocation {
	if l.AutoDetect || l.Latitude == nil || l.Longitude == nil {
		return nil
	}
	return &models.DetectedLocation{
		Latitude:  *l.Latitude,
		Longitude: *l.Longitude,
		Label:     l.Description,
	}
}

type Settings struct {
	Location LocationSettings `yaml:"location" json:"location"`
	Display  display.Flags    `yaml:"display" json:"display"`
}

func Defaults() Settings {
	return Settings{
		Location: LocationSettings{AutoDetect: true},
		Display: display.Flags{
			ShowMSN:       true,
			ShowReddit:    true,
			ShowLocalNews: true,
		},
	}
}

// DefaultPath is settings.yaml under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "weatherstar", fileName), nil
}

// Store persists Settings as YAML. Keys missing from the file keep their
// defaults.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the defaults when the file does not exist. A file that cannot
// be parsed yields the defaults along with the error.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	return settings, nil
}

func (s *Store) SaveFlags(flags display.Flags) error {
	return s.update(func(st *Settings) { st.Display = flags })
}

// SaveLocation stores loc, filling in a coordinate description when none is
// given.
func (s *Store) SaveLocation(loc LocationSettings) error {
	if loc.Description == "" && loc.Latitude != nil && loc.Longitude != nil {
		loc.Description = fmt.Sprintf("%.4f, %.4f", *loc.Latitude, *loc.Longitude)
	}
	return s.update(func(st *Settings) { st.Location = loc })
}

func (s *Store) update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		s.logger.Warn("Overwriting unreadable settings", zap.String("path", s.path), zap.Error(err))
	}
	fn(&settings)
	return s.write(settings)
}

// write replaces the file through a rename so readers never see a partial
// document.
func (s *Store) write(settings Settings) error {
	data, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	s.logger.Debug("Settings saved", zap.String("path", s.path))
	return nil
}
