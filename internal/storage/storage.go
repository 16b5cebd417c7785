package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/gofrs/flock"
	jsoniter "github.com/json-iterator/go"
	"github.com/json-iterator/go/extra"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	// Documents written by older tooling carry ids as numbers and numbers
	// as strings.
	extra.RegisterFuzzyDecoders()
}

var ErrInvalidID = errors.New("invalid snowflake id")

var snowflakePattern = regexp.MustCompile(`^[0-9]{1,20}$`)

const (
	warningsFile = "warnings.json"
	ticketsFile  = "tickets.json"
	panelsFile   = "panel_messages.json"
	configFile   = "config.json"
)

// Store persists every document as a whole JSON file under one data
// directory. Each read-modify-write holds the process mutex and an
// advisory <doc>.lock so a separately running dashboard does not
// interleave writes with the bot.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

func New(dataDir string, logger *zap.Logger) (*Store, error) {
	if dataDir == "" {
		dataDir = "data"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dataDir, logger: logger}, nil
}

func ValidID(id string) bool {
	return snowflakePattern.MatchString(id)
}

func (s *Store) docPath(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) guildConfigPath(guildID string) string {
	return filepath.Join(s.dir, guildID, configFile)
}

func (s *Store) withLock(path string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

var errCorrupt = errors.New("corrupt document")

// readDoc decodes path into out. A missing or empty file leaves out
// untouched and is not an error. Undecodable content yields an error
// wrapping errCorrupt; out may then be partially filled and callers reset
// it to their default.
func (s *Store) readDoc(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		s.logger.Error("read document failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Error("corrupt document, using defaults", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", errCorrupt, path, err)
	}
	return nil
}

// readForUpdate is readDoc for read-modify-write paths. A corrupt document
// is moved to <doc>.corrupt-<unix> before the caller rewrites it from
// defaults; any other read failure aborts the update. It reports whether out
// holds the decoded document.
func (s *Store) readForUpdate(path string, out interface{}) (bool, error) {
	err := s.readDoc(path, out)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errCorrupt):
		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if rerr := os.Rename(path, backup); rerr != nil {
			return false, fmt.Errorf("preserve corrupt %s: %w", path, rerr)
		}
		s.logger.Warn("corrupt document preserved", zap.String("path", path), zap.String("backup", backup))
		return false, nil
	default:
		return false, err
	}
}

func (s *Store) writeDoc(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (s *Store) view(path string, out interface{}) bool {
	ok := false
	err := s.withLock(path, func() error {
		ok = s.readDoc(path, out) == nil
		return nil
	})
	if err != nil {
		s.logger.Error("document lock failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return ok
}
