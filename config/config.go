// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-zkvm
//
// go-zkvm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-zkvm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-zkvm.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/algorand/go-zkvm/util/codecs"
)

// ConfigFilename is the name of the config.json file where we store per-datadir settings
const ConfigFilename = "zkvm-config.json"

// Storage engines accepted by Local.StorageEngine
const (
	StorageEngineMemory = "memory"
	StorageEnginePebble = "pebble"
	StorageEngineSqlite = "sqlite"
)

// MaxMerkleTreeDepth bounds MerkleTreeDepth; leaf indices are kept in a uint64.
const MaxMerkleTreeDepth = 63

var errInvalidStorageEngine = errors.New("unknown storage engine")

// Local holds the per-datadir settings of the zkvm tools. Fields that keep
// their default value are omitted when the config is saved.
type Local struct {
	// Version tracks the current version of the defaults so we can migrate old -> new
	Version uint32

	// BaseLoggerDebugLevel is the logrus level of the base logger; 4 is Info, 5 is Debug.
	BaseLoggerDebugLevel uint32

	// LogFile, when set, sends the log to a size-bounded file instead of stderr.
	// The previous file is kept next to it with an ".archive" suffix.
	LogFile string

	// LogSizeLimit is the maximum size of LogFile in bytes; 0 lets it grow unbounded.
	LogSizeLimit uint64

	// MaxStackDepth bounds the evaluation stack and the data stack of a single run.
	MaxStackDepth uint64

	// MaxCallDepth bounds the number of nested frames.
	MaxCallDepth uint64

	// MerkleTreeDepth is the depth of the storage tree created by "storage init".
	MerkleTreeDepth uint64

	// StorageEngine selects the key/value engine holding storage leaves: memory, pebble or sqlite.
	StorageEngine string

	// StorageDir is where persistent storage engines keep their files. Relative
	// paths are resolved against the data directory.
	StorageDir string

	// EnableTracing writes a per-instruction trace of each run to stderr.
	EnableTracing bool

	// EnableMetrics dumps the run counters after each command.
	EnableMetrics bool
}

var defaultLocal = Local{
	Version:              1,
	BaseLoggerDebugLevel: 4,
	LogFile:              "",
	LogSizeLimit:         1073741824,
	MaxStackDepth:        65536,
	MaxCallDepth:         256,
	MerkleTreeDepth:      16,
	StorageEngine:        StorageEnginePebble,
	StorageDir:           "storage",
	EnableTracing:        false,
	EnableMetrics:        false,
}

// GetDefaultLocal returns a copy of the current defaultLocal config
func GetDefaultLocal() Local {
	return defaultLocal
}

// LoadConfigFromDisk returns a Local config structure based on merging the defaults
// with settings loaded from the config file from the custom dir. If the custom file
// cannot be loaded, the default config is returned (with the error from loading the
// custom file).
func LoadConfigFromDisk(custom string) (c Local, err error) {
	return loadConfigFromFile(filepath.Join(custom, ConfigFilename))
}

func loadConfigFromFile(configFile string) (c Local, err error) {
	c = defaultLocal
	c, err = mergeConfigFromFile(configFile, c)
	if err != nil {
		return
	}
	err = c.Validate()
	return
}

func mergeConfigFromFile(configpath string, source Local) (Local, error) {
	f, err := os.Open(configpath)
	if err != nil {
		return source, err
	}
	defer f.Close()

	err = loadConfig(f, &source)
	return source, err
}

func loadConfig(reader io.Reader, config *Local) error {
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	return dec.Decode(config)
}

// Validate checks that the settings are usable.
func (cfg Local) Validate() error {
	switch cfg.StorageEngine {
	case StorageEngineMemory, StorageEnginePebble, StorageEngineSqlite:
	default:
		return fmt.Errorf("%w: %q", errInvalidStorageEngine, cfg.StorageEngine)
	}
	if cfg.MerkleTreeDepth == 0 || cfg.MerkleTreeDepth > MaxMerkleTreeDepth {
		return fmt.Errorf("MerkleTreeDepth %d out of range [1, %d]", cfg.MerkleTreeDepth, MaxMerkleTreeDepth)
	}
	if cfg.MaxStackDepth == 0 {
		return errors.New("MaxStackDepth must be positive")
	}
	if cfg.MaxCallDepth == 0 {
		return errors.New("MaxCallDepth must be positive")
	}
	if cfg.BaseLoggerDebugLevel > 5 {
		return fmt.Errorf("BaseLoggerDebugLevel %d out of range [0, 5]", cfg.BaseLoggerDebugLevel)
	}
	return nil
}

// ResolveStorageDir returns StorageDir, anchored at root when it is relative.
func (cfg Local) ResolveStorageDir(root string) string {
	if filepath.IsAbs(cfg.StorageDir) {
		return cfg.StorageDir
	}
	return filepath.Join(root, cfg.StorageDir)
}

// SaveToDisk writes the Local settings into a root/ConfigFilename file
func (cfg Local) SaveToDisk(root string) error {
	configpath := filepath.Join(root, ConfigFilename)
	filename := os.ExpandEnv(configpath)
	return cfg.SaveToFile(filename)
}

// SaveToFile saves the config to a specific filename, allowing overriding the default name
func (cfg Local) SaveToFile(filename string) error {
	var alwaysInclude []string
	alwaysInclude = append(alwaysInclude, "Version")
	return codecs.SaveNonDefaultValuesToFile(filename, cfg, defaultLocal, alwaysInclude, true)
}
