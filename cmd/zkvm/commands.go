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

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/logging"
)

var log = logging.Base()

var dataDir string

var versionCheck bool

// dataDirEnv names the variable consulted when -d is not given.
const dataDirEnv = "ZKVM_DATA"

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Flags().BoolVarP(&versionCheck, "version", "v", false, "Display current build version and exit")
	rootCmd.AddCommand(licenseCmd)

	// run.go
	rootCmd.AddCommand(runCmd)

	// check.go
	rootCmd.AddCommand(checkCmd)

	// asm.go
	rootCmd.AddCommand(asmCmd)
	rootCmd.AddCommand(disasmCmd)

	// storage.go
	rootCmd.AddCommand(storageCmd)

	rootCmd.PersistentFlags().StringVarP(&dataDir, "datadir", "d", "", "Data directory holding "+config.ConfigFilename+" and storage (default $"+dataDirEnv+")")
}

var rootCmd = &cobra.Command{
	Use:   "zkvm",
	Short: "Execute bytecode programs as arithmetic circuits",
	Long:  `zkvm runs bytecode programs, synthesizing an R1CS circuit while it executes them. Storage accesses are proven against a Merkle root kept in the data directory.`,
	Args:  validateNoPosArgsFn,
	Run: func(cmd *cobra.Command, args []string) {
		if versionCheck {
			fmt.Println(config.FormatVersionAndLicense())
			return
		}
		cmd.HelpFunc()(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "The current version of zkvm",
	Args:  validateNoPosArgsFn,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Println(config.FormatVersionAndLicense())
	},
}

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Display license information",
	Args:  validateNoPosArgsFn,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Println(config.GetLicenseInfo())
	},
}

func validateNoPosArgsFn(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("this command does not take positional arguments; found %v", args)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveDataDir returns the -d flag, falling back to $ZKVM_DATA and then to
// the working directory.
func resolveDataDir() string {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv(dataDirEnv)
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// loadConfig reads the data directory config. A missing config file yields
// the defaults; an invalid one is an error.
func loadConfig(dir string) (config.Local, error) {
	cfg, err := config.LoadConfigFromDisk(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return config.GetDefaultLocal(), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("loading %s: %w", filepath.Join(dir, config.ConfigFilename), err)
	}
	return cfg, nil
}

// setupLogging applies the logging settings of cfg to the base logger. The
// returned function closes the log file, if one was opened.
func setupLogging(cfg config.Local, dir string) (func(), error) {
	log.SetLevel(logging.Level(cfg.BaseLoggerDebugLevel))
	if cfg.LogFile == "" {
		return func() {}, nil
	}
	liveLog := cfg.LogFile
	if !filepath.IsAbs(liveLog) {
		liveLog = filepath.Join(dir, liveLog)
	}
	writer, err := logging.MakeCyclicFileWriter(liveLog, cfg.LogSizeLimit)
	if err != nil {
		return nil, err
	}
	log.SetOutput(writer)
	return func() { writer.Close() }, nil
}

// prepare resolves the data directory and loads its config, exiting on error.
// The returned function must be deferred by the caller.
func prepare() (string, config.Local, func()) {
	dir := resolveDataDir()
	cfg, err := loadConfig(dir)
	if err != nil {
		reportErrorf(errLoadingConfig, err)
	}
	closeLog, err := setupLogging(cfg, dir)
	if err != nil {
		reportErrorf(errOpeningLog, cfg.LogFile, err)
	}
	return dir, cfg, closeLog
}

func reportInfof(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func reportWarnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

func reportErrorln(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func reportErrorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

const stdioFilename = "-"

// writeFile is os.WriteFile, writing to stdout for "-".
func writeFile(filename string, data []byte, perm os.FileMode) error {
	if filename == stdioFilename {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(filename, data, perm)
}

// readFile is os.ReadFile, reading stdin for "-".
func readFile(filename string) ([]byte, error) {
	if filename == stdioFilename {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}
