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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/storage"
	"github.com/algorand/go-zkvm/util/kvstore"
)

var (
	storageDepth  uint64
	storageEngine = makeEnumValue(config.StorageEnginePebble, []string{config.StorageEngineSqlite, config.StorageEngineMemory})
)

// storageLockFilename guards a storage directory against concurrent writers.
const storageLockFilename = "zkvm.lock"

var errStorageLocked = errors.New("storage locked")

func init() {
	storageCmd.AddCommand(storageInitCmd)
	storageCmd.AddCommand(storageShowCmd)

	storageInitCmd.Flags().Uint64Var(&storageDepth, "depth", 0, "Depth of the Merkle tree (default from config)")
	storageInitCmd.Flags().Var(storageEngine, "engine", "Key/value engine: "+storageEngine.AllowedString())
}

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage the authenticated storage of a data directory",
	Args:  validateNoPosArgsFn,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

var storageInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty storage tree and record its settings in the config",
	Args:  validateNoPosArgsFn,
	Run: func(cmd *cobra.Command, _ []string) {
		dir, cfg, closeLog := prepare()
		defer closeLog()

		if storageDepth != 0 {
			cfg.MerkleTreeDepth = storageDepth
		}
		if storageEngine.IsSet() {
			cfg.StorageEngine = storageEngine.String()
		}
		if err := cfg.Validate(); err != nil {
			reportErrorf(errLoadingConfig, err)
		}

		handle, err := openStorage(cfg, dir)
		if err != nil {
			reportStorageError(cfg, dir, err)
		}
		root := handle.tree.Root()
		if err := handle.Close(); err != nil {
			reportErrorf(errClosingStorage, err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			reportErrorf(errSavingConfig, err)
		}
		if err := cfg.SaveToDisk(dir); err != nil {
			reportErrorf(errSavingConfig, err)
		}
		reportInfof(infoStorageCreated, cfg.StorageEngine, cfg.MerkleTreeDepth, cfg.ResolveStorageDir(dir))
		reportInfof(infoStorageRoot, root.String())
	},
}

var storageShowCmd = &cobra.Command{
	Use:   "show [index]...",
	Short: "Print the storage root and the given leaves with their authentication paths",
	Run: func(cmd *cobra.Command, args []string) {
		dir, cfg, closeLog := prepare()
		defer closeLog()

		handle, err := openStorage(cfg, dir)
		if err != nil {
			reportStorageError(cfg, dir, err)
		}
		defer handle.Close()

		root := handle.tree.Root()
		reportInfof(infoStorageRoot, root.String())
		for _, arg := range args {
			index, err := strconv.ParseUint(arg, 0, 64)
			if err != nil {
				reportErrorf(errParsingIndex, arg, err)
			}
			leaf, err := handle.tree.Load(index)
			if err != nil {
				reportErrorf(errLoadingLeaf, index, err)
			}
			fmt.Print(formatLeaf(root, index, leaf))
		}
	},
}

func reportStorageError(cfg config.Local, dir string, err error) {
	if errors.Is(err, errStorageLocked) {
		reportErrorf(errStorageInUse, cfg.ResolveStorageDir(dir))
	}
	reportErrorf(errOpeningStorage, err)
}

// storageHandle is an open storage tree holding the directory lock.
type storageHandle struct {
	tree *storage.Tree
	lock *flock.Flock
}

// openStorage opens the storage tree configured for the data directory dir.
// Persistent engines take an exclusive file lock on their directory first.
func openStorage(cfg config.Local, dir string) (*storageHandle, error) {
	depth := int(cfg.MerkleTreeDepth)
	if cfg.StorageEngine == config.StorageEngineMemory {
		tree, err := storage.NewMemoryTree(depth)
		if err != nil {
			return nil, err
		}
		return &storageHandle{tree: tree}, nil
	}

	storageDir := cfg.ResolveStorageDir(dir)
	if err := os.MkdirAll(storageDir, 0700); err != nil {
		return nil, err
	}
	fileLock := flock.New(filepath.Join(storageDir, storageLockFilename))
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("unexpected failure in establishing %s: %w", storageLockFilename, err)
	}
	if !locked {
		return nil, errStorageLocked
	}

	kv, err := kvstore.NewKVStore(cfg.StorageEngine, filepath.Join(storageDir, "leaves"), false)
	if err != nil {
		fileLock.Unlock()
		return nil, err
	}
	tree, err := storage.Open(kv, depth)
	if err != nil {
		kv.Close()
		fileLock.Unlock()
		return nil, err
	}
	return &storageHandle{tree: tree, lock: fileLock}, nil
}

// Close closes the tree and releases the directory lock.
func (h *storageHandle) Close() error {
	err := h.tree.Close()
	if h.lock != nil {
		if unlockErr := h.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

func formatLeaf(root fr.Element, index uint64, leaf storage.Leaf) string {
	var b strings.Builder
	if len(leaf.Values) == 0 {
		fmt.Fprintf(&b, infoLeafEmpty+"\n", index)
	} else {
		values := make([]string, len(leaf.Values))
		for i := range leaf.Values {
			values[i] = leaf.Values[i].String()
		}
		fmt.Fprintf(&b, "leaf %d: [%s]\n", index, strings.Join(values, ", "))
	}
	for l := range leaf.Path {
		fmt.Fprintf(&b, "  sibling %d: %s\n", l, leaf.Path[l].String())
	}
	verified := storage.VerifyPath(root, storage.LeafHash(leaf.Values), index, leaf.Path)
	fmt.Fprintf(&b, "  path verified: %t\n", verified)
	return b.String()
}
