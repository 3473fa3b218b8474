// Package persist reads and writes the runtime's two on-disk files: the
// methods file (one record per registered method, in definition order)
// and the agents file (one record per persistent agent, with its memory
// and context maps serialized recursively with I/D/S/M type tags).
//
// Writes are atomic: the previous file is backed up to .bak, the new
// content goes to a .tmp file which is synced and renamed over the
// original, and the backup is removed on success. A loader that finds a
// corrupt file restores the backup and surfaces the failure.
package persist

import (
	"io"
	"os"

	"github.com/agerun/agerun/runerrors"
)

// File name suffixes for the backup/atomic-write discipline.
const (
	backupExtension = ".bak"
	tempExtension   = ".tmp"
)

// createBackup copies path to path.bak. A missing source file is fine;
// there is simply nothing to back up.
func createBackup(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return runerrors.New(runerrors.IoFailure, "cannot open %s for backup: %v", path, err)
	}
	defer src.Close()

	dst, err := os.Create(path + backupExtension)
	if err != nil {
		return runerrors.New(runerrors.IoFailure, "cannot create backup of %s: %v", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return runerrors.New(runerrors.IoFailure, "cannot write backup of %s: %v", path, err)
	}
	return dst.Sync()
}

// restoreBackup moves path.bak back over path. Used when a load finds
// the current file corrupt.
func restoreBackup(path string) error {
	backup := path + backupExtension
	if _, err := os.Stat(backup); err != nil {
		return runerrors.New(runerrors.IoFailure, "no backup to restore for %s", path)
	}
	if err := os.Rename(backup, path); err != nil {
		return runerrors.New(runerrors.IoFailure, "cannot restore backup of %s: %v", path, err)
	}
	return nil
}

// writeFileAtomic writes content to path via backup, temp file, sync
// and rename. On success the backup of the previous version is removed.
func writeFileAtomic(path string, content []byte) error {
	if err := createBackup(path); err != nil {
		return err
	}

	temp := path + tempExtension
	file, err := os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return runerrors.New(runerrors.IoFailure, "cannot create %s: %v", temp, err)
	}
	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(temp)
		return runerrors.New(runerrors.IoFailure, "cannot write %s: %v", temp, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temp)
		return runerrors.New(runerrors.IoFailure, "cannot sync %s: %v", temp, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temp)
		return runerrors.New(runerrors.IoFailure, "cannot close %s: %v", temp, err)
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return runerrors.New(runerrors.IoFailure, "cannot rename %s over %s: %v", temp, path, err)
	}

	os.Remove(path + backupExtension)
	return nil
}
