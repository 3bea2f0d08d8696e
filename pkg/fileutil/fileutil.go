// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes dst by calling write with a temporary file in the same
// directory and then moving it into place, so readers never observe a
// partially written file. On any error the temporary file is removed and
// dst is left untouched.
func WriteFile(dst string, perm os.FileMode, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tempDst := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tempDst)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tempDst, dst)
}

// Exists reports whether path exists. Errors other than not-exist are
// returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
