// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compress

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Supported encodings. Deflate streams carry the zlib (RFC 1950) header and
// checksum, as HTTP's "deflate" does.
const (
	Identity = ""
	Zstd     = "zstd"
	Gzip     = "gzip"
	Deflate  = "deflate"
)

var extEncodings = map[string]string{
	".zst":  Zstd,
	".zstd": Zstd,
	".gz":   Gzip,
	".zz":   Deflate,
}

// SplitPath returns the encoding named by the last extension of path and the
// path without that extension. Paths without a compression extension return
// Identity and the path unchanged.
//
//	SplitPath("cli.toml.zst") // "zstd", "cli.toml"
func SplitPath(path string) (encoding, rest string) {
	ext := strings.ToLower(filepath.Ext(path))
	if enc, ok := extEncodings[ext]; ok {
		return enc, strings.TrimSuffix(path, filepath.Ext(path))
	}
	return Identity, path
}

// ParseEncoding normalizes an encoding name, accepting the file extension
// forms ("zst", "gz") as well.
func ParseEncoding(name string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "identity", "none":
		return Identity, nil
	case "zstd", "zst":
		return Zstd, nil
	case "gzip", "gz":
		return Gzip, nil
	case "deflate", "zz":
		return Deflate, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

// NewReader wraps r with a decompressor for encoding. Closing the result
// releases the decompressor but does not close r.
func NewReader(r io.Reader, encoding string) (io.ReadCloser, error) {
	var (
		reader io.ReadCloser
		err    error
	)
	switch encoding {
	case Identity:
		return io.NopCloser(r), nil
	case Gzip:
		reader, err = gzip.NewReader(r)
	case Deflate:
		reader, err = zlib.NewReader(r)
	case Zstd:
		var zr *zstd.Decoder
		zr, err = zstd.NewReader(r)
		if err == nil {
			reader = zr.IOReadCloser()
		}
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor for %s: %w", encoding, err)
	}
	return reader, nil
}

// NewWriter wraps w with a compressor for encoding. The result must be closed
// to flush the compressed stream; closing does not close w.
func NewWriter(w io.Writer, encoding string) (io.WriteCloser, error) {
	var (
		writer io.WriteCloser
		err    error
	)
	switch encoding {
	case Identity:
		return nopWriteCloser{w}, nil
	case Zstd:
		writer, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case Gzip:
		writer = gzip.NewWriter(w)
	case Deflate:
		writer = zlib.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor for %s: %w", encoding, err)
	}
	return writer, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// ReadAll reads and decompresses everything from r.
func ReadAll(r io.Reader, encoding string) ([]byte, error) {
	rc, err := NewReader(r, encoding)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	return data, errors.Join(err, rc.Close())
}
