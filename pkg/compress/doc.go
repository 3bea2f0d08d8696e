// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compress provides stream compression and decompression for
// declaration files, selected by file extension.
//
// # Supported Encodings
//
//   - zstd (Zstandard), extensions .zst and .zstd
//   - gzip, extension .gz
//   - deflate with zlib framing (RFC 1950), extension .zz
//
// # Reading
//
//	enc, rest := compress.SplitPath("cli.toml.zst") // "zstd", "cli.toml"
//	f, err := os.Open("cli.toml.zst")
//	if err != nil {
//	    // handle error
//	}
//	defer f.Close()
//	data, err := compress.ReadAll(f, enc)
//
// # Writing
//
//	w, err := compress.NewWriter(f, compress.Zstd)
//	if err != nil {
//	    // handle error
//	}
//	w.Write(data)
//	w.Close() // flushes the compressed stream
package compress
