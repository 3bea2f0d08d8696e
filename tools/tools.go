// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build tools

// Package tools pins the addlicense tool, which checks that every source
// file carries the license header:
//
//	go run github.com/google/addlicense -check -ignore '_examples/**' .
package tools

import (
	_ "github.com/google/addlicense"
)
