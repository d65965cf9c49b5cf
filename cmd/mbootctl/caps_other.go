// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

//go:build !linux

package main

// checkCaps is a no-op outside Linux; the capget-based capability check has no equivalent on
// other platforms.
func checkCaps() {}
