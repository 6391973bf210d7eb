// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package lfpipe

// RaceEnabled is true when the race detector is active.
// Tests use it to skip concurrent pipe and queue runs: payloads are plain
// fields published through atomix orderings, an edge the detector does not
// model.
const RaceEnabled = true
