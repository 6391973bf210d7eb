// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe

import "code.hybscloud.com/iox"

// ErrWouldBlock is returned by the non-blocking Pipe operations when they
// cannot act right now:
//
//   - WriteFront: the slot at the front is still occupied
//   - ReadBack: no item is left to claim
//   - ReadFront: the pipe is empty, or a reader took the newest item
//
// It is the same value as [iox.ErrWouldBlock]. Callers back off, steal
// from another pipe, or run the work inline:
//
//	t, err := p.ReadBack()
//	switch {
//	case err == nil:
//	    t.Run()
//	case lfpipe.IsWouldBlock(err):
//	    backoff.Wait()
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err, or an error it wraps, is ErrWouldBlock.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
