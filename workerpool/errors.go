// SPDX-License-Identifier: MIT

package workerpool

import "errors"

// ErrPinningUnsupported is logged by workers asked to pin themselves on a
// platform without CPU affinity support.
var ErrPinningUnsupported = errors.New("workerpool: CPU pinning unsupported on this platform")
