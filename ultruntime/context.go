// File: ultruntime/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Go has no native thread-local storage, so the runtime-local "is the
// caller currently executing as a ULT" accessor the condition variable
// needs is carried explicitly through context.Context instead of an ES
// TLS slot. A Scheduler resuming a ULT wraps the context it hands to the
// ULT's body with WithULT; anything downstream that calls CurrentULT on
// that context (or a descendant of it) sees the ULT descriptor.

package ultruntime

import (
	"context"

	"github.com/momentics/ultpool/ult"
)

type ultKey struct{}

// WithULT returns a copy of ctx carrying d as the current ULT.
func WithULT(ctx context.Context, d *ult.Descriptor) context.Context {
	return context.WithValue(ctx, ultKey{}, d)
}

// CurrentULT reports the ULT descriptor carried by ctx, if any. A context
// with no descriptor (including nil) identifies an external native
// thread, never a ULT.
func CurrentULT(ctx context.Context) (*ult.Descriptor, bool) {
	if ctx == nil {
		return nil, false
	}
	d, ok := ctx.Value(ultKey{}).(*ult.Descriptor)
	return d, ok && d != nil
}
