// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package roam

import (
	"fmt"
	"log/slog"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
)

// detach issues a fire-and-forget SDK call. The call is not awaited, its outcome is only
// logged, and a panic inside the SDK call is recovered and logged as well.
func (a *Adapter) detach(op string, issue func(done func(), fail func(sdk.Error))) {
	log := a.logger.With(slog.String("operation", op))
	defer func() {
		if r := recover(); r != nil {
			log.Error("detached SDK call panicked", logger.Err(fmt.Errorf("%v", r)))
		}
	}()

	issue(
		func() {
			log.Debug("detached SDK call succeeded")
		},
		func(err sdk.Error) {
			log.Error("detached SDK call failed", logger.Err(err))
		},
	)
}
