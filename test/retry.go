// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package test

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Retry calls fn every period until it succeeds, the context ends or maxWait passes. The last error of fn is
// returned on timeout.
func Retry(ctx context.Context, fn func() error, period, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		err := fn()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.WithMessage(err, "retry timeout, latest err")
		case <-ticker.C:
		}
	}
}
