package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/app/sdk/metrics"
	"github.com/workden/workden/business/sdk/web"
	"github.com/workden/workden/foundation/logger"
)

// Errors handles errors coming out of the call chain. It converts anything
// that is not already an *errs.Error into one and scrubs internal detail
// before it reaches the client.
func Errors(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)

			err := checkIsError(resp)
			if err == nil {
				return resp
			}

			var appErr *errs.Error
			if !errors.As(err, &appErr) {
				appErr = errs.Newf(errs.Internal, "Internal Server Error")
			}

			log.Error(ctx, "request error", "err", err, "file", appErr.FileName, "func", appErr.FuncName)

			metrics.AddErrors(ctx)

			if appErr.Code == errs.InternalOnlyLog {
				appErr = errs.Newf(errs.Internal, "Internal Server Error")
			}

			return appErr
		}

		return h
	}

	return m
}
