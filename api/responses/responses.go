package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any, notices ...types.Notice) {
	WriteSuccessStatus(w, http.StatusOK, data, notices...)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any, notices ...types.Notice) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data, Notifications: notices})
}

// WriteError renders err as an error envelope. Notices raised by the stores
// before the failure still travel with the response.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error, notices ...types.Notice) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: pkgerrors.PublicMessage(typed),
		},
		Notifications: notices,
	}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	logFailure(ctx, logg, typed)
	writeJSON(w, meta.HTTPStatus, payload)
}

func logFailure(ctx context.Context, logg *logger.Logger, err *pkgerrors.Error) {
	if logg == nil {
		return
	}
	dump := pkgerrors.Dump(err)
	ctx = logg.WithFields(ctx, map[string]any{
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
		"http_status": dump.HTTPStatus,
	})
	if dump.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
