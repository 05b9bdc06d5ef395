package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/presenter/http/render"
)

type ctxKey int

const (
	bridgeCtxKey ctxKey = iota
	txHashCtxKey
)

var ErrInvalidDay = errors.New("invalid day parameter")

func GetBridgeMiddleware(bridges map[string]*bridge.Bridge) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bridgeID := chi.URLParam(r, "bridgeID")

			b, ok := bridges[bridgeID]
			if !ok || b == nil {
				render.JSON(w, r, http.StatusNotFound, fmt.Sprintf("bridge with id %s not found", bridgeID))
				return
			}

			ctx := context.WithValue(r.Context(), bridgeCtxKey, b)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Bridge(ctx context.Context) *bridge.Bridge {
	b, _ := ctx.Value(bridgeCtxKey).(*bridge.Bridge)
	return b
}

func GetTxHashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txHash := chi.URLParam(r, "txHash")

		if txHash == "" {
			txHash = r.URL.Query().Get("txHash")
			if txHash == "" {
				next.ServeHTTP(w, r)
				return
			}
		}

		raw, err := hexutil.Decode(txHash)
		if err != nil || len(raw) != common.HashLength {
			render.Error(w, r, fmt.Errorf("txHash %q: %w", txHash, render.ErrBadRequest))
			return
		}

		ctx := context.WithValue(r.Context(), txHashCtxKey, common.BytesToHash(raw))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TxHash(ctx context.Context) (common.Hash, bool) {
	txHash, ok := ctx.Value(txHashCtxKey).(common.Hash)
	return txHash, ok
}

// Day parses the ?day= parameter, the current limit window by default.
func Day(r *http.Request) (uint64, error) {
	s := r.URL.Query().Get("day")
	if s == "" {
		return limits.Day(uint64(time.Now().Unix())), nil
	}
	day, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s", render.ErrBadRequest, ErrInvalidDay, err)
	}
	return day, nil
}
