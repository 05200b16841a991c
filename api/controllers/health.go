package controllers

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/mealbridge-backend/api/responses"
	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

const envHeader = "X-MealBridge-Env"

// Pinger is satisfied by the Postgres, Redis and Pub/Sub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings all deps in parallel and answers 503 listing every one
// that failed.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			errs   error
			failed []string
		)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := dep.Ping(ctx); err != nil {
					mu.Lock()
					errs = multierr.Append(errs, err)
					failed = append(failed, name)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if errs != nil {
			slices.Sort(failed)
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependencies unavailable").
				WithDetails(map[string]any{"dependencies": failed}))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
