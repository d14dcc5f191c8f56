package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/rocketscienceinc/tictactoe-stream/internal/game"
	"github.com/rocketscienceinc/tictactoe-stream/internal/match"
	"github.com/rocketscienceinc/tictactoe-stream/internal/repository"
)

// sessionsReport is the /sessions payload.
type sessionsReport struct {
	Active   int              `json:"active"`
	Waiting  int              `json:"waiting"`
	Sessions []match.Snapshot `json:"sessions"`
}

func sessionsHandler(logger *slog.Logger, sessions sessionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snapshots := sessions.Snapshots()
		if snapshots == nil {
			snapshots = []match.Snapshot{}
		}

		report := sessionsReport{
			Active: len(snapshots),
			Waiting: lo.CountBy(snapshots, func(snapshot match.Snapshot) bool {
				return snapshot.Status == string(game.StatusWaiting)
			}),
			Sessions: snapshots,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logger.Error("failed to encode sessions report", "error", err)
		}
	}
}

// sessionFinder is the slice of the snapshot store the lookup endpoint
// reads from.
type sessionFinder interface {
	GetByID(ctx context.Context, id string) (*match.Snapshot, error)
}

// sessionLookupHandler - serves one mirrored session by id, the read side
// of the snapshot mirror.
func sessionLookupHandler(logger *slog.Logger, finder sessionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/sessions/")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		snapshot, err := finder.GetByID(r.Context(), id)
		if errors.Is(err, repository.ErrSessionNotFound) {
			http.NotFound(w, r)
			return
		}

		if err != nil {
			logger.Error("failed to load mirrored session", "session_id", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(snapshot); err != nil {
			logger.Error("failed to encode session", "session_id", id, "error", err)
		}
	}
}
