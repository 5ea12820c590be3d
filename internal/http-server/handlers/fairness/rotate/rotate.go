package rotate

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/fair"
	"go-gamehall/internal/lib/api/response"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/lib/random"
	"go-gamehall/internal/model"
	"go-gamehall/internal/repository"
	"go-gamehall/internal/storage/mysql"
)

type Request struct {
	UserUUID   string `json:"user_uuid" validate:"required"`
	ClientSeed string `json:"client_seed" validate:"omitempty,min=1,max=64"`
}

type Response struct {
	response.Response
	Retired *RetiredPair `json:"retired,omitempty"`
	Next    *NextPair    `json:"next,omitempty"`
}

// RetiredPair is the full reveal: with the server seed public the user
// can recompute every outcome the pair produced.
type RetiredPair struct {
	ServerSeed     string `json:"server_seed"`
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          int64  `json:"nonce"`
}

// NextPair commits to the new secret without revealing it.
type NextPair struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
}

type Result struct {
	Retired *model.SeedPair
	Next    *model.SeedPair
}

// Rotator retires a user's active seed pair and installs a fresh one in
// a single transaction. Rotation is refused while a private session is
// live because its hidden layout derives from the active pair.
type Rotator struct {
	handler  *mysql.Handler
	seeds    *repository.SeedRepository
	sessions *repository.SessionRepository
	log      *slog.Logger
}

func NewRotator(
	handler *mysql.Handler,
	seeds *repository.SeedRepository,
	sessions *repository.SessionRepository,
	log *slog.Logger,
) *Rotator {
	return &Rotator{
		handler:  handler,
		seeds:    seeds,
		sessions: sessions,
		log:      log,
	}
}

func (rt *Rotator) Rotate(userID int64, clientSeed string) (*Result, error) {
	const op = "fairness.Rotator.Rotate"

	session, err := rt.sessions.GetActiveByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session != nil {
		return nil, gameerr.New(gameerr.GameAlreadyActive, "finish the active session before rotating")
	}

	if clientSeed == "" {
		clientSeed = random.NewRandomString(16)
	}

	result := &Result{}

	err = rt.handler.WithinTransaction(func(tx *sql.Tx) error {
		old, err := rt.seeds.LockActivePair(tx, userID)
		if err != nil {
			return err
		}

		if old != nil {
			if err = rt.seeds.RetirePair(tx, old.ID); err != nil {
				return err
			}

			result.Retired = old
		}

		serverSeed := random.NewRandomString(64)

		next := model.SeedPair{
			UserID:         userID,
			ServerSeed:     serverSeed,
			ServerSeedHash: fair.HashSeed(serverSeed),
			ClientSeed:     clientSeed,
		}

		if _, err = rt.seeds.SavePair(tx, next); err != nil {
			return err
		}

		result.Next = &next

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rt.log.Info("seed pair rotated", sl.Int64("user_id", userID))

	return result, nil
}

type UserFinder interface {
	FindUserByUUID(uuid string) (*model.User, error)
}

type PairRotator interface {
	Rotate(userID int64, clientSeed string) (*Result, error)
}

type Rotate struct {
	log       *slog.Logger
	validator *validator.Validate
	users     UserFinder
	rotator   PairRotator
}

func NewRotate(log *slog.Logger, users UserFinder, rotator PairRotator) *Rotate {
	return &Rotate{
		log:       log,
		validator: validator.New(),
		users:     users,
		rotator:   rotator,
	}
}

func (h *Rotate) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fairness.rotate.New"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, response.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := h.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		user, err := h.users.FindUserByUUID(req.UserUUID)
		if err != nil {
			log.Error("failed to find user", sl.Err(err))

			render.JSON(w, r, response.Error("failed to find user", http.StatusInternalServerError))

			return
		}

		if user == nil {
			render.JSON(w, r, response.Error("user not found", http.StatusNotFound))

			return
		}

		result, err := h.rotator.Rotate(user.ID, req.ClientSeed)
		if err != nil {
			var gerr *gameerr.Error
			if errors.As(err, &gerr) {
				render.JSON(w, r, response.GameError(gerr))

				return
			}

			log.Error("failed to rotate seed pair", sl.Err(err))

			render.JSON(w, r, response.Error("failed to rotate seed pair", http.StatusInternalServerError))

			return
		}

		out := Response{
			Response: response.OK(),
			Next: &NextPair{
				ServerSeedHash: result.Next.ServerSeedHash,
				ClientSeed:     result.Next.ClientSeed,
			},
		}

		if result.Retired != nil {
			out.Retired = &RetiredPair{
				ServerSeed:     result.Retired.ServerSeed,
				ServerSeedHash: result.Retired.ServerSeedHash,
				ClientSeed:     result.Retired.ClientSeed,
				Nonce:          result.Retired.Nonce,
			}
		}

		render.JSON(w, r, out)
	}
}
