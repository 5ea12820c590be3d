package start

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/lib/api/response"
	"go-gamehall/internal/lib/converter"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
)

type Request struct {
	UserUUID string `json:"user_uuid" validate:"required"`
	Stake    string `json:"stake" validate:"required"`
	Hazards  int    `json:"hazards" validate:"required,min=1,max=24"`
}

type Response struct {
	response.Response
	SessionUUID string `json:"session_uuid,omitempty"`
	Stake       string `json:"stake,omitempty"`
	Hazards     int    `json:"hazards,omitempty"`
}

type UserFinder interface {
	FindUserByUUID(uuid string) (*model.User, error)
}

type SessionStarter interface {
	Start(user *model.User, stake int64, hazardCount int) (*model.Session, error)
}

type Start struct {
	log       *slog.Logger
	validator *validator.Validate
	users     UserFinder
	game      SessionStarter
}

func NewStart(log *slog.Logger, users UserFinder, game SessionStarter) *Start {
	return &Start{
		log:       log,
		validator: validator.New(),
		users:     users,
		game:      game,
	}
}

func (h *Start) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.mines.start.New"

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

		stake, err := converter.MajorToMinor(req.Stake)
		if err != nil {
			log.Error("invalid stake", sl.Err(err))

			render.JSON(w, r, response.Error("invalid stake", http.StatusBadRequest))

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

		session, err := h.game.Start(user, stake, req.Hazards)
		if err != nil {
			var gerr *gameerr.Error
			if errors.As(err, &gerr) {
				render.JSON(w, r, response.GameError(gerr))

				return
			}

			log.Error("failed to start session", sl.Err(err))

			render.JSON(w, r, response.Error("failed to start session", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response:    response.OK(),
			SessionUUID: session.UUID.String(),
			Stake:       converter.MinorToMajor(session.Stake),
			Hazards:     len(session.Hazards),
		})
	}
}
