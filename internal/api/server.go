// Package api exposes mailroom operations over HTTP.
package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/mailerr"
	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/internal/smtpsender"
)

//go:generate mockgen -destination=../../pkg/mock/backend.go -package=mock github.com/aaronromeo/mailroom/internal/api Backend

// Backend is the operation surface served by the API.
type Backend interface {
	ListAccounts(ctx context.Context) ([]accounts.Account, error)
	UpsertAccount(ctx context.Context, account accounts.Account) (string, error)
	RemoveAccount(ctx context.Context, id string) (bool, error)
	OrderedFolders(ctx context.Context, id string) ([]string, error)
	SaveFolderOrder(ctx context.Context, id string, order []string) error
	FetchRecent(ctx context.Context, id, folder string, limit int) ([]message.Summary, error)
	DeleteMessage(ctx context.Context, id, folder string, identifier any) error
	SendMessage(ctx context.Context, id string, msg smtpsender.Outbound) error
}

// NewApp builds the fiber application serving backend under /api.
func NewApp(backend Backend, log logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mailroom",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(otelfiber.Middleware())

	h := &handlers{backend: backend}
	api := app.Group("/api")
	api.Get("/accounts", h.listAccounts)
	api.Post("/accounts", h.upsertAccount)
	api.Delete("/accounts/:id", h.removeAccount)
	api.Get("/accounts/:id/folders", h.listFolders)
	api.Put("/accounts/:id/folders/order", h.saveFolderOrder)
	api.Get("/accounts/:id/messages", h.listMessages)
	api.Delete("/accounts/:id/messages/:uid", h.deleteMessage)
	api.Post("/accounts/:id/messages", h.sendMessage)

	return app
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch {
	case errors.Is(err, mailerr.ErrAccountNotFound), errors.Is(err, mailerr.ErrMessageNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, mailerr.ErrInvalidIdentifier), errors.Is(err, mailerr.ErrInvalidAccount):
		return fiber.StatusBadRequest
	case errors.Is(err, mailerr.ErrAuthentication):
		return fiber.StatusUnauthorized
	case errors.Is(err, mailerr.ErrConnection):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		body := errorBody{Error: err.Error()}
		if kind := mailerr.KindOf(err); kind != nil {
			body.Kind = kind.Error()
		}

		entry := log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": status,
		})
		if status >= fiber.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}

		return c.Status(status).JSON(body)
	}
}

func badRequest(format string, err error) error {
	msg := format
	if err != nil {
		msg = strings.TrimSpace(format + ": " + err.Error())
	}
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
