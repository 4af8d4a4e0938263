package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/matchers"
	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/internal/render"
	"github.com/aaronromeo/mailroom/internal/smtpsender"
)

type handlers struct {
	backend Backend
}

// MessageView is a summary as served to clients.
type MessageView struct {
	message.Summary
	Sender   string `json:"sender"`
	Fragment string `json:"fragment"`
}

type folderOrderRequest struct {
	Order []string `json:"order"`
}

func (h *handlers) listAccounts(c *fiber.Ctx) error {
	list, err := h.backend.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]accounts.Account, 0, len(list))
	for _, account := range list {
		out = append(out, account.Redacted())
	}
	return c.JSON(out)
}

func (h *handlers) upsertAccount(c *fiber.Ctx) error {
	var account accounts.Account
	if err := c.BodyParser(&account); err != nil {
		return badRequest("decoding account", err)
	}
	id, err := h.backend.UpsertAccount(c.UserContext(), account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id})
}

func (h *handlers) removeAccount(c *fiber.Ctx) error {
	removed, err := h.backend.RemoveAccount(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func (h *handlers) listFolders(c *fiber.Ctx) error {
	folders, err := h.backend.OrderedFolders(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(folders)
}

func (h *handlers) saveFolderOrder(c *fiber.Ctx) error {
	var req folderOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("decoding folder order", err)
	}
	if err := h.backend.SaveFolderOrder(c.UserContext(), c.Params("id"), req.Order); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) listMessages(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	summaries, err := h.backend.FetchRecent(c.UserContext(), c.Params("id"), c.Query("folder"), limit)
	if err != nil {
		return err
	}

	summaries, err = matchers.Apply(&matchers.Filter{Query: c.Query("q")}, summaries)
	if err != nil {
		return badRequest("filter", err)
	}

	out := make([]MessageView, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, MessageView{
			Summary:  summary,
			Sender:   render.DisplayName(summary.From),
			Fragment: render.ToDisplayFragment(summary),
		})
	}
	return c.JSON(out)
}

func (h *handlers) deleteMessage(c *fiber.Ctx) error {
	if err := h.backend.DeleteMessage(c.UserContext(), c.Params("id"), c.Query("folder"), c.Params("uid")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) sendMessage(c *fiber.Ctx) error {
	var msg smtpsender.Outbound
	if err := c.BodyParser(&msg); err != nil {
		return badRequest("decoding message", err)
	}
	if len(smtpsender.Recipients(msg.To)) == 0 {
		return badRequest("at least one recipient is required", nil)
	}
	if err := h.backend.SendMessage(c.UserContext(), c.Params("id"), msg); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}
