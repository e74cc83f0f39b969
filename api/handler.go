// Package api exposes the synchronization layer over HTTP.
package api

import (
	"context"
	"time"

	"github.com/ClipFinance/quest-lib/actions"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/querycache"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Service is the synchronization layer served by the handler.
type Service interface {
	Network() string
	Signer() string
	Healthy() bool
	Queries() []querycache.Status

	Events(ctx context.Context) ([]types.Event, error)
	Event(ctx context.Context, id string) (types.Event, error)
	OwnedEvents(ctx context.Context, address string) ([]types.Event, error)
	Participation(ctx context.Context, address string) (types.Participation, error)
	Balances(ctx context.Context, address string) (types.BalanceSnapshot, error)
	Refresh(ctx context.Context) error

	CreateEvent(ctx context.Context, in actions.CreateEventInput, opts actions.Options) (*types.TransactionResult, error)
	JoinEvent(ctx context.Context, eventID string, opts actions.Options) (*types.TransactionResult, error)
	SubmitProof(ctx context.Context, eventID, proofLink string, opts actions.Options) (*types.TransactionResult, error)
	ClaimReward(ctx context.Context, eventID string, opts actions.Options) (*types.TransactionResult, error)
	VerifyParticipants(ctx context.Context, eventID string, opts actions.Options) (*types.TransactionResult, error)
	BuyToken(ctx context.Context, in actions.BuyTokenInput, opts actions.Options) (*types.TransactionResult, error)
}

// Handler serves the HTTP routes.
type Handler struct {
	service Service
	logger  *logrus.Logger
	timeout time.Duration
}

// DefaultTimeout bounds reads; mutations wait for the settle refresh and get twice as long.
const DefaultTimeout = 30 * time.Second

// NewHandler creates a handler.
func NewHandler(service Service, logger *logrus.Logger) *Handler {
	return &Handler{service: service, logger: logger, timeout: DefaultTimeout}
}

type queryStatus struct {
	Key       string    `json:"key"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updatedAt"`
	Error     string    `json:"error,omitempty"`
}

// Health reports the node connection and the state of every query.
func (h *Handler) Health(c *fiber.Ctx) error {
	queries := h.service.Queries()
	statuses := make([]queryStatus, 0, len(queries))
	for _, q := range queries {
		status := queryStatus{Key: q.Key.String(), State: string(q.State), UpdatedAt: q.UpdatedAt}
		if q.Err != nil {
			status.Error = q.Err.Error()
		}
		statuses = append(statuses, status)
	}

	code := fiber.StatusOK
	if !h.service.Healthy() {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"network": h.service.Network(),
		"signer":  h.service.Signer(),
		"healthy": h.service.Healthy(),
		"queries": statuses,
	})
}

func (h *Handler) ListEvents(c *fiber.Ctx) error {
	ctx, cancel := h.context(c, h.timeout)
	defer cancel()

	events, err := h.service.Events(ctx)
	if err != nil {
		return err
	}
	return c.JSON(events)
}

func (h *Handler) GetEvent(c *fiber.Ctx) error {
	ctx, cancel := h.context(c, h.timeout)
	defer cancel()

	event, err := h.service.Event(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(event)
}

func (h *Handler) AccountEvents(c *fiber.Ctx) error {
	ctx, cancel := h.context(c, h.timeout)
	defer cancel()

	events, err := h.service.OwnedEvents(ctx, c.Params("address"))
	if err != nil {
		return err
	}
	return c.JSON(events)
}

func (h *Handler) AccountParticipation(c *fiber.Ctx) error {
	ctx, cancel := h.context(c, h.timeout)
	defer cancel()

	facts, err := h.service.Participation(ctx, c.Params("address"))
	if err != nil {
		return err
	}
	return c.JSON(facts)
}

func (h *Handler) AccountBalances(c *fiber.Ctx) error {
	ctx, cancel := h.context(c, h.timeout)
	defer cancel()

	snapshot, err := h.service.Balances(ctx, c.Params("address"))
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}

// Refresh refetches every query.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	ctx, cancel := h.context(c, h.timeout)
	defer cancel()

	if err := h.service.Refresh(ctx); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var in actions.CreateEventInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return h.mutate(c, func(ctx context.Context, opts actions.Options) (*types.TransactionResult, error) {
		return h.service.CreateEvent(ctx, in, opts)
	})
}

func (h *Handler) JoinEvent(c *fiber.Ctx) error {
	id := c.Params("id")
	return h.mutate(c, func(ctx context.Context, opts actions.Options) (*types.TransactionResult, error) {
		return h.service.JoinEvent(ctx, id, opts)
	})
}

func (h *Handler) SubmitProof(c *fiber.Ctx) error {
	var req struct {
		ProofLink string `json:"proofLink"`
	}
	if err := c.BodyParser(&req); err != nil || req.ProofLink == "" {
		return fiber.NewError(fiber.StatusBadRequest, "proofLink is required")
	}
	id := c.Params("id")
	return h.mutate(c, func(ctx context.Context, opts actions.Options) (*types.TransactionResult, error) {
		return h.service.SubmitProof(ctx, id, req.ProofLink, opts)
	})
}

func (h *Handler) ClaimReward(c *fiber.Ctx) error {
	id := c.Params("id")
	return h.mutate(c, func(ctx context.Context, opts actions.Options) (*types.TransactionResult, error) {
		return h.service.ClaimReward(ctx, id, opts)
	})
}

func (h *Handler) VerifyParticipants(c *fiber.Ctx) error {
	id := c.Params("id")
	return h.mutate(c, func(ctx context.Context, opts actions.Options) (*types.TransactionResult, error) {
		return h.service.VerifyParticipants(ctx, id, opts)
	})
}

func (h *Handler) BuyToken(c *fiber.Ctx) error {
	var in actions.BuyTokenInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return h.mutate(c, func(ctx context.Context, opts actions.Options) (*types.TransactionResult, error) {
		return h.service.BuyToken(ctx, in, opts)
	})
}

type actionFunc func(ctx context.Context, opts actions.Options) (*types.TransactionResult, error)

// mutate runs an action and answers with its notification message.
func (h *Handler) mutate(c *fiber.Ctx, run actionFunc) error {
	ctx, cancel := h.context(c, 2*h.timeout)
	defer cancel()

	var message string
	opts := actions.Options{
		Notify: func(m string, _ types.NotificationKind) { message = m },
	}

	result, err := run(ctx, opts)
	if err != nil {
		return &actionError{message: message, err: err}
	}
	return c.JSON(fiber.Map{
		"message":     message,
		"transaction": result,
	})
}

func (h *Handler) context(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), timeout)
}
