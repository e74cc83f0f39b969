package api

import (
	stderrors "errors"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// actionError carries the failure notification of an action.
type actionError struct {
	message string
	err     error
}

func (e *actionError) Error() string { return e.err.Error() }
func (e *actionError) Unwrap() error { return e.err }

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var fiberErr *fiber.Error
	if stderrors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch errors.Cause(unwrapAction(err)) {
	case commonErrors.ErrInvalidAmount, commonErrors.ErrInsufficientBalance, commonErrors.ErrInvalidAddress:
		return fiber.StatusBadRequest
	case commonErrors.ErrWalletNotConnected, commonErrors.ErrMissingParticipant, commonErrors.ErrMissingSubmission:
		return fiber.StatusConflict
	case commonErrors.ErrObjectNotFound:
		return fiber.StatusNotFound
	case commonErrors.ErrUnknownQuery:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadGateway
	}
}

func unwrapAction(err error) error {
	var actionErr *actionError
	if stderrors.As(err, &actionErr) {
		return actionErr.err
	}
	return err
}

// ErrorHandler renders errors as {"error": ..., "message": ...}.
func (h *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	body := fiber.Map{"error": err.Error()}

	var actionErr *actionError
	if stderrors.As(err, &actionErr) && actionErr.message != "" {
		body["message"] = actionErr.message
	}

	if code >= fiber.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": code,
			"error":  err,
		}).Error("Request failed")
	}
	return c.Status(code).JSON(body)
}
