package order

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidTransition   = errors.New("invalid step transition")
	ErrTransactionInFlight = errors.New("a transaction is already in flight")
	ErrInvalidInput        = errors.New("invalid input")

	// errStale marks a background result that belongs to an earlier attempt.
	errStale = errors.New("stale attempt")
)

const progressTranscriptReady = 75

// Forward edges only. Any step may also return to idle through reset.
var transitions = map[enum.OrderStepEnum][]enum.OrderStepEnum{
	enum.STEP_IDLE:       {enum.STEP_RECORDING, enum.STEP_PROCESSING},
	enum.STEP_RECORDING:  {enum.STEP_PROCESSING},
	enum.STEP_PROCESSING: {enum.STEP_REVIEWING},
	enum.STEP_REVIEWING:  {enum.STEP_CONFIRMED},
}

func canTransition(from, to enum.OrderStepEnum) bool {
	if to == enum.STEP_IDLE {
		return true
	}
	return lo.Contains(transitions[from], to)
}

func progressFor(step enum.OrderStepEnum) int {
	switch step {
	case enum.STEP_RECORDING:
		return 25
	case enum.STEP_PROCESSING:
		return 50
	case enum.STEP_REVIEWING, enum.STEP_CONFIRMED:
		return 100
	}
	return 0
}

func transition(sess *models.Session, to enum.OrderStepEnum) error {
	if !canTransition(sess.Step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Step, to)
	}
	sess.Step = to
	sess.StepLabel = to.Label()
	sess.Progress = progressFor(to)
	if to != enum.STEP_RECORDING {
		sess.RecordingStartedAt = nil
	}
	return nil
}

// clearWork puts the session back to idle with every order field emptied.
func clearWork(sess *models.Session) {
	sess.Step = enum.STEP_IDLE
	sess.StepLabel = enum.STEP_IDLE.Label()
	sess.Progress = 0
	sess.Transcript = ""
	sess.Customer = models.CustomerDetails{}
	sess.Order = models.OrderDetails{Items: []models.OrderItem{}}
	sess.TransactionInFlight = false
	sess.RecordingStartedAt = nil
	sess.RecordingKey = ""
}

// simulatedCapture reports whether a started recording completes itself.
func simulatedCapture(sess *models.Session) bool {
	return sess.Mode == enum.MODE_SIMPLE || !sess.UseExternalProcessing
}

// normalizeMode applies the capability flag only where it has meaning.
func normalizeMode(mode enum.DemoModeEnum, useExternal bool) (enum.DemoModeEnum, bool) {
	if mode == "" {
		mode = enum.MODE_ENHANCED
	}
	return mode, mode == enum.MODE_ENHANCED && useExternal
}
