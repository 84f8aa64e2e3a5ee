package order

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/pkg/logger"
	s3aws "voice-order/internal/pkg/storage/s3"
	"voice-order/internal/service/customer"
	"voice-order/internal/service/extraction"
	"voice-order/internal/service/transaction"
)

const (
	msgProcessingFailed = "We couldn't process your order. Please try again or type it instead."
	msgPaymentDeclined  = "Payment declined. Please try again."
	msgPaymentError     = "Payment could not be processed. Please try again."
)

// job is one run of the extraction pipeline for a session attempt. An empty
// text means the recording still has to be transcribed.
type job struct {
	id          string
	attempt     int
	mode        enum.DemoModeEnum
	useExternal bool
	blob        *types.AudioBlob
	text        string
}

func newJob(sess *models.Session) job {
	return job{
		id:          sess.ID,
		attempt:     sess.Attempt,
		mode:        sess.Mode,
		useExternal: sess.UseExternalProcessing,
	}
}

func (j job) stale(sess *models.Session) bool {
	return sess.Attempt != j.attempt || sess.Step != enum.STEP_PROCESSING
}

func (s *Service) requireCredential(sess *models.Session) error {
	if sess.UseExternalProcessing && s.credentials.get(sess.ID) == "" {
		return extraction.ErrCredentialRequired
	}
	return nil
}

// dispatch hands work to the executor. A rejected task fails the attempt.
func (s *Service) dispatch(id string, attempt int, task func()) {
	if err := s.executor.Submit(task); err != nil {
		s.failProcessing(id, attempt, fmt.Errorf("failed to schedule work: %w", err))
	}
}

func (s *Service) StartRecording(id string) *types.Response {
	sess, err := s.mutate(id, func(sess *models.Session) error {
		if sess.Step != enum.STEP_IDLE {
			return fmt.Errorf("%w: start recording while %s", ErrInvalidTransition, sess.Step)
		}
		if err := s.requireCredential(sess); err != nil {
			return err
		}
		if err := transition(sess, enum.STEP_RECORDING); err != nil {
			return err
		}
		now := s.now().UTC()
		sess.RecordingStartedAt = &now
		sess.Transcript = ""
		sess.Notification = nil
		return nil
	})
	if err != nil {
		return errorResponse(err)
	}

	if simulatedCapture(sess) {
		j := newJob(sess)
		delay := s.recordFor(sess.Mode)
		s.dispatch(id, j.attempt, func() {
			if err := helper.Sleep(s.ctx, delay); err != nil {
				return
			}
			s.finishCapture(j)
		})
	}

	return s.ok(http.StatusOK, "Recording started", sess)
}

// finishCapture ends a simulated recording and runs the pipeline in place.
func (s *Service) finishCapture(j job) {
	_, err := s.mutate(j.id, func(sess *models.Session) error {
		if sess.Attempt != j.attempt || sess.Step != enum.STEP_RECORDING {
			return errStale
		}
		return transition(sess, enum.STEP_PROCESSING)
	})
	if err != nil {
		if !errors.Is(err, errStale) {
			logger.Error.Printf("session %s: failed to finish capture: %v", j.id, err)
		}
		return
	}
	s.process(j)
}

func (s *Service) SubmitAudio(id string, blob *types.AudioBlob) *types.Response {
	if blob == nil || len(blob.Buffer) == 0 {
		return errorResponse(helper.ErrEmptyAudio)
	}

	sess, err := s.mutate(id, func(sess *models.Session) error {
		if sess.Step != enum.STEP_RECORDING {
			return fmt.Errorf("%w: audio while %s", ErrInvalidTransition, sess.Step)
		}
		return transition(sess, enum.STEP_PROCESSING)
	})
	if err != nil {
		return errorResponse(err)
	}

	j := newJob(sess)
	j.blob = blob
	s.archiveRecording(j)
	s.dispatch(id, j.attempt, func() { s.process(j) })

	return s.ok(http.StatusAccepted, "Processing order", sess)
}

func (s *Service) SubmitText(id string, req *SubmitTextRequest) *types.Response {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return errorResponse(fmt.Errorf("%w: order text is blank", ErrInvalidInput))
	}

	sess, err := s.mutate(id, func(sess *models.Session) error {
		if sess.Step != enum.STEP_IDLE {
			return fmt.Errorf("%w: text while %s", ErrInvalidTransition, sess.Step)
		}
		if err := s.requireCredential(sess); err != nil {
			return err
		}
		if err := transition(sess, enum.STEP_PROCESSING); err != nil {
			return err
		}
		sess.Transcript = text
		sess.Progress = progressTranscriptReady
		sess.Notification = nil
		return nil
	})
	if err != nil {
		return errorResponse(err)
	}

	j := newJob(sess)
	j.text = text
	s.dispatch(id, j.attempt, func() { s.process(j) })

	return s.ok(http.StatusAccepted, "Processing order", sess)
}

// process runs transcription (when needed) and extraction, committing each
// stage only if the attempt is still current.
func (s *Service) process(j job) {
	pipeline, err := s.pipelines.For(s.ctx, j.mode, j.useExternal, s.credentials.get(j.id))
	if err != nil {
		s.failProcessing(j.id, j.attempt, err)
		return
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Warning.Printf("session %s: failed to close pipeline: %v", j.id, err)
		}
	}()

	text := j.text
	if text == "" {
		text, err = pipeline.Transcribe(s.ctx, j.blob)
		if err != nil {
			s.failProcessing(j.id, j.attempt, err)
			return
		}
		_, err = s.mutate(j.id, func(sess *models.Session) error {
			if j.stale(sess) {
				return errStale
			}
			sess.Transcript = text
			sess.Progress = progressTranscriptReady
			return nil
		})
		if err != nil {
			s.logCommit(j, err)
			return
		}
	}

	out, err := pipeline.Extract(s.ctx, text)
	if err != nil {
		s.failProcessing(j.id, j.attempt, err)
		return
	}
	if s.customers != nil {
		out.Customer = customer.Enrich(s.ctx, s.customers, out.Customer)
	}

	_, err = s.mutate(j.id, func(sess *models.Session) error {
		if j.stale(sess) {
			return errStale
		}
		if err := transition(sess, enum.STEP_REVIEWING); err != nil {
			return err
		}
		sess.Customer = out.Customer
		sess.Order = models.OrderDetails{
			Items:               out.Items,
			Total:               out.Total,
			SpecialInstructions: out.SpecialInstructions,
		}
		return nil
	})
	if err != nil {
		s.logCommit(j, err)
	}
}

func (s *Service) logCommit(j job, err error) {
	if errors.Is(err, errStale) {
		logger.Info.Printf("session %s: dropped result of attempt %d", j.id, j.attempt)
		return
	}
	logger.Error.Printf("session %s: failed to commit result: %v", j.id, err)
}

// failProcessing sends the session back to idle with a notification. There
// is no automatic retry.
func (s *Service) failProcessing(id string, attempt int, cause error) {
	logger.Warning.Printf("session %s attempt %d failed: %v", id, attempt, cause)

	_, err := s.mutate(id, func(sess *models.Session) error {
		if sess.Attempt != attempt || (sess.Step != enum.STEP_PROCESSING && sess.Step != enum.STEP_RECORDING) {
			return errStale
		}
		clearWork(sess)
		s.notify(sess, enum.NOTIFY_ERROR, msgProcessingFailed)
		return nil
	})
	if err != nil && !errors.Is(err, errStale) {
		logger.Error.Printf("session %s: failed to record failure: %v", id, err)
	}
}

// archiveRecording copies an uploaded recording to object storage.
func (s *Service) archiveRecording(j job) {
	if s.archive == nil || j.blob == nil {
		return
	}

	key := s3aws.RecordingKey(j.id, j.attempt, j.blob.MimeType)
	err := s.executor.Submit(func() {
		if err := s.archive.UploadFile(s.ctx, key, j.blob.Buffer, j.blob.MimeType); err != nil {
			logger.Warning.Printf("session %s: failed to archive recording: %v", j.id, err)
			return
		}
		_, err := s.mutate(j.id, func(sess *models.Session) error {
			if sess.Attempt != j.attempt {
				return errStale
			}
			sess.RecordingKey = key
			return nil
		})
		if err != nil && !errors.Is(err, errStale) {
			logger.Warning.Printf("session %s: failed to store recording key: %v", j.id, err)
		}
	})
	if err != nil {
		logger.Warning.Printf("session %s: archive skipped: %v", j.id, err)
	}
}

// Confirm finishes a reviewed order. The simple profile confirms at once;
// the enhanced profile runs a payment attempt first.
func (s *Service) Confirm(id string) *types.Response {
	sess, err := s.mutate(id, func(sess *models.Session) error {
		if sess.Step != enum.STEP_REVIEWING {
			return fmt.Errorf("%w: confirm while %s", ErrInvalidTransition, sess.Step)
		}
		if sess.TransactionInFlight {
			return ErrTransactionInFlight
		}
		sess.Notification = nil
		if sess.Mode == enum.MODE_SIMPLE {
			if err := transition(sess, enum.STEP_CONFIRMED); err != nil {
				return err
			}
			s.notify(sess, enum.NOTIFY_SUCCESS, "Order confirmed")
			return nil
		}
		sess.TransactionInFlight = true
		sess.Order.TransactionID = nil
		sess.Order.TransactionStatus = nil
		sess.Order.CardType = nil
		return nil
	})
	if err != nil {
		return errorResponse(err)
	}

	if sess.Step == enum.STEP_CONFIRMED {
		return s.ok(http.StatusOK, "Order confirmed", sess)
	}

	attempt := sess.Attempt
	req := &transaction.TransactionRequest{
		Amount:     sess.Order.Total,
		Currency:   helper.DefaultCurrency,
		CustomerID: sess.Customer.ID,
		Items:      sess.Order.Items,
	}
	if err := s.executor.Submit(func() {
		res, err := s.transactions.Process(s.ctx, id, req)
		s.finishTransaction(id, attempt, res, err)
	}); err != nil {
		s.finishTransaction(id, attempt, nil, err)
		return errorResponse(err)
	}

	return s.ok(http.StatusAccepted, "Payment processing", sess)
}

func (s *Service) finishTransaction(id string, attempt int, res *transaction.TransactionResponse, cause error) {
	_, err := s.mutate(id, func(sess *models.Session) error {
		if sess.Attempt != attempt || sess.Step != enum.STEP_REVIEWING || !sess.TransactionInFlight {
			return errStale
		}
		sess.TransactionInFlight = false

		if cause != nil {
			logger.Warning.Printf("session %s: transaction error: %v", id, cause)
			s.notify(sess, enum.NOTIFY_ERROR, msgPaymentError)
			return nil
		}

		status := res.Status.ToString()
		sess.Order.TransactionID = &res.TransactionID
		sess.Order.TransactionStatus = &status
		sess.Order.CardType = res.CardType

		if res.Status != enum.TRX_SUCCESS {
			s.notify(sess, enum.NOTIFY_ERROR, msgPaymentDeclined)
			return nil
		}
		if err := transition(sess, enum.STEP_CONFIRMED); err != nil {
			return err
		}
		s.notify(sess, enum.NOTIFY_SUCCESS, fmt.Sprintf("Payment approved. Transaction %s", res.TransactionID))
		return nil
	})
	if err != nil {
		if errors.Is(err, errStale) {
			logger.Info.Printf("session %s: dropped transaction result of attempt %d", id, attempt)
			return
		}
		logger.Error.Printf("session %s: failed to record transaction: %v", id, err)
	}
}
