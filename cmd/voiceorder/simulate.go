package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v2"

	"voice-order/internal/common/enum"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/repository"
	sessionRepo "voice-order/internal/repository/session"
	"voice-order/internal/service/order"
	"voice-order/internal/service/transaction"
)

func simulateCommand(rt runtime) *cli.Command {
	flags := append(pipelineFlags(),
		&cli.StringFlag{
			Name:  "text",
			Usage: "submit this text instead of a simulated recording",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "give up when the order has not settled by then",
			Value: time.Minute,
		},
	)

	return &cli.Command{
		Name:  "simulate",
		Usage: "run one order session end to end against in-memory storage",
		Flags: flags,
		Action: func(c *cli.Context) error {
			mode, err := modeFlag(c)
			if err != nil {
				return err
			}
			if c.Bool("external") && c.String("text") == "" {
				return cli.Exit("--external needs --text; simulate has no microphone", 2)
			}

			pool, err := ants.NewPool(helper.GetEnvAsIntWithDefault("WORKER_POOL_SIZE", 8), ants.WithNonblocking(true))
			if err != nil {
				return err
			}
			defer pool.Release()

			svc := rt.orderService(c, pool)
			return simulate(c, svc, mode)
		},
	}
}

func (rt runtime) orderService(c *cli.Context, executor order.Executor) order.IService {
	rp := repository.IRepository{Session: sessionRepo.NewMemoryRepo(time.Hour)}

	trxOpts := []transaction.Option{}
	orderOpts := []order.Option{}
	if c.Bool("instant") {
		trxOpts = append(trxOpts, transaction.WithDelay(0, 0))
		orderOpts = append(orderOpts, order.WithRecordingDuration(func(enum.DemoModeEnum) time.Duration { return 0 }))
	}

	return order.NewService(c.Context, order.Dependencies{
		Repository:   rp,
		Pipelines:    rt.factory(c),
		Customers:    customers(c),
		Transactions: transaction.NewService(c.Context, rp, nil, trxOpts...),
		Executor:     executor,
	}, orderOpts...)
}

func expect(res *types.Response, codes ...int) error {
	for _, code := range codes {
		if res.Code == code {
			return nil
		}
	}
	if res.Error != nil {
		return fmt.Errorf("%s: %w", res.Message, res.Error)
	}
	return fmt.Errorf("%s (status %d)", res.Message, res.Code)
}

// simulate drives one session from idle to a settled order, printing every
// step change it observes.
func simulate(c *cli.Context, svc order.IService, mode enum.DemoModeEnum) error {
	w := c.App.Writer

	res := svc.CreateSession(&order.CreateSessionRequest{Mode: mode, UseExternalProcessing: c.Bool("external")})
	if err := expect(res, http.StatusCreated); err != nil {
		return err
	}
	id := res.Data.(order.CreateSessionResponse).Session.ID
	fmt.Fprintf(w, "Session %s (%s)\n", id, mode)

	sub, res := svc.Subscribe(id)
	if res != nil {
		return expect(res)
	}
	defer sub.Close()

	if c.Bool("external") {
		if err := expect(svc.SetCredential(id, &order.CredentialRequest{APIKey: c.String("api-key")}), http.StatusOK); err != nil {
			return err
		}
	}

	if text := c.String("text"); text != "" {
		res = svc.SubmitText(id, &order.SubmitTextRequest{Text: text})
	} else {
		res = svc.StartRecording(id)
	}
	if err := expect(res, http.StatusOK, http.StatusAccepted); err != nil {
		return err
	}

	timeout := time.NewTimer(c.Duration("timeout"))
	defer timeout.Stop()
	// Snapshots can be dropped for a slow reader, so the session is also
	// polled.
	poll := time.NewTicker(250 * time.Millisecond)
	defer poll.Stop()

	var (
		lastStep  enum.OrderStepEnum
		confirmed bool
	)
	// handle reports whether the order has settled.
	handle := func(view order.SessionView) (bool, error) {
		if view.Step != lastStep {
			fmt.Fprintf(w, "-> %s (%d%%)\n", view.StepLabel, view.Progress)
			lastStep = view.Step
		}

		switch {
		case view.Step == enum.STEP_CONFIRMED:
			printSettled(w, view)
			return true, nil
		case view.Step == enum.STEP_IDLE && notified(view, enum.NOTIFY_ERROR):
			return true, cli.Exit(view.Notification.Message, 1)
		case view.Step == enum.STEP_REVIEWING && !confirmed:
			printOrder(w, view.Transcript, view.Customer, view.Order.Items, view.Order.Total, view.Order.SpecialInstructions)
			confirmed = true
			res := svc.Confirm(id)
			if err := expect(res, http.StatusOK, http.StatusAccepted); err != nil {
				return true, err
			}
		case view.Step == enum.STEP_REVIEWING && !view.TransactionInFlight && notified(view, enum.NOTIFY_ERROR):
			return true, cli.Exit(view.Notification.Message, 1)
		}
		return false, nil
	}

	for {
		var view order.SessionView
		select {
		case <-c.Context.Done():
			return c.Context.Err()
		case <-timeout.C:
			return cli.Exit("order did not settle in time", 1)
		case v, ok := <-sub.C:
			if !ok {
				return cli.Exit("session closed", 1)
			}
			view = v
		case <-poll.C:
			res := svc.GetSession(id)
			if err := expect(res, http.StatusOK); err != nil {
				return err
			}
			view = res.Data.(order.SessionView)
		}

		done, err := handle(view)
		if done || err != nil {
			return err
		}
	}
}

func notified(view order.SessionView, kind enum.NotificationKindEnum) bool {
	return view.Notification != nil && view.Notification.Kind == kind
}

func printSettled(w io.Writer, view order.SessionView) {
	parts := []string{"Order confirmed"}
	if view.Order.TransactionID != nil {
		parts = append(parts, "transaction "+*view.Order.TransactionID)
	}
	if view.Order.CardType != nil {
		parts = append(parts, "paid with "+*view.Order.CardType)
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}
