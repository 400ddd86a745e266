package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/modfin/brevq"
	"github.com/urfave/cli/v2"
	"os"
)

func main() {
	app := &cli.App{
		Name:  "brevq",
		Usage: "a cli for queueing and managing emails on a brevqd server",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				EnvVars: []string{"BREVQ_HOST"},
				Value:   "http://localhost:8080",
				Usage:   "address of the brevqd api",
			},
		},

		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "queue an email to a single recipient",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "to", Required: true, Usage: "recipient, 'email' or 'name <email>'"},
				}, contentFlags...),
				Action: send,
			},
			{
				Name:  "batch",
				Usage: "queue the same email to many recipients",
				Flags: append([]cli.Flag{
					&cli.StringSliceFlag{Name: "to", Required: true, Usage: "recipient, repeatable"},
				}, contentFlags...),
				Action: queueBatch,
			},
			{
				Name:      "batch-status",
				Usage:     "show the aggregated status of a batch",
				ArgsUsage: "<batch id>",
				Action:    batchStatus,
			},
			{
				Name:      "get",
				Usage:     "show a queued email",
				ArgsUsage: "<email id>",
				Action:    get,
			},
			{
				Name:  "list",
				Usage: "list the queue, most recent first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "page-size", Value: 20},
				},
				Action: list,
			},
			{
				Name:      "update",
				Usage:     "edit a queued email that is not yet locked",
				ArgsUsage: "<email id>",
				Flags:     contentFlags,
				Action:    update,
			},
			{
				Name:      "cancel",
				Usage:     "remove a queued email",
				ArgsUsage: "<email id>",
				Action:    cancel,
			},
			{
				Name:   "status",
				Usage:  "show queue length, remaining capacity and the next send time",
				Action: status,
			},
			{
				Name:  "config",
				Usage: "show or change the scheduler settings",
				Subcommands: []*cli.Command{
					{
						Name:   "get",
						Action: settings,
					},
					{
						Name: "set",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "daily-limit"},
							&cli.StringFlag{Name: "cron", Usage: "standard five field cron expression"},
							&cli.BoolFlag{Name: "enabled"},
						},
						Action: updateSettings,
					},
				},
				Action: settings,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "got err", err)
		os.Exit(1)
	}
}

func client(c *cli.Context) *brevq.Client {
	return brevq.NewClient(c.String("host"))
}

func output(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func id(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one id argument")
	}
	return c.Args().First(), nil
}

func send(c *cli.Context) error {
	cnt, err := content(c)
	if err != nil {
		return err
	}
	receipt, err := client(c).Schedule(c.Context, brevq.ScheduleRequest{
		To:      c.String("to"),
		Content: cnt,
	})
	if err != nil {
		return err
	}
	return output(receipt)
}

func queueBatch(c *cli.Context) error {
	cnt, err := content(c)
	if err != nil {
		return err
	}
	receipt, err := client(c).QueueBatch(c.Context, brevq.BatchRequest{
		Recipients: c.StringSlice("to"),
		Content:    cnt,
	})
	if err != nil {
		return err
	}
	return output(receipt)
}

func batchStatus(c *cli.Context) error {
	batchID, err := id(c)
	if err != nil {
		return err
	}
	st, err := client(c).Batch(c.Context, batchID)
	if err != nil {
		return err
	}
	return output(st)
}

func get(c *cli.Context) error {
	emailID, err := id(c)
	if err != nil {
		return err
	}
	e, err := client(c).Get(c.Context, emailID)
	if err != nil {
		return err
	}
	return output(e)
}

func list(c *cli.Context) error {
	page, err := client(c).List(c.Context, c.Int("page"), c.Int("page-size"))
	if err != nil {
		return err
	}
	return output(page)
}

func update(c *cli.Context) error {
	emailID, err := id(c)
	if err != nil {
		return err
	}
	cnt, err := content(c)
	if err != nil {
		return err
	}

	req := brevq.UpdateRequest{
		ID:             emailID,
		ScheduledFor:   cnt.ScheduledFor,
		BlacklistRules: cnt.BlacklistRules,
		EditableUntil:  cnt.EditableUntil,
	}
	if c.IsSet("subject") {
		req.Subject = &cnt.Subject
	}
	if c.IsSet("html") || c.IsSet("html-file") {
		req.HTML = &cnt.HTML
	}
	if c.IsSet("priority") {
		req.Priority = &cnt.Priority
	}

	e, err := client(c).Update(c.Context, req)
	if err != nil {
		return err
	}
	return output(e)
}

func cancel(c *cli.Context) error {
	emailID, err := id(c)
	if err != nil {
		return err
	}
	return client(c).Cancel(c.Context, emailID)
}

func status(c *cli.Context) error {
	st, err := client(c).Status(c.Context)
	if err != nil {
		return err
	}
	return output(st)
}

func settings(c *cli.Context) error {
	s, err := client(c).Settings(c.Context)
	if err != nil {
		return err
	}
	return output(s)
}

func updateSettings(c *cli.Context) error {
	var u brevq.SettingsUpdate
	if c.IsSet("daily-limit") {
		n := c.Int("daily-limit")
		u.DailyLimit = &n
	}
	if c.IsSet("cron") {
		s := c.String("cron")
		u.CronSchedule = &s
	}
	if c.IsSet("enabled") {
		b := c.Bool("enabled")
		u.Enabled = &b
	}
	s, err := client(c).UpdateSettings(c.Context, u)
	if err != nil {
		return err
	}
	return output(s)
}
