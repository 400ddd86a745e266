package transport

import (
	"context"
	"github.com/modfin/brevq/tools"
	"github.com/sirupsen/logrus"
)

// Noop logs messages instead of delivering them.
type Noop struct {
	log *logrus.Logger
}

func NewNoop(log *logrus.Logger) *Noop {
	return &Noop{log: tools.LoggerCloner(log).New("transport-noop")}
}

func (n *Noop) Name() string { return "noop" }

func (n *Noop) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.WithField("eid", msg.ID).WithField("to", msg.To).Infof("noop send, subject %q", msg.Subject)
	return nil
}

func (n *Noop) Close() error { return nil }
