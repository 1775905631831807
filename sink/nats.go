package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// NATS publishes each fix as JSON to the subject <prefix>.<busID>.
type NATS struct {
	conn   *nats.Conn
	prefix string
}

func NewNATS(url, prefix string) (*NATS, error) {
	if prefix == "" {
		prefix = params.DefaultNATSSubjectPrefix
	}
	conn, err := nats.Connect(url,
		nats.Name("bustrack"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &NATS{conn: conn, prefix: prefix}, nil
}

func (n *NATS) Subject(busID conceptual.BusID) string {
	return n.prefix + "." + busID.String()
}

func (n *NATS) Publish(ctx context.Context, busID conceptual.BusID, fixes fix.Fixes) error {
	subject := n.Subject(busID)
	for _, f := range fixes {
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if err := n.conn.Publish(subject, b); err != nil {
			return err
		}
	}
	return n.conn.FlushWithContext(ctx)
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}
