package echo

import (
	"context"

	"goecho/config"
	ncerr "goecho/internal/errors"
	"goecho/internal/link"
	"goecho/internal/metrics"
	"goecho/util"
)

// Outcome classifies a finished transaction.
type Outcome int

const (
	Failure Outcome = iota
	Success
)

// String returns "success" or "failure".
func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// TransactionResult reports the byte counts of one echo exchange.
type TransactionResult struct {
	Sent     int
	Received int
	Outcome  Outcome
}

// Transaction performs a single timed request/response exchange over
// an established link.  One attempt per run: transaction failures are
// never retried.
type Transaction struct {
	Link    link.Link
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Run opens a socket, resolves the echo server, sends the probe
// payload, and waits (bounded by the configured timeout) for a reply.
// The socket is closed on every path.
func (t *Transaction) Run(ctx context.Context) (TransactionResult, error) {
	var res TransactionResult

	transport := link.Stream
	if t.Config.Datagram {
		transport = link.Datagram
	}

	sock, err := t.Link.Open(transport)
	if err != nil {
		return res, t.fail("open", "", err)
	}
	defer sock.Close()

	ip, err := t.Link.Resolve(ctx, t.Config.Host)
	if err != nil {
		return res, t.fail("resolve", t.Config.Host, err)
	}
	addr := util.FormatAddr(ip, t.Config.Port)

	sock.SetTimeout(t.Config.Timeout)

	payload := []byte(config.ProbePayload)
	buf := make([]byte, len(payload))

	switch transport {
	case link.Stream:
		if err := sock.Connect(ctx, addr); err != nil {
			return res, t.fail("connect", addr, err)
		}
		t.Logger.Info("stream: connected with %s server", t.Config.Host)

		res.Sent, err = sock.Send(payload)
		if err != nil {
			return res, t.fail("send", addr, err)
		}
		t.Logger.Info("stream: sent %d bytes to %s", res.Sent, t.Config.Host)

		res.Received, err = sock.Recv(buf)

	case link.Datagram:
		res.Sent, err = sock.SendTo(addr, payload)
		if err != nil {
			return res, t.fail("send", addr, err)
		}
		t.Logger.Info("datagram: sent %d bytes to %s", res.Sent, t.Config.Host)

		// The reply is accepted from any sender.
		res.Received, _, err = sock.RecvFrom(buf)
	}

	t.Metrics.BytesSent(int64(res.Sent))

	if res.Received <= 0 {
		if err != nil {
			t.Logger.Debug("receive failed: %v", err)
		}
		res.Received = 0
		return res, t.fail("recv", addr, ncerr.ErrNoReply)
	}

	t.Metrics.BytesReceived(int64(res.Received))
	t.Logger.Info("received %d bytes from echo server", res.Received)

	res.Outcome = Success
	return res, nil
}

func (t *Transaction) fail(op, addr string, err error) error {
	werr := ncerr.WrapTransaction(op, addr, err)
	t.Metrics.RecordError(werr.Error())
	return werr
}
