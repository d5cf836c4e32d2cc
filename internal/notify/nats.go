package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// SubjectPrefix - события публикуются в scheduler.meetings.<type>
const SubjectPrefix = "scheduler.meetings."

// Publisher - часть *nats.Conn, нужная для публикации
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier публикует события в msgpack
type NATSNotifier struct {
	pub Publisher
}

func NewNATSNotifier(pub Publisher) *NATSNotifier {
	return &NATSNotifier{pub: pub}
}

// ConnectNATS подключается к серверу с логированием асинхронных ошибок через errFn
func ConnectNATS(url string, errFn func(error)) (*nats.Conn, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("meeting-scheduler"),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			errFn(err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

func (n *NATSNotifier) Notify(_ context.Context, event Event) error {
	data, err := msgpack.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := n.pub.Publish(SubjectPrefix+string(event.Type), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
