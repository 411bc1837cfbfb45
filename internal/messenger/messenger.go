package messenger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var ErrExchangeNotFound = errors.New("messenger: exchange not found")

type MessageService interface {
	SendMessage(item Item, routingKey string, body []byte, reliable bool) error
	ConsumeMessages(item Item, bindingKey string, callback func(routingKey string, body []byte)) (func() error, error)
	GetQueueSize(item Item) (int, error)
	Close() error
}

type Messenger struct {
	amqpUri   string
	namespace string

	mu   sync.Mutex
	conn *amqp.Connection
}

type Item string

var (
	LedgerRecords Item = "ledger.records"
	LedgerPayouts Item = "ledger.payouts"
)

func (i Item) queue(namespace string) string {
	return fmt.Sprintf("%s.%s", namespace, i)
}

// RoutingKey is the topic a record is published under, e.g. "record.Sold".
func RoutingKey(r entity.Record) string {
	return "record." + string(r.Kind)
}

func NewMessenger(amqpUri, namespace string) *Messenger {
	return &Messenger{amqpUri: amqpUri, namespace: namespace}
}

func (m *Messenger) SendMessage(item Item, routingKey string, body []byte, reliable bool) error {
	ch, err := m.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	ex, err := m.declare(ch, item)
	if err != nil {
		return err
	}

	var confirms chan amqp.Confirmation
	if reliable {
		if err := ch.Confirm(false); err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Channel could not be put into confirm mode")
			return err
		}
		confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	}

	publishing := amqp.Publishing{
		Headers:      amqp.Table{},
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	if err = ch.Publish(ex.Name, routingKey, false, false, publishing); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Publish")
		return err
	}

	if reliable && !m.confirmOne(confirms) {
		return fmt.Errorf("messenger: publish to %s not confirmed", ex.Name)
	}

	zap.L().With(zap.String("exchange", ex.Name), zap.String("routingKey", routingKey)).Debug("[Queue] Published message")
	return nil
}

// ConsumeMessages binds the item's queue to bindingKey and feeds deliveries
// to callback until the returned cancel func is called.
func (m *Messenger) ConsumeMessages(item Item, bindingKey string, callback func(routingKey string, body []byte)) (func() error, error) {
	ch, err := m.openChannel()
	if err != nil {
		return nil, err
	}

	ex, err := m.declare(ch, item)
	if err != nil {
		ch.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(item.queue(m.namespace), true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to declare a queue")
		ch.Close()
		return nil, err
	}

	if err = ch.QueueBind(q.Name, bindingKey, ex.Name, false, nil); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to bind a queue")
		ch.Close()
		return nil, err
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to consume the queue")
		ch.Close()
		return nil, err
	}

	go func() {
		for d := range msgs {
			callback(d.RoutingKey, d.Body)
		}
	}()

	zap.L().With(zap.String("exchange", ex.Name), zap.String("queue", q.Name)).Debug("[Queue] Waiting for messages")
	return ch.Close, nil
}

func (m *Messenger) GetQueueSize(item Item) (int, error) {
	ch, err := m.openChannel()
	if err != nil {
		return 0, err
	}
	defer ch.Close()

	queue, err := ch.QueueInspect(item.queue(m.namespace))
	if err != nil {
		return 0, err
	}

	return queue.Messages, nil
}

func (m *Messenger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil || m.conn.IsClosed() {
		return nil
	}
	return m.conn.Close()
}

// PublishRecords is the event listener publishing committed records, one
// message per record.
func (m *Messenger) PublishRecords(msg interface{}) {
	records, ok := msg.([]entity.Record)
	if !ok {
		return
	}

	for _, r := range records {
		body, err := json.Marshal(r)
		if err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Failed to encode record")
			continue
		}
		if err := m.SendMessage(LedgerRecords, RoutingKey(r), body, true); err != nil {
			zap.L().With(zap.Uint64("seq", r.Seq), zap.Error(err)).Warn("[Queue] Record not published")
		}
	}
}

// PublishPayouts is the event listener announcing queued payouts to the
// payment agent.
func (m *Messenger) PublishPayouts(msg interface{}) {
	payouts, ok := msg.([]entity.Payout)
	if !ok {
		return
	}

	for _, p := range payouts {
		body, err := json.Marshal(p)
		if err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Failed to encode payout")
			continue
		}
		if err := m.SendMessage(LedgerPayouts, "payout."+p.To.Hex(), body, true); err != nil {
			zap.L().With(zap.Uint64("seq", p.Seq), zap.Error(err)).Warn("[Queue] Payout not published")
		}
	}
}

func (m *Messenger) declare(ch *amqp.Channel, item Item) (exchange, error) {
	ex, ok := exchanges[item]
	if !ok {
		zap.L().With(zap.String("item", string(item))).Error("[Queue] Exchange not found")
		return exchange{}, fmt.Errorf("%w: %s", ErrExchangeNotFound, item)
	}

	if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDeleted, ex.Internal, ex.NoWait, ex.Arguments); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Declare")
		return exchange{}, err
	}

	return ex, nil
}

func (m *Messenger) openConnection() (*amqp.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.IsClosed() {
		return m.conn, nil
	}

	conn, err := amqp.Dial(m.amqpUri)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to connect to RabbitMQ")
		return nil, err
	}

	m.conn = conn
	return m.conn, nil
}

func (m *Messenger) openChannel() (*amqp.Channel, error) {
	conn, err := m.openConnection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		zap.S().With(zap.Error(err)).Error("[Queue] Failed to open channel")
	}

	return ch, err
}

func (m *Messenger) confirmOne(confirms <-chan amqp.Confirmation) bool {
	if confirmed := <-confirms; confirmed.Ack {
		zap.L().Debug("[Queue] Publish confirmed")
		return true
	}

	zap.L().Warn("[Queue] Publish failed")
	return false
}
