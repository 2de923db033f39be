// Package streaming - token lifecycle event feed over NATS Streaming.
// Events are strategy encoded on publish and pass the allowlist gate on
// delivery, so a subscriber never reconstructs an event of an untrusted type.
package streaming

import (
	"strings"
	"sync"
	"time"

	"github.com/nats-io/stan.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/imperiuse/safe-codec/codec"
	"github.com/imperiuse/safe-codec/logger"
	nc "github.com/imperiuse/safe-codec/nats"
	"github.com/imperiuse/safe-codec/strategy"
	"github.com/imperiuse/safe-codec/uuid"
)

// EventFeedI - publish/subscribe surface of the feed.
type EventFeedI interface {
	PublishSync(Subj, any) error
	PublishAsync(Subj, any, AckHandler) (GUID, error)
	DefaultAckHandler() AckHandler
	Subscribe(Subj, Handler, ...SubscriptionOption) (Subscription, error)
	QueueSubscribe(Subj, QueueGroup, Handler, ...SubscriptionOption) (Subscription, error)
	Reconnect(bool) error
	RegisterAfterReconnectCallbackChan(chan any)
	DeregisterAfterReconnectCallbackChan()

	UseCustomLogger(logger.Logger)
	UseCustomRegistry(*strategy.Registry)
	Close() error
}

type (
	client struct {
		clusterID string
		clientID  string
		options   []Option

		log logger.Logger
		reg *strategy.Registry

		m            sync.RWMutex
		sc           PureNatsStunConnI
		callbackChan chan any
	}

	// URL - url.
	URL = string

	// Option - option.
	Option = stan.Option
)

//nolint golint
//go:generate mockery --name=PureNatsStunConnI
type (
	// PureNatsStunConnI represents a connection to the NATS Streaming subsystem.
	// The connection is safe to use in multiple Go routines concurrently.
	PureNatsStunConnI interface {
		Publish(subj string, data []byte) error
		PublishAsync(subj string, data []byte, ackHandler AckHandler) (string, error)
		Subscribe(subj string, msgHandler MsgHandler, subscriptionOptions ...SubscriptionOption) (Subscription, error)
		QueueSubscribe(subj string, queueGroup string, msgHandler MsgHandler, subscriptionOptions ...SubscriptionOption) (Subscription, error)
		Close() error
	}

	// Handler - process one decoded event.
	Handler = func(*Msg, any)

	// Subj - topic name.
	Subj = nc.Subj
	// QueueGroup - queue group name.
	QueueGroup = nc.QueueGroup

	// Msg - stan.Msg.
	Msg = stan.Msg
	// MsgHandler - stan.MsgHandler. func(msg *Msg)
	MsgHandler = stan.MsgHandler
	// Subscription - stan.Subscription.
	Subscription = stan.Subscription
	// SubscriptionOption - stan.SubscriptionOption.
	SubscriptionOption = stan.SubscriptionOption
	// AckHandler - stan.AckHandler. func(string, error)
	AckHandler = stan.AckHandler

	// GUID - id of a msg sent to Nats Streaming.
	GUID = string
)

// EmptyGUID  "".
const EmptyGUID = ""

// nolint golint
var (
	DefaultClusterID  = "test-cluster"
	DurableNameOption = stan.DurableName
)

// New - create the feed client. Empty clientID gets a fresh uuid4.
// nolint golint
func New(clusterID string, clientID string, dsn []URL, options ...Option) (*client, error) {
	c := NewDefaultClient()
	c.clusterID = clusterID

	if clientID == "" {
		c.clientID = uuid.UUID4()
	} else {
		c.clientID = clientID
	}

	if options == nil {
		// Default settings for internal NATS Streaming client
		options = c.DefaultNatsStreamingOptions()
	}

	// DSN for NATS connection, e.g. "nats://127.0.0.1:4222" stan.DefaultNatsURL
	if dsn != nil {
		options = append(options, stan.NatsURL(strings.Join(dsn, ", ")))
	}

	c.options = options

	sc, err := stan.Connect(c.clusterID, c.clientID, c.options...)
	if err != nil {
		return nil, errors.Wrap(err, "[New] can't create nats-streaming conn")
	}

	c.m.Lock()
	defer c.m.Unlock()

	c.sc = sc

	return c, nil
}

// NewDefaultClient - empty default client.
// nolint golint
func NewDefaultClient() *client {
	return &client{
		log: logger.Log,
		reg: strategy.Default(),
		m:   sync.RWMutex{},
	}
}

func (c *client) DefaultNatsStreamingOptions() []Option {
	const (
		maxTry           = 5
		timeoutReconnect = time.Second
	)

	return []Option{
		stan.Pings(stan.DefaultPingInterval, stan.DefaultPingMaxOut),
		stan.ConnectWait(stan.DefaultConnectWait),
		stan.MaxPubAcksInflight(stan.DefaultMaxPubAcksInflight),
		stan.PubAckWait(stan.DefaultAckWait),
		stan.SetConnectionLostHandler(func(sc stan.Conn, reason error) {
			for i := 0; i < maxTry; i++ {
				c.log.Sugar().Infof("[ConnectionLostHandler] Try recreate stan conn: %d", i)

				err := c.Reconnect(false)
				if err == nil {
					c.log.Sugar().Infof("[ConnectionLostHandler] Reconnect successfully: %d", i)

					return
				}

				c.log.Sugar().Warnf("[ConnectionLostHandler] Reconnect %d failed: %v", i, err)

				time.Sleep(timeoutReconnect)
			}

			c.log.Warn("[ConnectionLostHandler] Reconnect attempts finished")
		}),
	}
}

// UseCustomLogger - register your own logger instance of zap.Logger.
func (c *client) UseCustomLogger(log logger.Logger) {
	c.log = log
}

// UseCustomRegistry - carry events through reg instead of the process default registry.
func (c *client) UseCustomRegistry(reg *strategy.Registry) {
	if reg != nil {
		c.reg = reg
	}
}

// PublishSync will publish to the NATS Streaming cluster and wait for an ACK.
func (c *client) PublishSync(subj Subj, event any) error {
	c.log.Debug("[PublishSync]",
		zap.String("subj", string(subj)),
	)

	b, err := c.reg.Current().Serialize(event)
	if err != nil {
		c.log.Error("[PublishSync] Serialize",
			zap.String("subj", string(subj)),
			zap.Error(err),
		)

		return errors.Wrap(err, "[PublishSync]")
	}

	c.m.RLock()
	err = c.sc.Publish(string(subj), b)
	c.m.RUnlock()

	if errors.Is(err, stan.ErrConnectionClosed) {
		return c.Reconnect(false)
	}

	return err
}

// PublishAsync will publish to the cluster and asynchronously process
// the ACK or error state. It will return the GUID for the message being sent.
func (c *client) PublishAsync(subj Subj, event any, ah AckHandler) (GUID, error) {
	c.log.Debug("[PublishAsync]",
		zap.String("subj", string(subj)),
	)

	b, err := c.reg.Current().Serialize(event)
	if err != nil {
		c.log.Error("[PublishAsync] Serialize",
			zap.String("subj", string(subj)),
			zap.Error(err))

		return EmptyGUID, errors.Wrap(err, "[PublishAsync]")
	}

	if ah == nil {
		c.log.Debug("[PublishAsync] AckHandler does not set. Use DefaultAckHandler",
			zap.String("subj", string(subj)),
		)

		ah = c.DefaultAckHandler()
	}

	c.m.RLock()
	guid, err := c.sc.PublishAsync(string(subj), b, ah)
	c.m.RUnlock()

	if errors.Is(err, stan.ErrConnectionClosed) {
		if err = c.Reconnect(false); err != nil {
			return guid, err
		}
	}

	return guid, err
}

// DefaultAckHandler - return default ack func with logging problem's, !please better use own ack handler func!
func (c *client) DefaultAckHandler() AckHandler {
	return func(ackUID string, err error) {
		if err != nil {
			c.log.Error("Warning: error publishing msg", zap.Error(err), zap.String("msg_id", ackUID))
		} else {
			c.log.Debug("Received ack for msg", zap.String("msg_id", ackUID))
		}
	}
}

// Subscribe - subscribe on subj, every delivered event is decoded through the
// allowlist gate before handler sees it.
func (c *client) Subscribe(subj Subj, handler Handler, opt ...SubscriptionOption) (Subscription, error) {
	c.log.Debug("[Subscribe]", zap.String("subj", string(subj)))

	c.m.RLock()
	defer c.m.RUnlock()

	return c.sc.Subscribe(string(subj), c.gatedMsgHandler("[Subscribe]", subj, "", handler), opt...)
}

// QueueSubscribe will perform a queue subscription with the given options to the cluster.
func (c *client) QueueSubscribe(subj Subj, qG QueueGroup, handler Handler, opt ...SubscriptionOption) (Subscription, error) {
	c.log.Debug("[QueueSubscribe]", zap.String("subj", string(subj)), zap.String("qgroup", string(qG)))

	c.m.RLock()
	defer c.m.RUnlock()

	return c.sc.QueueSubscribe(string(subj), string(qG), c.gatedMsgHandler("[QueueSubscribe]", subj, qG, handler), opt...)
}

func (c *client) gatedMsgHandler(scope string, subj Subj, qG QueueGroup, handler Handler) MsgHandler {
	return func(msg *Msg) {
		if msg == nil {
			c.log.Warn(scope+" Msg is nil",
				zap.String("subj", string(subj)),
				zap.String("qgroup", string(qG)))

			return
		}

		if msg.Redelivered {
			c.log.Warn(scope+" Redelivered msg received",
				zap.String("subj", string(subj)),
				zap.String("qgroup", string(qG)))
		}

		event, err := c.reg.Current().Deserialize(msg.Data)
		if err != nil {
			var disallowed *codec.DisallowedTypeError
			if errors.As(err, &disallowed) {
				c.log.Warn(scope+" Blocked disallowed event",
					zap.String("subj", string(subj)),
					zap.String("qgroup", string(qG)),
					zap.String("type_name", disallowed.TypeName))

				return
			}

			c.log.Error(scope+" Deserialize",
				zap.String("subj", string(subj)),
				zap.String("qgroup", string(qG)),
				zap.Error(err))

			return
		}

		handler(msg, event)
	}
}

// Reconnect - recreate the stan connection, optionally under a new client id.
func (c *client) Reconnect(withNewClientID bool) error {
	c.m.Lock()
	defer c.m.Unlock()

	if withNewClientID {
		c.clientID = uuid.UUID4()
	}

	sc, err := stan.Connect(c.clusterID, c.clientID, c.options...)
	if err != nil {
		return errors.Wrap(err, "[Reconnect] can't create nats streaming connection. stan.Connect - error")
	}

	c.sc = sc
	c.notifyReconnected()

	return nil
}

// RegisterAfterReconnectCallbackChan - ch gets a notification after every
// successful Reconnect. Subscriptions do not survive a reconnect, this is the
// seam to resubscribe on.
func (c *client) RegisterAfterReconnectCallbackChan(ch chan any) {
	c.m.Lock()
	defer c.m.Unlock()

	c.callbackChan = ch
}

// DeregisterAfterReconnectCallbackChan - stop reconnect notifications.
func (c *client) DeregisterAfterReconnectCallbackChan() {
	c.m.Lock()
	defer c.m.Unlock()

	c.callbackChan = nil
}

// caller must hold c.m
func (c *client) notifyReconnected() {
	if c.callbackChan == nil {
		return
	}

	select {
	case c.callbackChan <- struct{}{}:
	default:
		c.log.Warn("[Reconnect] full callbackChan")
	}
}

// Close - close the underlying stan connection.
func (c *client) Close() error {
	c.m.Lock()
	defer c.m.Unlock()

	if c.sc == nil {
		return nil
	}

	if err := c.sc.Close(); err != nil {
		return errors.Wrap(err, "c.sc.Close")
	}

	return nil
}
