package streaming

import (
	"testing"
	"time"

	"github.com/nats-io/stan.go"
	"github.com/nats-io/stan.go/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/imperiuse/safe-codec/codec"
	"github.com/imperiuse/safe-codec/strategy"
	"github.com/imperiuse/safe-codec/streaming/mocks"
	"github.com/imperiuse/safe-codec/token"
)

// rogueEvent lives outside the token namespace, so the feed must drop it.
type rogueEvent struct {
	Cmd string
}

type StreamingClientTestSuit struct {
	suite.Suite
	feed     *client
	mockStan *mocks.PureNatsStunConnI
}

func (suite *StreamingClientTestSuit) SetupTest() {
	reg := strategy.NewRegistry()
	err := reg.SetStrategy(strategy.NewAllowlistStrategy(
		[]string{"github.com/imperiuse/safe-codec/token."},
		strategy.WithLogger(zap.NewNop()),
	))
	suite.Require().NoError(err)

	suite.mockStan = &mocks.PureNatsStunConnI{}
	suite.feed = NewDefaultClient()
	suite.feed.UseCustomLogger(zap.NewNop())
	suite.feed.UseCustomRegistry(reg)
	suite.feed.sc = suite.mockStan
}

func TestStreamingClientTestSuite(t *testing.T) {
	suite.Run(t, new(StreamingClientTestSuit))
}

func savedEvent(id string) token.Event {
	return token.Event{
		Op: token.OpSaved,
		ID: id,
		At: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}
}

func (suite *StreamingClientTestSuit) Test_PublishSync() {
	suite.mockStan.On("Publish", "token.events", mock.Anything).Return(nil)

	event := savedEvent("tok-1")
	suite.Require().NoError(suite.feed.PublishSync("token.events", event))

	// what went over the wire must decode back to the same event
	sent := suite.mockStan.Calls[0].Arguments.Get(1).([]byte)
	decoded, err := suite.feed.reg.Current().Deserialize(sent)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), event, decoded)
}

func (suite *StreamingClientTestSuit) Test_PublishSync_SerializeError() {
	err := suite.feed.PublishSync("token.events", struct{ F func() }{})
	assert.Error(suite.T(), err)
	suite.mockStan.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)
}

func (suite *StreamingClientTestSuit) Test_PublishAsync() {
	suite.mockStan.On("PublishAsync", "token.events", mock.Anything, mock.Anything).
		Return("guid-1", nil)

	guid, err := suite.feed.PublishAsync("token.events", savedEvent("tok-2"), nil)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "guid-1", guid)

	// nil ack handler must be replaced with the default one before the publish
	ah := suite.mockStan.Calls[0].Arguments.Get(2)
	assert.NotNil(suite.T(), ah)
}

func (suite *StreamingClientTestSuit) Test_Subscribe_GateBlocksDisallowed() {
	var msgHandler MsgHandler

	suite.mockStan.On("Subscribe", "token.events", mock.Anything).
		Return(nil, nil).
		Run(func(args mock.Arguments) {
			msgHandler = args.Get(1).(stan.MsgHandler)
		})

	received := make(chan any, 1)
	_, err := suite.feed.Subscribe("token.events", func(_ *Msg, event any) {
		received <- event
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(msgHandler)

	poisoned, err := codec.Marshal(rogueEvent{Cmd: "rm -rf /"})
	suite.Require().NoError(err)

	msgHandler(&stan.Msg{MsgProto: pb.MsgProto{Data: poisoned}})
	select {
	case <-received:
		suite.T().Fatal("handler must never see a disallowed event")
	default:
	}

	want := savedEvent("tok-3")
	legit, err := suite.feed.reg.Current().Serialize(want)
	suite.Require().NoError(err)

	msgHandler(&stan.Msg{MsgProto: pb.MsgProto{Data: legit}})
	select {
	case got := <-received:
		assert.Equal(suite.T(), want, got)
	default:
		suite.T().Fatal("handler was not invoked for an allowed event")
	}
}

func (suite *StreamingClientTestSuit) Test_QueueSubscribe() {
	var msgHandler MsgHandler

	suite.mockStan.On("QueueSubscribe", "token.events", "feed-workers", mock.Anything).
		Return(nil, nil).
		Run(func(args mock.Arguments) {
			msgHandler = args.Get(2).(stan.MsgHandler)
		})

	var handled atomic.Int32
	_, err := suite.feed.QueueSubscribe("token.events", "feed-workers", func(_ *Msg, _ any) {
		handled.Inc()
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(msgHandler)

	legit, err := suite.feed.reg.Current().Serialize(savedEvent("tok-4"))
	suite.Require().NoError(err)

	// nil and garbage are dropped, redelivered msgs still go through
	msgHandler(nil)
	msgHandler(&stan.Msg{MsgProto: pb.MsgProto{Data: []byte("garbage")}})
	assert.Zero(suite.T(), handled.Load())

	msgHandler(&stan.Msg{MsgProto: pb.MsgProto{Data: legit, Redelivered: true}})
	assert.Equal(suite.T(), int32(1), handled.Load())
}

func (suite *StreamingClientTestSuit) Test_AfterReconnectCallbackChan() {
	ch := make(chan any, 1)
	suite.feed.RegisterAfterReconnectCallbackChan(ch)

	suite.feed.m.Lock()
	suite.feed.notifyReconnected()
	suite.feed.m.Unlock()

	select {
	case <-ch:
	default:
		suite.T().Fatal("no notification after reconnect")
	}

	// a full channel must not block the reconnect itself
	suite.feed.RegisterAfterReconnectCallbackChan(make(chan any))
	suite.feed.m.Lock()
	suite.feed.notifyReconnected()
	suite.feed.m.Unlock()

	suite.feed.DeregisterAfterReconnectCallbackChan()
	suite.feed.m.Lock()
	suite.feed.notifyReconnected()
	suite.feed.m.Unlock()
	assert.Empty(suite.T(), ch, "deregistered chan must stay silent")
}

func (suite *StreamingClientTestSuit) Test_Close() {
	suite.mockStan.On("Close").Return(nil)

	assert.NoError(suite.T(), suite.feed.Close())
	suite.mockStan.AssertCalled(suite.T(), "Close")

	// a never connected client closes cleanly
	assert.NoError(suite.T(), NewDefaultClient().Close())
}
