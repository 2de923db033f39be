package nats

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/imperiuse/safe-codec/codec"
	"github.com/imperiuse/safe-codec/nats/mocks"
	"github.com/imperiuse/safe-codec/strategy"
)

type (
	echoMsg struct {
		Text string
	}

	forbiddenCmd struct {
		Cmd string
	}
)

func init() {
	codec.Register(echoMsg{})
	codec.Register(forbiddenCmd{})
}

type NatsClientTestSuit struct {
	suite.Suite
	ctx        context.Context
	ctxCancel  context.CancelFunc
	natsClient *client
	mockNats   *mocks.PureNatsConnI
}

// The SetupTest method will be run before every test in the suite.
func (suite *NatsClientTestSuit) SetupTest() {
	suite.ctx, suite.ctxCancel = context.WithTimeout(context.Background(), time.Second)

	reg := strategy.NewRegistry()
	err := reg.SetStrategy(strategy.NewAllowlistStrategy(
		[]string{"github.com/imperiuse/safe-codec/nats.echoMsg"}, // echo only, forbiddenCmd stays outside
		strategy.WithLogger(zap.NewNop()),
	))
	suite.Require().NoError(err)

	suite.mockNats = &mocks.PureNatsConnI{}
	suite.natsClient = NewDefaultClient()
	suite.natsClient.UseCustomLogger(zap.NewNop())
	suite.natsClient.UseCustomRegistry(reg)
	suite.natsClient.conn = suite.mockNats
}

// The TearDownTest method will be run after every test in the suite.
func (suite *NatsClientTestSuit) TearDownTest() {
	suite.ctxCancel()
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to suite.Run
func TestNatsClientTestSuite(t *testing.T) {
	suite.Run(t, new(NatsClientTestSuit))
}

func (suite *NatsClientTestSuit) Test_PingPong() {
	suite.mockNats.On("RequestWithContext", mock.Anything, "ping.ok", []byte("ping")).
		Return(&nats.Msg{Data: []byte("pong")}, nil)
	suite.mockNats.On("RequestWithContext", mock.Anything, "ping.down", []byte("ping")).
		Return(nil, errors.New("no responders"))

	ok, err := suite.natsClient.Ping(suite.ctx, "ping.ok")
	assert.Nil(suite.T(), err, "Ping err")
	assert.True(suite.T(), ok, "Ping must be true")

	ok, err = suite.natsClient.Ping(suite.ctx, "ping.down")
	assert.NotNil(suite.T(), err, "Ping err must be non nil")
	assert.False(suite.T(), ok, "Ping must be false")
}

func (suite *NatsClientTestSuit) Test_Request() {
	reply, err := suite.natsClient.reg.Current().Serialize(echoMsg{Text: "world"})
	suite.Require().NoError(err)

	suite.mockNats.On("RequestWithContext", mock.Anything, "echo", mock.Anything).
		Return(&nats.Msg{Data: reply}, nil)

	got, err := suite.natsClient.Request(suite.ctx, "echo", echoMsg{Text: "hello"})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), echoMsg{Text: "world"}, got)

	// the request payload sent over the wire must be strategy encoded
	sent := suite.mockNats.Calls[0].Arguments.Get(2).([]byte)
	decoded, err := suite.natsClient.reg.Current().Deserialize(sent)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), echoMsg{Text: "hello"}, decoded)
}

func (suite *NatsClientTestSuit) Test_Request_DisallowedReply() {
	poisoned, err := codec.Marshal(forbiddenCmd{Cmd: "payload"})
	suite.Require().NoError(err)

	suite.mockNats.On("RequestWithContext", mock.Anything, "echo.evil", mock.Anything).
		Return(&nats.Msg{Data: poisoned}, nil)

	got, err := suite.natsClient.Request(suite.ctx, "echo.evil", echoMsg{Text: "hi"})
	suite.Require().Error(err)
	assert.Nil(suite.T(), got)

	var disallowed *codec.DisallowedTypeError
	suite.Require().ErrorAs(err, &disallowed)
	assert.Equal(suite.T(), "github.com/imperiuse/safe-codec/nats.forbiddenCmd", disallowed.TypeName)
}

func (suite *NatsClientTestSuit) Test_ReplyHandler() {
	var handlerMsgHandler nats.MsgHandler

	suite.mockNats.On("Subscribe", "serve.echo", mock.Anything).
		Return(&nats.Subscription{}, nil).
		Run(func(args mock.Arguments) {
			handlerMsgHandler = args.Get(1).(nats.MsgHandler)
		})

	received := make(chan any, 1)
	sub, err := suite.natsClient.ReplyHandler("serve.echo", func(_ *Msg, request any) any {
		received <- request

		return echoMsg{Text: "reply"}
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(sub)
	suite.Require().NotNil(handlerMsgHandler)

	request, err := suite.natsClient.reg.Current().Serialize(echoMsg{Text: "incoming"})
	suite.Require().NoError(err)

	// simulate delivery (Respond fails on an unbound msg, which is fine here - the decode path is under test)
	handlerMsgHandler(&nats.Msg{Data: request})

	select {
	case got := <-received:
		assert.Equal(suite.T(), echoMsg{Text: "incoming"}, got)
	default:
		suite.T().Fatal("handler was not invoked")
	}
}

func (suite *NatsClientTestSuit) Test_ReplyQueueHandler_BlocksDisallowed() {
	var handlerMsgHandler nats.MsgHandler

	suite.mockNats.On("QueueSubscribe", "serve.q", "workers", mock.Anything).
		Return(&nats.Subscription{}, nil).
		Run(func(args mock.Arguments) {
			handlerMsgHandler = args.Get(2).(nats.MsgHandler)
		})

	var handled atomic.Int32
	_, err := suite.natsClient.ReplyQueueHandler("serve.q", "workers", func(_ *Msg, _ any) any {
		handled.Inc()

		return echoMsg{}
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(handlerMsgHandler)

	poisoned, err := codec.Marshal(forbiddenCmd{Cmd: "owned"})
	suite.Require().NoError(err)

	handlerMsgHandler(&nats.Msg{Data: poisoned})
	assert.Zero(suite.T(), handled.Load(), "handler must never see a disallowed payload")

	// a well formed request still goes through
	request, err := suite.natsClient.reg.Current().Serialize(echoMsg{Text: "legit"})
	suite.Require().NoError(err)

	handlerMsgHandler(&nats.Msg{Data: request})
	assert.Equal(suite.T(), int32(1), handled.Load())
}

func (suite *NatsClientTestSuit) Test_Close() {
	suite.mockNats.On("Drain").Return(nil)
	suite.mockNats.On("Close").Return()

	assert.Nil(suite.T(), suite.natsClient.Close())
	suite.mockNats.AssertCalled(suite.T(), "Drain")
	suite.mockNats.AssertCalled(suite.T(), "Close")
}
