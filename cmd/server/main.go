package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/moalmobayed/barq-dashboard-sub001/app"
	"github.com/moalmobayed/barq-dashboard-sub001/internal/chat"
	"github.com/moalmobayed/barq-dashboard-sub001/internal/feed"
	"github.com/moalmobayed/barq-dashboard-sub001/internal/handler"
	ipush "github.com/moalmobayed/barq-dashboard-sub001/internal/push"
	"github.com/moalmobayed/barq-dashboard-sub001/internal/session"
	"github.com/moalmobayed/barq-dashboard-sub001/lib/push"
	"github.com/moalmobayed/barq-dashboard-sub001/lib/rest"
	"github.com/moalmobayed/barq-dashboard-sub001/router"
)

func main() {
	app.Setup()

	sess := session.New(app.Backend.BearerToken)
	backend := rest.NewClient(app.Backend.BaseURL, sess.Token)

	fmt.Println("*************** SETUP PUSH ***************")
	transport := push.NewGatewayTransport(app.Push)
	perms := ipush.EnvPermissions{}
	registrar := push.NewRegistrar(app.Store.DB, transport, perms, backend)

	ctx := context.Background()
	if token, err := registrar.ObtainToken(ctx, false); err != nil {
		logrus.WithError(err).Warn("push registration failed, continuing without push")
	} else if token != "" {
		logrus.Info("Push registration restored from cache")
	}
	defer transport.Close()

	notifier := ipush.NewLogNotifier()
	worker := ipush.NewWorker(app.Store.DB, notifier, notifier, app.Push.Locale)
	stream := ipush.NewStream()
	dispatcher := ipush.NewDispatcher(transport.Payloads(), stream, worker)
	go dispatcher.Run(ctx)

	subject := feed.NewSubject()
	controller := feed.NewController(backend, app.Feed.PageSize, subject)
	poller := feed.NewPoller(backend, subject, app.Feed.PollInterval)
	poller.Start()
	defer poller.Stop()

	listener := ipush.NewListener(stream, perms, ipush.NewFeedRenderer(notifier, controller))
	go listener.Run(ctx)

	dialer := chat.NewGatewayDialer(app.Chat, sess.Token)
	chatSession := chat.NewSession(app.Chat, dialer, backend)
	if err := chatSession.Connect(ctx); err != nil {
		logrus.WithError(err).Warn("chat gateway unreachable, thread selection will retry")
	}
	handler.SetChat(chatSession)
	defer func() { handler.Chat().Close() }()

	// A credential swap tears the chat connection down and rebuilds it with
	// the new bearer.
	sess.OnChange(func() {
		logrus.Info("session credential changed, rebuilding chat connection")
		handler.Chat().Close()
		next := chat.NewSession(app.Chat, dialer, backend)
		if err := next.Connect(context.Background()); err != nil {
			logrus.WithError(err).Warn("chat gateway unreachable, thread selection will retry")
		}
		handler.SetChat(next)
	})

	handler.Feed = controller
	handler.Registrar = registrar
	handler.Auth = sess

	router.Setup()
}
