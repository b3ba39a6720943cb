package notification

import (
	"go.uber.org/fx"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/ports"
)

// Module provides notification-related components.
var Module = fx.Options(
	// 1. Provides a concrete implementation of Notifier.
	fx.Provide(fx.Annotate(
		NewDummyNotifier,
		fx.As(new(ports.Notifier)),
	)),

	// 2. Provides the completion listener backed by the Notifier.
	fx.Provide(fx.Annotate(NewNotificationListenerImpl, fx.ResultTags(`group:"notification_listeners"`))),
)
