package listener

import (
	"go.uber.org/fx"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/listener/logging"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/listener/notification"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/listener/tracing"
)

// Module aggregates all listener modules of the batch framework.
// The CompletionSignaler is not part of this aggregate; applications that
// need the completion signal provide it together with the channel they own.
var Module = fx.Options(
	logging.Module,
	tracing.Module,
	notification.Module,
)
