package jobdef

import (
	"go.uber.org/fx"
)

// Module exports the job definition registry for dependency injection.
// The application loads its embedded definition files into the registry
// during startup.
var Module = fx.Options(
	fx.Provide(NewRegistry),
)
