package avatar

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-talk/core/avatar"

var logger = otelslog.NewLogger(scopeName)
