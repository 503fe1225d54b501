package widget

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-talk/core/widget"

var logger = otelslog.NewLogger(scopeName)
