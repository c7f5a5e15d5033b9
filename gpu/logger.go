package gpu

import (
	"log/slog"

	"github.com/gogpu/framebuf"
)

// slogger returns the shared framebuf logger. All logging in this package
// goes through this function, so framebuf.SetLogger covers gpu as well.
func slogger() *slog.Logger { return framebuf.Logger() }
