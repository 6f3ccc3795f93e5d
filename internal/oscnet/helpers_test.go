package oscnet

import (
	"fmt"

	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

func captureLogs(lines *[]string) func() {
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		*lines = append(*lines, fmt.Sprintf(format, v...))
	})
	return func() { monitoring.Logf = original }
}
