package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath names the log file for one CLI session, e.g. combatlog.20260212_213836.log.
func LogFilePath(logsDir, app string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", app, sessionStart.Format("20060102_150405")),
	)
}
