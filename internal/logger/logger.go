package logger

import "go.uber.org/zap"

var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Init replaces the no-op default with a production zap logger. Call once at
// process start; library code and tests keep the silent default.
func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}
