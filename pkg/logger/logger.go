package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerOpts ロガーの初期化オプション
type LoggerOpts struct {
	Production bool
}

// Init は環境に応じてグローバルロガーを設定します。
// 本番ではJSON・Infoレベル、それ以外はコンソール出力・Debugレベルです。
func Init(opts ...LoggerOpts) {
	var o LoggerOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Production {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		return
	}
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger()
	log.Logger = log.Logger.Level(zerolog.DebugLevel)
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
