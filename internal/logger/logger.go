package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はslog.Loggerを生成して返す。
// developmentがtrueの場合はデバッグレベルのテキスト形式、
// それ以外はInfoレベルのJSON構造化ログとなる。
func Setup(w io.Writer, development bool) *slog.Logger {
	if development {
		handler := slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		return slog.New(handler)
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// SetupDefault は生成したロガーをグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer, development bool) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, development)
	slog.SetDefault(logger)
}
