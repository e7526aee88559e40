package sl

import (
	"fmt"
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Secret keeps the first 5 characters of a credential so logs can tell tokens apart
func Secret(some string) slog.Attr {
	r := "***"
	if len(some) > 5 {
		r = fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		r = "?"
	}
	return slog.String("secret", r)
}

func Module(mod string) slog.Attr {
	return slog.String("mod", mod)
}

func User(userId int64) slog.Attr {
	return slog.Int64("user", userId)
}

// Text shortens message text for log lines, counting runes.
func Text(text string) slog.Attr {
	r := []rune(text)
	if len(r) > 50 {
		text = string(r[:50]) + "..."
	}
	return slog.String("text", text)
}
