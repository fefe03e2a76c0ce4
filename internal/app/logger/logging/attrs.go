package logging

import (
	"log/slog"
)

func Error(err error) slog.Attr {
	if err == nil {
		slog.Error("Going to log nil error")
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

func ConnID(connID string) slog.Attr {
	return slog.String("connId", connID)
}

func CharacterID(characterID string) slog.Attr {
	return slog.String("characterId", characterID)
}
