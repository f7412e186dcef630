package gateway

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/signalgate/internal/idgen"
	"github.com/alfredjeanlab/signalgate/internal/model"
)

// LogGateway writes every outbound message to a logger instead of a chat
// transport. serve falls back to it when NATS is not configured.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway creates a gateway that logs to logger.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, to model.ClientID, msg model.Message) (model.MessageRef, error) {
	if to == 0 {
		return "", ErrNoRecipient
	}
	ref, err := idgen.MessageRef()
	if err != nil {
		return "", err
	}
	codes := make([]string, 0, len(msg.Buttons))
	for _, b := range msg.Buttons {
		codes = append(codes, b.Code)
	}
	g.logger.InfoContext(ctx, "outbound message",
		"ref", ref,
		"to", to,
		"text", msg.Text,
		"buttons", codes)
	return model.MessageRef(ref), nil
}
