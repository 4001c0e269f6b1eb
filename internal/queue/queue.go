package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
)

// DeadLetterPublisher receives terminal failures from fire-and-forget jobs.
// Async callers never see their job's error; the dead-letter channel is how
// those failures stay observable beyond the audit log.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg DeadLetterMessage) error
	Close() error
}

var supportedChannels = []domain.Channel{
	domain.ChannelEmail,
	domain.ChannelSMS,
}

// DLQName returns the dead-letter queue name for a channel, e.g. dlq.email.
func DLQName(channel domain.Channel) string {
	return fmt.Sprintf("dlq.%s", strings.ToLower(channel.String()))
}

// DLQNames returns all dead-letter queue names.
func DLQNames() []string {
	queues := make([]string, 0, len(supportedChannels))
	for _, channel := range supportedChannels {
		queues = append(queues, DLQName(channel))
	}
	return queues
}
