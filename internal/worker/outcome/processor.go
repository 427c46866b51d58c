// Package outcome consumes the run outcome events kobot publishes.
package outcome

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"kobot/internal/ports/messaging"
	"kobot/internal/ports/notify"
)

// Processor logs every outcome and relays failed runs to an optional notifier.
type Processor struct {
	relay notify.Notifier

	mu       sync.Mutex
	byStatus map[string]int
}

func NewProcessor(relay notify.Notifier) *Processor {
	return &Processor{relay: relay, byStatus: make(map[string]int)}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, fmt.Errorf("empty message body")
	}
	var event messaging.OutcomeEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		return false, 0, fmt.Errorf("decode outcome event: %w", err)
	}

	entry := log.Info()
	if event.Status == "FAILED" {
		entry = log.Warn()
	}
	entry.Str("run_id", event.RunID).
		Str("date", event.Date).
		Str("direction", event.Direction).
		Str("status", event.Status).
		Str("kind", event.Kind).
		Str("clock_in", event.ClockIn).
		Str("clock_out", event.ClockOut).
		Bool("dryrun", event.DryRun).
		Msg(event.Message)

	if event.Status != "FAILED" || p.relay == nil {
		p.count(event.Status)
		return false, 0, nil
	}
	body := fmt.Sprintf("<b>Run:</b> %s<br><b>Date:</b> %s<br><b>Direction:</b> %s<br><b>Failure:</b> %s",
		html.EscapeString(event.RunID), html.EscapeString(event.Date),
		html.EscapeString(event.Direction), html.EscapeString(event.Message))
	if err := p.relay.Send(ctx, body); err != nil {
		return true, calculateBackoff(receiveCount(msg)), fmt.Errorf("relay failed outcome: %w", err)
	}
	p.count(event.Status)
	return false, 0, nil
}

// count records an acknowledged event.
func (p *Processor) count(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byStatus[status]++
}

// Counts returns how many events were seen per status.
func (p *Processor) Counts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.byStatus))
	for k, v := range p.byStatus {
		out[k] = v
	}
	return out
}

func receiveCount(msg types.Message) int {
	n, err := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// calculateBackoff doubles the visibility delay per receive, capped at one hour.
func calculateBackoff(retryCount int) int32 {
	backoff := math.Pow(2, float64(retryCount)) * 10
	if backoff > 3600 {
		return 3600
	}
	return int32(backoff)
}
