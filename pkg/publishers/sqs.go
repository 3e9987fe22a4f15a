package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/samvad-hq/item-relay/internal/logger"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// queuePublisher sends call events to an SQS queue. On FIFO queues events are grouped by
// operation and deduplicated by event id.
type queuePublisher struct {
	id       string
	queueURL string
	fifo     bool
	api      sqsAPI
	log      logger.Logger
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("publisher %q missing sqs configuration", cfg.ID)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.Region, cfg.SQS.Credentials)
	if err != nil {
		return nil, err
	}
	return newQueuePublisher(cfg.ID, cfg.SQS.QueueURL, sqs.NewFromConfig(awsCfg), log), nil
}

func newQueuePublisher(id, queueURL string, api sqsAPI, log logger.Logger) *queuePublisher {
	return &queuePublisher{
		id:       id,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		api:      api,
		log:      orNop(log),
	}
}

func (q *queuePublisher) ID() string   { return q.id }
func (q *queuePublisher) Type() string { return TypeSQS }
func (q *queuePublisher) Close() error { return nil }

// Publish enqueues evt as a JSON message with its routing attributes.
func (q *queuePublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal call event: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(q.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: sqsAttributes(evt),
	}
	if q.fifo {
		input.MessageGroupId = aws.String(groupKey(evt))
		if evt.ID != "" {
			input.MessageDeduplicationId = aws.String(evt.ID)
		}
	}

	out, err := q.api.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("enqueue call event %s: %w", evt.ID, err)
	}
	q.log.DebugObj("call event enqueued", "publisher_sqs_delivery", map[string]any{
		"publisher_id": q.id,
		"event_id":     evt.ID,
		"message_id":   aws.ToString(out.MessageId),
	})
	return nil
}

func sqsAttributes(evt Event) map[string]types.MessageAttributeValue {
	attrs := evt.Attributes()
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		dataType := "String"
		if k == AttrStatus {
			dataType = "Number"
		}
		out[k] = types.MessageAttributeValue{DataType: aws.String(dataType), StringValue: aws.String(v)}
	}
	return out
}

// groupKey orders FIFO deliveries per relay operation.
func groupKey(evt Event) string {
	if evt.Operation == "" {
		return "unknown"
	}
	return evt.Operation
}
