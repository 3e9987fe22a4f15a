package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/samvad-hq/item-relay/internal/logger"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// topicPublisher broadcasts call events on an SNS topic so subscribers can filter on the
// operation and outcome attributes.
type topicPublisher struct {
	id       string
	topicARN string
	fifo     bool
	api      snsAPI
	log      logger.Logger
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.Region, cfg.SNS.Credentials)
	if err != nil {
		return nil, err
	}
	return newTopicPublisher(cfg.ID, cfg.SNS.TopicARN, sns.NewFromConfig(awsCfg), log), nil
}

func newTopicPublisher(id, topicARN string, api snsAPI, log logger.Logger) *topicPublisher {
	return &topicPublisher{
		id:       id,
		topicARN: topicARN,
		fifo:     strings.HasSuffix(topicARN, ".fifo"),
		api:      api,
		log:      orNop(log),
	}
}

func (t *topicPublisher) ID() string   { return t.id }
func (t *topicPublisher) Type() string { return TypeSNS }
func (t *topicPublisher) Close() error { return nil }

// Publish broadcasts evt as a JSON message with its routing attributes.
func (t *topicPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal call event: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn:          aws.String(t.topicARN),
		Message:           aws.String(string(payload)),
		MessageAttributes: snsAttributes(evt),
	}
	if t.fifo {
		input.MessageGroupId = aws.String(groupKey(evt))
		if evt.ID != "" {
			input.MessageDeduplicationId = aws.String(evt.ID)
		}
	}

	out, err := t.api.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("broadcast call event %s: %w", evt.ID, err)
	}
	t.log.DebugObj("call event broadcast", "publisher_sns_delivery", map[string]any{
		"publisher_id": t.id,
		"event_id":     evt.ID,
		"message_id":   aws.ToString(out.MessageId),
	})
	return nil
}

func snsAttributes(evt Event) map[string]types.MessageAttributeValue {
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
