package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSAPI struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSAPI) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestTopicPublisherMarksFailures(t *testing.T) {
	api := &fakeSNSAPI{}
	pub := newTopicPublisher("topic", "arn:aws:sns:eu-west-1:1:calls", api, nil)

	err := pub.Publish(context.Background(), Event{ID: "evt-3", Operation: "post_call", Status: 500, Error: "upstream 500"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(api.input.TopicArn); got != "arn:aws:sns:eu-west-1:1:calls" {
		t.Fatalf("TopicArn = %s", got)
	}
	if outcome := api.input.MessageAttributes[AttrOutcome]; aws.ToString(outcome.StringValue) != "failure" {
		t.Fatalf("unexpected outcome attribute %#v", outcome)
	}
	if api.input.MessageGroupId != nil {
		t.Fatalf("standard topic must not carry a group id")
	}
	if !strings.Contains(aws.ToString(api.input.Message), `"error":"upstream 500"`) {
		t.Fatalf("Message missing error: %s", aws.ToString(api.input.Message))
	}
}

func TestTopicPublisherFIFO(t *testing.T) {
	api := &fakeSNSAPI{}
	pub := newTopicPublisher("topic", "arn:aws:sns:eu-west-1:1:calls.fifo", api, nil)

	if err := pub.Publish(context.Background(), Event{ID: "evt-4"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if aws.ToString(api.input.MessageGroupId) != "unknown" || aws.ToString(api.input.MessageDeduplicationId) != "evt-4" {
		t.Fatalf("unexpected FIFO fields %#v", api.input)
	}
}

func TestTopicPublisherSendError(t *testing.T) {
	pub := newTopicPublisher("topic", "arn:aws:sns:::topic", &fakeSNSAPI{err: errors.New("boom")}, nil)

	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
