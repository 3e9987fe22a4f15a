package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSAPI struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSAPI) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestQueuePublisherSendsAttributes(t *testing.T) {
	api := &fakeSQSAPI{}
	pub := newQueuePublisher("queue", "https://sqs.eu-west-1.amazonaws.com/1/calls", api, nil)

	evt := Event{ID: "evt-1", Operation: "exchange_call", Status: 200}
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(api.input.QueueUrl); got != "https://sqs.eu-west-1.amazonaws.com/1/calls" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attrs := api.input.MessageAttributes
	if aws.ToString(attrs[AttrOperation].StringValue) != "exchange_call" ||
		aws.ToString(attrs[AttrOutcome].StringValue) != "success" ||
		aws.ToString(attrs[AttrEventID].StringValue) != "evt-1" {
		t.Fatalf("unexpected attributes %#v", attrs)
	}
	if status := attrs[AttrStatus]; aws.ToString(status.DataType) != "Number" || aws.ToString(status.StringValue) != "200" {
		t.Fatalf("unexpected status attribute %#v", status)
	}
	if api.input.MessageGroupId != nil || api.input.MessageDeduplicationId != nil {
		t.Fatalf("standard queue must not carry FIFO fields")
	}
	if !strings.Contains(aws.ToString(api.input.MessageBody), `"operation":"exchange_call"`) {
		t.Fatalf("MessageBody missing operation: %s", aws.ToString(api.input.MessageBody))
	}
}

func TestQueuePublisherFIFOGroupsByOperation(t *testing.T) {
	api := &fakeSQSAPI{}
	pub := newQueuePublisher("queue", "https://sqs.eu-west-1.amazonaws.com/1/calls.fifo", api, nil)

	if err := pub.Publish(context.Background(), Event{ID: "evt-2", Operation: "post_call"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if aws.ToString(api.input.MessageGroupId) != "post_call" || aws.ToString(api.input.MessageDeduplicationId) != "evt-2" {
		t.Fatalf("unexpected FIFO fields group=%v dedup=%v", api.input.MessageGroupId, api.input.MessageDeduplicationId)
	}
}

func TestQueuePublisherSendError(t *testing.T) {
	pub := newQueuePublisher("queue", "https://example.com/queue", &fakeSQSAPI{err: errors.New("boom")}, nil)

	if err := pub.Publish(context.Background(), Event{Operation: "get_call_obj"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
