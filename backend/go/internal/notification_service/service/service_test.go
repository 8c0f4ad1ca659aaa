package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// fakeSender records sent messages instead of calling FCM.
type fakeSender struct {
	sent      []*messaging.Message
	multicast []*messaging.MulticastMessage
	failWith  error
}

func (f *fakeSender) Send(_ context.Context, msg *messaging.Message) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.sent = append(f.sent, msg)
	return "msg-id-1", nil
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.multicast = append(f.multicast, msg)
	resp := &messaging.BatchResponse{}
	for range msg.Tokens {
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "msg-id"})
	}
	return resp, nil
}

// fakeResolver maps a single user to a fixed token list.
type fakeResolver struct {
	tokens []string
}

func (f *fakeResolver) DeviceTokens(_ uint) ([]string, error) {
	return f.tokens, nil
}

func newTestDeduper(t *testing.T) *Deduper {
	t.Helper()
	d, err := NewDeduper("")
	if err != nil {
		t.Fatalf("NewDeduper() error = %v", err)
	}
	return d
}

func TestPush_SuppressesDuplicates(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, newTestDeduper(t), nil, logger.New("notification_test", "", ""))

	n := &models.PushNotification{Token: "device-1", Title: "Bon voyage", Body: "Gate closes at 9"}

	first, err := svc.Push(context.Background(), n)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if !first.Success || first.MessageID == "" {
		t.Errorf("first push = %+v, want a successful delivery", first)
	}

	second, err := svc.Push(context.Background(), n)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if second.Success || second.Error != "duplicate suppressed" {
		t.Errorf("second push = %+v, want it suppressed", second)
	}
	if len(sender.sent) != 1 {
		t.Errorf("len(sent) = %d, want 1", len(sender.sent))
	}
}

func TestPush_DifferentBodyIsNotADuplicate(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, newTestDeduper(t), nil, logger.New("notification_test", "", ""))

	if _, err := svc.Push(context.Background(), &models.PushNotification{Token: "device-1", Title: "t", Body: "first"}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	result, err := svc.Push(context.Background(), &models.PushNotification{Token: "device-1", Title: "t", Body: "second"})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if !result.Success {
		t.Errorf("push with a different body = %+v, want delivered", result)
	}
}

func TestPush_RequiresTarget(t *testing.T) {
	svc := NewService(&fakeSender{}, newTestDeduper(t), nil, logger.New("notification_test", "", ""))
	if _, err := svc.Push(context.Background(), &models.PushNotification{Title: "t", Body: "b"}); err == nil {
		t.Error("Push() without token or topic should fail")
	}
}

func TestPush_SendFailureReportedInResult(t *testing.T) {
	sender := &fakeSender{failWith: errors.New("fcm unavailable")}
	svc := NewService(sender, newTestDeduper(t), nil, logger.New("notification_test", "", ""))

	result, err := svc.Push(context.Background(), &models.PushNotification{Token: "device-1", Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if result.Success || result.Error == "" {
		t.Errorf("result = %+v, want a failure with the FCM error", result)
	}

	// The failed notification must not be marked as sent.
	sender.failWith = nil
	retry, err := svc.Push(context.Background(), &models.PushNotification{Token: "device-1", Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if !retry.Success {
		t.Errorf("retry after failure = %+v, want delivered", retry)
	}
}

func TestPushMulticast_MixesFreshAndSuppressed(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, newTestDeduper(t), nil, logger.New("notification_test", "", ""))

	// Pre-deliver to one of the devices.
	if _, err := svc.Push(context.Background(), &models.PushNotification{Token: "dev-a", Title: "t", Body: "b"}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	summary, err := svc.PushMulticast(context.Background(), []string{"dev-a", "dev-b", "dev-c"}, "t", "b", nil)
	if err != nil {
		t.Fatalf("PushMulticast() error = %v", err)
	}
	if summary.SuccessCount != 2 || summary.FailureCount != 1 {
		t.Errorf("summary = %d/%d, want 2 delivered and 1 suppressed", summary.SuccessCount, summary.FailureCount)
	}
	if len(sender.multicast) != 1 || len(sender.multicast[0].Tokens) != 2 {
		t.Errorf("multicast went to %+v, want only the two fresh tokens", sender.multicast)
	}
}

func TestHandleEvent_ResolvesTokensFromUserID(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{tokens: []string{"dev-a", "dev-b"}}
	svc := NewService(sender, newTestDeduper(t), resolver, logger.New("notification_test", "", ""))

	payload, _ := json.Marshal(models.NotificationEvent{
		UserID: "7",
		Title:  "Trip reminder",
		Body:   "Your train leaves in an hour",
	})
	if err := svc.HandleEvent(kafka.Message{Value: payload}); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(sender.multicast) != 1 || len(sender.multicast[0].Tokens) != 2 {
		t.Errorf("multicast = %+v, want both resolved tokens", sender.multicast)
	}
}

func TestHandleEvent_TopicEvent(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, newTestDeduper(t), nil, logger.New("notification_test", "", ""))

	payload, _ := json.Marshal(models.NotificationEvent{
		Topic: "city-alerts-lisbon",
		Title: "Metro strike",
		Body:  "Expect delays on the green line",
	})
	if err := svc.HandleEvent(kafka.Message{Value: payload}); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].Topic != "city-alerts-lisbon" {
		t.Errorf("sent = %+v, want one topic message", sender.sent)
	}
}

func TestDeduper_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedupe.gob")

	d, err := NewDeduper(path)
	if err != nil {
		t.Fatalf("NewDeduper() error = %v", err)
	}
	d.Mark("dev-a", "title", "body")
	if err := d.Persist(); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	reloaded, err := NewDeduper(path)
	if err != nil {
		t.Fatalf("NewDeduper() reload error = %v", err)
	}
	if !reloaded.Seen("dev-a", "title", "body") {
		t.Error("reloaded deduper lost the recorded notification")
	}
	if reloaded.Seen("dev-b", "title", "body") {
		t.Error("reloaded deduper reports an unseen notification as seen")
	}
}
