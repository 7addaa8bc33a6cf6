package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/memstore"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/notify"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap/zaptest"
)

func TestPublisher_PublishOrderEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event models.OrderEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.OrderID != 7 || event.EventType != models.EventOrderCreated {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	pub := NewPublisher(producer, "order_events", zaptest.NewLogger(t))
	err := pub.PublishOrderEvent(context.Background(), models.OrderEvent{
		OrderID: 7, BuyerID: 1, Status: models.OrderStatusPending, EventType: models.EventOrderCreated,
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestPublisher_PublishOrderEvent_Failure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewPublisher(producer, "order_events", zaptest.NewLogger(t))
	err := pub.PublishOrderEvent(context.Background(), models.OrderEvent{OrderID: 1, EventType: models.EventOrderCreated})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("Expected ErrOutOfBrokers, got %v", err)
	}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func seedUsers(t *testing.T) (*memstore.Store, models.User, models.User) {
	store := memstore.New()
	buyer := models.User{Name: "B", Email: "buyer@example.com", Role: models.RoleUser}
	vendor := models.User{Name: "V", Email: "vendor@example.com", Role: models.RoleVendor}
	for _, u := range []*models.User{&buyer, &vendor} {
		if err := store.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("Failed to seed user: %v", err)
		}
	}
	return store, buyer, vendor
}

func TestDispatcher_OrderCreated(t *testing.T) {
	store, buyer, vendor := seedUsers(t)
	n := &recordingNotifier{}
	d := NewDispatcher(store, n, zaptest.NewLogger(t))

	err := d.Handle(context.Background(), models.OrderEvent{
		OrderID: 3, BuyerID: buyer.ID, VendorIDs: []int{vendor.ID, 999}, EventType: models.EventOrderCreated,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(n.sent) != 2 {
		t.Fatalf("Expected buyer and vendor notifications, got %+v", n.sent)
	}
	if n.sent[0].To != buyer.Email || n.sent[1].To != vendor.Email {
		t.Errorf("Unexpected recipients: %+v", n.sent)
	}
}

func TestDispatcher_StatusChangedAndFailure(t *testing.T) {
	store, buyer, _ := seedUsers(t)
	n := &recordingNotifier{}
	d := NewDispatcher(store, n, zaptest.NewLogger(t))

	event := models.OrderEvent{OrderID: 3, BuyerID: buyer.ID, Status: models.OrderStatusShipped, EventType: models.EventOrderStatusChanged}
	if err := d.PublishOrderEvent(context.Background(), event); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(n.sent) != 1 || n.sent[0].Subject != "Order Update" {
		t.Errorf("Unexpected notifications: %+v", n.sent)
	}

	n.err = errors.New("smtp down")
	if err := d.Handle(context.Background(), event); apperr.KindOf(err) != apperr.KindUpstreamUnavailable {
		t.Errorf("Expected upstream error, got %v", err)
	}
}

type channelHandler chan models.OrderEvent

func (h channelHandler) Handle(_ context.Context, event models.OrderEvent) error {
	h <- event
	return nil
}

func TestConsumer_Run(t *testing.T) {
	consumer := mocks.NewConsumer(t, nil)
	consumer.SetTopicMetadata(map[string][]int32{"order_events": {0}})

	payload, _ := json.Marshal(models.OrderEvent{OrderID: 11, EventType: models.EventOrderCreated})
	pc := consumer.ExpectConsumePartition("order_events", 0, sarama.OffsetNewest)
	pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte("not json")})
	pc.YieldMessage(&sarama.ConsumerMessage{Value: payload})

	handler := make(channelHandler, 1)
	c := NewConsumer(consumer, "order_events", handler, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case event := <-handler:
		if event.OrderID != 11 {
			t.Errorf("Expected order 11, got %d", event.OrderID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for event")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
	if err := consumer.Close(); err != nil {
		t.Errorf("Expected no error closing consumer, got %v", err)
	}
}
