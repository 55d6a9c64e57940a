package email

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []*EmailMessage
	done chan struct{}
}

func (c *captureSender) Send(ctx context.Context, msg *EmailMessage) error {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
	if c.done != nil {
		c.done <- struct{}{}
	}
	return nil
}

func TestSendBookingCreatedRendersTemplate(t *testing.T) {
	sender := &captureSender{done: make(chan struct{}, 1)}
	svc := NewServiceWithSender(sender, 4)
	defer svc.Close()

	ok := svc.SendBookingCreated("tenant@example.com", BookingEmail{
		Name:           "Ada",
		ApartmentTitle: "Loft on Main",
		StartDate:      "2024-01-01",
		EndDate:        "2024-01-04",
		TotalPrice:     "300.00",
		BookingURL:     "http://localhost:3000/bookings/1",
	})
	if !ok {
		t.Fatal("expected message to be queued")
	}

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not deliver message")
	}

	msg := sender.msgs[0]
	if msg.To != "tenant@example.com" || !strings.Contains(msg.Subject, "Loft on Main") {
		t.Fatalf("unexpected message header: %+v", msg)
	}
	if !strings.Contains(msg.HTMLContent, "300.00") || !strings.Contains(msg.HTMLContent, "<!DOCTYPE html>") {
		t.Fatalf("template not rendered into layout: %s", msg.HTMLContent)
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sender := &blockingSender{release: block}
	svc := NewServiceWithSender(sender, 1)

	// first message is taken by the worker and blocks, second fills the buffer
	svc.Queue("a@example.com", "", TemplatePlain, "s", map[string]string{"Body": "1"})
	deadline := time.Now().Add(2 * time.Second)
	for !sender.started() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	svc.Queue("b@example.com", "", TemplatePlain, "s", map[string]string{"Body": "2"})

	if svc.Queue("c@example.com", "", TemplatePlain, "s", map[string]string{"Body": "3"}) {
		t.Fatal("expected third message to be dropped")
	}
	if err := svc.Notify(context.Background(), "d@example.com", "s", "b"); err == nil {
		t.Fatal("expected Notify to report a full queue")
	}

	close(block)
	svc.Close()
}

type blockingSender struct {
	mu      sync.Mutex
	running bool
	release chan struct{}
}

func (b *blockingSender) Send(ctx context.Context, msg *EmailMessage) error {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	<-b.release
	return nil
}

func (b *blockingSender) started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func TestSendGridClientPostsJSON(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewSendGridClient(SendGridConfig{APIKey: "key", FromEmail: "no-reply@rentnest.test", Endpoint: srv.URL})
	err := c.Send(context.Background(), &EmailMessage{To: "x@example.com", Subject: "hi", HTMLContent: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"subject":"hi"`) || !strings.Contains(gotBody, `"text/html"`) {
		t.Fatalf("unexpected body %s", gotBody)
	}
}

func TestSendGridClientReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewSendGridClient(SendGridConfig{APIKey: "bad", Endpoint: srv.URL})
	if err := c.Send(context.Background(), &EmailMessage{To: "x@example.com"}); err == nil {
		t.Fatal("expected error on 401")
	}
}
