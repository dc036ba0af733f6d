package messaging

import (
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestGetName(t *testing.T) {
	if got := getName("gallery", CatalogChanged); got != "gallery_catalog_changed" {
		t.Errorf("Expected gallery_catalog_changed, got %s", got)
	}
}

func TestCatalogChangeRoundtrip(t *testing.T) {
	url := os.Getenv("RABBIT_HOST")
	if url == "" {
		t.Skip("RABBIT_HOST not set")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		t.Fatal(err)
	}
	prefix := "test" + time.Now().Format("150405")
	if err = DefineTopic(ch, prefix, CatalogChanged); err != nil {
		t.Fatal(err)
	}
	received := make(chan CatalogChange, 1)
	err = ListenForCatalogChanges(ch, prefix, func(c CatalogChange) error {
		received <- c
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err = SendChange(conn, prefix, CatalogChanged, CatalogChange{Handles: []string{"style-pop"}, Time: time.Now()}); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-received:
		if len(c.Handles) != 1 || c.Handles[0] != "style-pop" {
			t.Errorf("Expected style-pop change, got %+v", c)
		}
	case <-time.After(5 * time.Second):
		t.Error("Expected change to be delivered")
	}
}
