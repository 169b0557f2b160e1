package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartReceiptConsumer connects to RabbitMQ, declares the
// deal.accepted queue (durable), and consumes messages. For each
// accepted deal it renders a receipt document under receiptDir using
// the receipt reference the accept response already handed to the
// client. The function runs a reconnect loop with exponential backoff
// and keeps running across broker restarts; processing errors are
// logged and the offending message rejected without requeue so the
// server continues operating.
func StartReceiptConsumer(receiptDir string) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(brokerURL())
        if err != nil {
            log.Printf("receipt-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, receiptDir); err != nil {
            log.Printf("receipt-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection, receiptDir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("receipt-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(dealQueueName, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(dealQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(receiptDir, d.Body); err != nil {
            log.Printf("receipt-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(receiptDir string, body []byte) error {
    var ev DealAcceptedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    return renderReceipt(receiptDir, ev)
}

// renderReceipt writes the deal receipt to receiptDir/<ReceiptRef>.
// The document is line oriented; the reference was generated at
// accept time, so the URL returned to the dealer resolves once this
// runs.
func renderReceipt(receiptDir string, ev DealAcceptedEvent) error {
    if ev.ReceiptRef == "" {
        return errors.New("event missing receipt_ref")
    }
    if err := os.MkdirAll(receiptDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", receiptDir, err)
    }
    fpath := filepath.Join(receiptDir, filepath.Base(ev.ReceiptRef))

    content := fmt.Sprintf(
        "DEAL RECEIPT\n"+
            "============\n"+
            "Request ID : %d\n"+
            "Crop       : %s\n"+
            "Farmer     : %s\n"+
            "Dealer     : %s\n"+
            "Quantity   : %g %s\n"+
            "Price      : %g Tk\n"+
            "Accepted   : %s\n",
        ev.RequestID, ev.CropName, ev.FarmerName, ev.DealerName,
        ev.Quantity, ev.Unit, ev.BidPrice, ev.AcceptedAt)

    if err := os.WriteFile(fpath, []byte(content), 0o644); err != nil {
        return fmt.Errorf("write receipt: %w", err)
    }
    return nil
}
