package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRenderReceipt(t *testing.T) {
    dir := t.TempDir()
    ev := DealAcceptedEvent{
        RequestID:  12,
        CropName:   "Rice",
        FarmerName: "Rahim",
        DealerName: "Karim",
        Quantity:   50,
        Unit:       "kg",
        BidPrice:   120,
        ReceiptRef: "receipt_request_12_abc.pdf",
        AcceptedAt: "2026-08-30T10:00:00Z",
    }
    require.NoError(t, renderReceipt(dir, ev))

    data, err := os.ReadFile(filepath.Join(dir, "receipt_request_12_abc.pdf"))
    require.NoError(t, err)
    s := string(data)
    assert.Contains(t, s, "Request ID : 12")
    assert.Contains(t, s, "Crop       : Rice")
    assert.Contains(t, s, "50 kg")
    assert.Contains(t, s, "120 Tk")
}

func TestRenderReceiptMissingRef(t *testing.T) {
    err := renderReceipt(t.TempDir(), DealAcceptedEvent{RequestID: 1})
    assert.Error(t, err)
}

func TestHandleMessage(t *testing.T) {
    dir := t.TempDir()
    ev := DealAcceptedEvent{RequestID: 3, CropName: "Wheat", ReceiptRef: "receipt_request_3_x.pdf"}
    body, err := json.Marshal(ev)
    require.NoError(t, err)
    require.NoError(t, handleMessage(dir, body))
    _, err = os.Stat(filepath.Join(dir, "receipt_request_3_x.pdf"))
    assert.NoError(t, err)
}

func TestHandleMessageBadJSON(t *testing.T) {
    assert.Error(t, handleMessage(t.TempDir(), []byte("{not json")))
}
