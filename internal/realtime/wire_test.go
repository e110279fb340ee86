package realtime

import (
	"testing"

	"github.com/waconsole/waconsole/internal/platform"
)

func TestDecodeNewMessage(t *testing.T) {
	raw := []byte(`{"event":"new-message","data":{"messageId":"m1","messageBody":"hello","isFromMe":false,"chatId":"c1@g.us","sessionName":"work","timestamp":1735689600000}}`)

	kind, payload, err := decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindMessage {
		t.Errorf("kind = %q, want %q", kind, KindMessage)
	}
	msg, ok := payload.(platform.Message)
	if !ok {
		t.Fatalf("payload type %T, want platform.Message", payload)
	}
	if msg.MessageID != "m1" || msg.Body != "hello" || msg.ChatID != "c1@g.us" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestDecodeMessageStatus(t *testing.T) {
	raw := []byte(`{"event":"message-status-update","data":{"messageId":"m1","status":"read"}}`)

	kind, payload, err := decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindMessageStatus {
		t.Errorf("kind = %q, want %q", kind, KindMessageStatus)
	}
	upd := payload.(StatusUpdate)
	if upd.MessageID != "m1" || upd.Status != "read" {
		t.Errorf("unexpected update: %+v", upd)
	}
}

func TestDecodeSessionStatus(t *testing.T) {
	raw := []byte(`{"event":"session-status-update","data":{"sessionName":"work","status":"connected"}}`)

	kind, payload, err := decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindSessionStatus {
		t.Errorf("kind = %q, want %q", kind, KindSessionStatus)
	}
	upd := payload.(SessionUpdate)
	if upd.SessionName != "work" || upd.Status != "connected" {
		t.Errorf("unexpected update: %+v", upd)
	}
}

func TestDecodeQRCode(t *testing.T) {
	raw := []byte(`{"event":"qr-code","data":{"sessionName":"work","qr":"2@abc","attempts":3}}`)

	kind, payload, err := decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindQRCode {
		t.Errorf("kind = %q, want %q", kind, KindQRCode)
	}
	qr := payload.(platform.QRCode)
	if qr.SessionName != "work" || qr.Attempts != 3 {
		t.Errorf("unexpected qr: %+v", qr)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"unknown event", `{"event":"typing-indicator","data":{}}`},
		{"message without id", `{"event":"new-message","data":{"messageBody":"x"}}`},
		{"message data wrong shape", `{"event":"new-message","data":[1,2,3]}`},
		{"status data wrong shape", `{"event":"message-status-update","data":"read"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := decode([]byte(tt.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
