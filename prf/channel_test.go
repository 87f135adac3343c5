package prf

import (
	"bytes"
	"context"
	"testing"
)

func TestStreamChannelRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ch := NewStreamChannel(&buf)
	ctx := context.Background()

	want := Message{Tag: TagLeaderMs1, Payload: []byte("hello")}
	if err := ch.Send(ctx, want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := ch.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if got.Tag != want.Tag || !bytes.Equal(got.Payload, want.Payload) {
		t.Errorf("Recv() = %+v, want %+v", got, want)
	}
}

func TestStreamChannelRejectsUnknownTag(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0, 0, 0, 0})
	ch := NewStreamChannel(&buf)

	if _, err := ch.Recv(context.Background()); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestStreamChannelEOF(t *testing.T) {
	var buf bytes.Buffer
	ch := NewStreamChannel(&buf)
	if _, err := ch.Recv(context.Background()); err == nil {
		t.Fatal("expected EOF on empty stream")
	}
}
