package middleware

import (
	"bytes"
	"net/http"
	"testing"
)

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{
		"Content-Type": []string{"application/json"},
		"X-Custom":     []string{"a", "b"},
	}
	body := []byte(`{"items":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(payload)
	if !ok {
		t.Fatal("decode failed")
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Fatalf("header = %v", gotHdr)
	}
	if len(gotHdr["X-Custom"]) != 2 {
		t.Fatalf("multi-value header = %v", gotHdr["X-Custom"])
	}
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestCachePayloadEmptyBody(t *testing.T) {
	payload, err := encodePayload(http.StatusOK, http.Header{}, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, _, body, ok := decodePayload(payload)
	if !ok || status != http.StatusOK || len(body) != 0 {
		t.Fatalf("decode: ok=%v status=%d body=%q", ok, status, body)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}, bytes.Repeat([]byte{0xff}, 8)} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Errorf("decodePayload(%v) accepted garbage", bs)
		}
	}
}
