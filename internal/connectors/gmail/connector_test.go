package gmail

import (
	"encoding/base64"
	"testing"
)

func TestSearchQuery(t *testing.T) {
	if got := SearchQuery(""); got != "has:attachment" {
		t.Fatalf("got %q", got)
	}
	if got := SearchQuery(" Batch upload "); got != "has:attachment subject:(Batch upload)" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeBase64URL(t *testing.T) {
	payload := []byte("Subject: hi\r\n\r\nbody??>>")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString(payload))
		if err != nil || string(got) != string(payload) {
			t.Fatalf("got %q err=%v", got, err)
		}
	}
	if _, err := decodeBase64URL("***"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFromRaw(t *testing.T) {
	raw := []byte("Message-ID: <abc@example.org>\r\n" +
		"From: Exam Cell <exams@example.org>\r\n" +
		"Subject: =?UTF-8?Q?Results_March_2025?=\r\n" +
		"Date: Sat, 01 Mar 2025 09:30:00 +0530\r\n" +
		"\r\n" +
		"see attached\r\n")

	got := fromRaw("18f0", 0, raw)
	if got.MessageID != "<abc@example.org>" || got.Subject != "Results March 2025" || got.From != "Exam Cell <exams@example.org>" {
		t.Fatalf("got %+v", got)
	}
	if got.ReceivedAt != "2025-03-01T04:00:00Z" {
		t.Fatalf("received=%q", got.ReceivedAt)
	}

	got = fromRaw("18f0", 1740801600000, []byte("not a message"))
	if got.MessageID != "18f0" || got.ReceivedAt != "2025-03-01T04:00:00Z" {
		t.Fatalf("got %+v", got)
	}
}
