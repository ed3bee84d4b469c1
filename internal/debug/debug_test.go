package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type recorder struct {
	msgs []string
}

func (r *recorder) log(msg string, _ any) { r.msgs = append(r.msgs, msg) }

func TestLog_DisabledIsNoop(t *testing.T) {
	rec := &recorder{}
	o := Options{Enabled: false, LogRequests: true, LogResponses: true, Logger: rec.log}
	o.Log("hello", nil)
	o.LogRequest("GET x", nil)
	o.LogResponse("200", nil)
	if len(rec.msgs) != 0 {
		t.Fatalf("expected no calls, got %v", rec.msgs)
	}
}

func TestLogRequest_RequiresOwnFlag(t *testing.T) {
	rec := &recorder{}
	o := Options{Enabled: true, LogRequests: false, LogResponses: true, Logger: rec.log}
	o.Log("plain", nil)
	o.LogRequest("GET https://example.com", nil)
	o.LogResponse("200 OK", nil)
	for _, m := range rec.msgs {
		if strings.HasPrefix(m, "REQUEST:") {
			t.Fatalf("request logged with LogRequests=false: %q", m)
		}
	}
	if len(rec.msgs) != 2 {
		t.Fatalf("expected 2 calls, got %v", rec.msgs)
	}
	if rec.msgs[1] != "RESPONSE: 200 OK" {
		t.Fatalf("unexpected response prefix: %q", rec.msgs[1])
	}
}

func TestLog_PanickingSinkIsSwallowed(t *testing.T) {
	o := Options{Enabled: true, Logger: func(string, any) { panic("sink broke") }}
	o.Log("x", map[string]any{"a": 1})
	o.LogRequests = true
	o.LogRequest("y", nil)
}

func TestLog_DefaultSinkUsesTag(t *testing.T) {
	var buf bytes.Buffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = old })

	Options{Enabled: true}.Log("dispatching", map[string]any{"providers": []string{"brave"}})
	out := buf.String()
	if !strings.Contains(out, Tag+" dispatching") {
		t.Fatalf("missing tag in %q", out)
	}
	if !strings.Contains(out, `"providers":["brave"]`) {
		t.Fatalf("missing data in %q", out)
	}
}
