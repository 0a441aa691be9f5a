package analyzer

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available to drive a fake analyzer subprocess")
	}
}

func TestClientRequestResponseRoundTrip(t *testing.T) {
	requireShell(t)
	t.Parallel()

	script := `read _line
body='{"type":"response","request_seq":1,"success":true,"body":{"ok":true}}'
printf 'Content-Length: %d\r\n\r\n%s' "${#body}" "$body"
`
	client := NewClient(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx, "/bin/sh", []string{"-c", script}, nil)
	assert.NilError(t, err)

	body, err := client.Request(ctx, "echoTest", struct{}{}, nil)
	assert.NilError(t, err)

	var result struct {
		OK bool `json:"ok"`
	}
	assert.NilError(t, body.Decode(&result))
	assert.Assert(t, result.OK)
}

func TestClientRequestErrorResponse(t *testing.T) {
	requireShell(t)
	t.Parallel()

	script := `read _line
body='{"type":"response","request_seq":1,"success":false,"message":"boom"}'
printf 'Content-Length: %d\r\n\r\n%s' "${#body}" "$body"
`
	client := NewClient(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx, "/bin/sh", []string{"-c", script}, nil)
	assert.NilError(t, err)

	_, err = client.Request(ctx, "echoTest", struct{}{}, nil)
	assert.ErrorContains(t, err, "boom")
}

func TestClientEventFanOut(t *testing.T) {
	requireShell(t)
	t.Parallel()

	script := `body='{"type":"event","event":"telemetry","body":{"name":"x"}}'
printf 'Content-Length: %d\r\n\r\n%s' "${#body}" "$body"
`
	events := make(chan Event, 1)
	client := NewClient(func(ev Event) { events <- ev })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx, "/bin/sh", []string{"-c", script}, nil)
	assert.NilError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "telemetry", ev.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for analyzer event")
	}
}
