package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

func TestDescribeException(t *testing.T) {
	details := &proto.RuntimeExceptionDetails{
		Text: "Uncaught",
		Exception: &proto.RuntimeRemoteObject{
			Description: "Error: widget crashed",
		},
		StackTrace: &proto.RuntimeStackTrace{
			CallFrames: []*proto.RuntimeCallFrame{
				{FunctionName: "render", URL: "http://localhost:3000/app.js", LineNumber: 42},
				{FunctionName: "", URL: "http://localhost:3000/main.js", LineNumber: 7},
			},
		},
	}

	message, stack, url := describeException(details)
	if message != "Error: widget crashed" {
		t.Errorf("message = %q", message)
	}
	if url != "http://localhost:3000/app.js" {
		t.Errorf("url = %q", url)
	}
	if !strings.Contains(stack, "at render (http://localhost:3000/app.js:42)") {
		t.Errorf("stack missing frame: %q", stack)
	}
	if !strings.Contains(stack, "<anonymous>") {
		t.Errorf("anonymous frame not labelled: %q", stack)
	}

	message, stack, url = describeException(nil)
	if message != "unknown page error" || stack != "" || url != "" {
		t.Errorf("nil details = %q/%q/%q", message, stack, url)
	}
}

func TestStringifyConsoleArgsDescriptionFallback(t *testing.T) {
	args := []*proto.RuntimeRemoteObject{
		nil,
		{Description: "TypeError: x is not a function"},
		{Description: "Object"},
	}
	got := stringifyConsoleArgs(args)
	if got != "TypeError: x is not a function Object" {
		t.Errorf("stringifyConsoleArgs = %q", got)
	}
}

func TestTopFrameURL(t *testing.T) {
	trace := &proto.RuntimeStackTrace{
		CallFrames: []*proto.RuntimeCallFrame{
			{URL: ""},
			{URL: "http://localhost:3000/chunk.js"},
		},
	}
	if got := topFrameURL(trace); got != "http://localhost:3000/chunk.js" {
		t.Errorf("topFrameURL = %q", got)
	}
	if got := topFrameURL(nil); got != "" {
		t.Errorf("topFrameURL(nil) = %q", got)
	}
}

func TestResponseSampler(t *testing.T) {
	always := newResponseSampler(0)
	if !always.Allow() || !always.Allow() {
		t.Fatal("zero interval must never throttle")
	}

	throttled := newResponseSampler(time.Hour)
	if !throttled.Allow() {
		t.Fatal("first sample must pass")
	}
	if throttled.Allow() {
		t.Fatal("second sample inside the interval must be dropped")
	}
}
