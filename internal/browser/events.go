package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

func pageTarget() proto.TargetCreateTarget {
	return proto.TargetCreateTarget{URL: "about:blank"}
}

func setViewport(page *rod.Page, width, height int) error {
	return page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

// stringifyConsoleArgs flattens console call arguments into one line.
// Primitive values render through their JSON form, objects through the
// remote object description.
func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if !arg.Value.Nil() {
			parts = append(parts, arg.Value.String())
			continue
		}
		if arg.Description != "" {
			parts = append(parts, arg.Description)
		}
	}
	return strings.Join(parts, " ")
}

// describeException extracts message, stack, and source URL from CDP
// exception details.
func describeException(details *proto.RuntimeExceptionDetails) (message, stack, url string) {
	if details == nil {
		return "unknown page error", "", ""
	}

	message = details.Text
	if details.Exception != nil && details.Exception.Description != "" {
		message = details.Exception.Description
	}
	if message == "" {
		message = "unknown page error"
	}

	url = details.URL
	if details.StackTrace != nil {
		lines := make([]string, 0, len(details.StackTrace.CallFrames))
		for i, frame := range details.StackTrace.CallFrames {
			if i >= 10 {
				break
			}
			name := frame.FunctionName
			if name == "" {
				name = "<anonymous>"
			}
			lines = append(lines, fmt.Sprintf("    at %s (%s:%d)", name, frame.URL, frame.LineNumber))
			if url == "" && frame.URL != "" {
				url = frame.URL
			}
		}
		stack = strings.Join(lines, "\n")
	}
	return message, stack, url
}

func topFrameURL(trace *proto.RuntimeStackTrace) string {
	if trace == nil {
		return ""
	}
	for _, frame := range trace.CallFrames {
		if frame.URL != "" {
			return frame.URL
		}
	}
	return ""
}
