// SPDX-License-Identifier: MPL-2.0

// Package sanitize strips generation artifacts from candidate program text.
//
// Code produced by a generation pipeline frequently arrives wrapped in
// markdown code fences. Those markers are not part of the program and would
// be syntax errors if left in place. Sanitization is best-effort cleanup:
// it must never fail, and it must not touch anything outside the removed
// markers because Python source is indentation-sensitive.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// openingFence matches a python-annotated opening fence at the start of a
// line, consuming the whole line including its trailing newline.
var openingFence = regexp.MustCompile("(?m)^```python[ \t]*\r?\n")

const bareFence = "```"

// Code removes markdown fence artifacts from raw candidate text.
//
// The transformation is idempotent: already-clean text is returned
// unchanged. If anything goes wrong internally, the original text is
// returned unchanged and the incident is logged; a failed cleanup must
// never abort the pipeline.
func Code(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("sanitizing candidate code failed", "panic", r)
			out = raw
		}
	}()

	out = openingFence.ReplaceAllString(raw, "")
	out = strings.ReplaceAll(out, bareFence, "")
	return out
}
