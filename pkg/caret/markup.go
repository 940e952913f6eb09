package caret

import "fmt"

// Class is the class of the caret element in the preview page.
const Class = "mdsync-caret"

// CSS styles the caret element and its blink.
const CSS = `.mdsync-caret {
  position: absolute;
  width: 2px;
  margin-left: -1px;
  background: currentColor;
  pointer-events: none;
  animation: mdsync-caret-blink 1.06s steps(1) infinite;
}
.mdsync-caret[hidden] { display: none; }
@keyframes mdsync-caret-blink {
  50% { opacity: 0; }
}
`

// Markup returns the caret element positioned at box, hidden unless visible.
func Markup(box Box, visible bool) string {
	hidden := ""
	if !visible {
		hidden = " hidden"
	}
	return fmt.Sprintf(`<div class="%s" style="top:%dpx;left:%dpx;height:%dpx"%s></div>`,
		Class, box.Top, box.Left, box.Height, hidden)
}
