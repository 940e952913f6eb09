package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

var (
	numberPattern = regexp.MustCompile(`^[0-9]+$`)
	classPattern  = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)
	subPattern    = regexp.MustCompile(`^[a-z]+$`)
)

// NewPolicy returns the sanitizer applied to rendered HTML. It starts from
// bluemonday's user-generated-content policy and keeps the position
// attributes, sub-renderer markers and highlighting classes.
func NewPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()

	policy.AllowAttrs(mdast.PositionAttrs()...).Matching(numberPattern).Globally()
	policy.AllowAttrs(AttrSub).Matching(subPattern).OnElements("div")
	policy.AllowAttrs("class").Matching(classPattern).OnElements("span", "code", "pre", "div")

	// GFM task list items.
	policy.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	policy.AllowAttrs("checked", "disabled").OnElements("input")

	return policy
}
