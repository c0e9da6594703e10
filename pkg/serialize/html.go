package serialize

import "fmt"

// FormatWorkItemReference renders the rich-text span the remote store
// resolves into a clickable work-item reference.
func FormatWorkItemReference(remoteID string) string {
	return fmt.Sprintf(
		`<span class="polarion-rte-link" data-type="workItem" id="fake" data-item-id="%s" data-option-id="long"></span>`,
		remoteID)
}

// brokenReference renders an unresolvable reference so the breakage is
// visible in the produced content instead of silently disappearing.
func brokenReference(key string) string {
	return fmt.Sprintf(`<span style="color: red">%s</span>`, key)
}
