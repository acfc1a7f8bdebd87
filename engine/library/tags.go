package library

import (
	"github.com/nbd-wtf/go-nostr"
)

func GetFirstTag(e nostr.Event, startsWith string) (string, bool) {
	for _, tag := range e.Tags {
		if tag.StartsWith([]string{startsWith}) {
			if len(tag) < 2 {
				continue
			}
			return tag.Value(), true
		}
	}
	return "", false
}
