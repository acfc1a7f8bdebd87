package relays

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"bountyboard/engine/actors"
)

// PublishToRelays sends every event to every relay and returns the number of relays that accepted
// all of them.
func PublishToRelays(ctx context.Context, events []nostr.Event, relays []string) int {
	var wg = &deadlock.WaitGroup{}
	var mu = &deadlock.Mutex{}
	var ok int
	for _, url := range relays {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			relay, err := nostr.RelayConnect(ctx, url)
			if err != nil {
				actors.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
				return
			}
			defer relay.Close()
			for _, event := range events {
				if _, err := relay.Publish(ctx, event); err != nil {
					actors.LogCLI(fmt.Sprintf("could not publish %s to relay %s: %s", event.ID, url, err), 2)
					return
				}
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}(url)
	}
	wg.Wait()
	return ok
}

// FetchKinds collects stored events of the given kinds from every relay, stopping at end of stored
// events or timeout. The result holds each event once, oldest first.
func FetchKinds(ctx context.Context, relays []string, kinds []int, timeout time.Duration) []nostr.Event {
	events := make(map[string]nostr.Event)
	eventsMu := &deadlock.Mutex{}
	filters := nostr.Filters{nostr.Filter{Kinds: kinds}}
	wait := &deadlock.WaitGroup{}
	for _, url := range relays {
		wait.Add(1)
		go func(url string) {
			defer wait.Done()
			relay, err := nostr.RelayConnect(ctx, url)
			if err != nil {
				actors.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
				return
			}
			defer relay.Close()
			ctxsub, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			sub, err := relay.Subscribe(ctxsub, filters)
			if err != nil {
				actors.LogCLI(err.Error(), 1)
				return
			}
			defer sub.Close()
			for {
				select {
				case ev, open := <-sub.Events:
					if !open {
						return
					}
					eventsMu.Lock()
					events[ev.ID] = *ev
					eventsMu.Unlock()
				case <-sub.EndOfStoredEvents:
					return
				case <-ctxsub.Done():
					return
				}
			}
		}(url)
	}
	wait.Wait()
	return oldestFirst(events)
}

func oldestFirst(events map[string]nostr.Event) []nostr.Event {
	r := make([]nostr.Event, 0, len(events))
	for _, e := range events {
		r = append(r, e)
	}
	sort.Slice(r, func(i, j int) bool {
		if r[i].CreatedAt == r[j].CreatedAt {
			return r[i].ID < r[j].ID
		}
		return r[i].CreatedAt < r[j].CreatedAt
	})
	return r
}
