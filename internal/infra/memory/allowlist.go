package memory

import (
	"context"
	"sort"
	"sync"
)

// AllowList is an in-memory implementation of app.AllowList. An empty
// set means open registration.
type AllowList struct {
	mu     sync.RWMutex
	emails map[string]struct{}
}

func NewAllowList() *AllowList {
	return &AllowList{emails: make(map[string]struct{})}
}

func (a *AllowList) Replace(_ context.Context, emails []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.emails = make(map[string]struct{}, len(emails))
	for _, e := range emails {
		a.emails[e] = struct{}{}
	}
	return nil
}

func (a *AllowList) Append(_ context.Context, emails []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range emails {
		a.emails[e] = struct{}{}
	}
	return nil
}

func (a *AllowList) Remove(_ context.Context, emails []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range emails {
		delete(a.emails, e)
	}
	return nil
}

func (a *AllowList) Emails(_ context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.emails))
	for e := range a.emails {
		out = append(out, e)
	}
	sort.Strings(out)
	return out, nil
}

func (a *AllowList) IsAllowed(_ context.Context, email string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.emails) == 0 {
		return true, nil
	}
	_, ok := a.emails[email]
	return ok, nil
}
