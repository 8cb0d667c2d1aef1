// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toeirei/keydepot/internal/model"
)

// Sort selects the grouping of the current-holdings projection.
type Sort string

const (
	// ByUser groups open assignments per user (resolved to display name),
	// listing the key names each user holds.
	ByUser Sort = "by_user"
	// ByKey groups open assignments per key, listing the users holding it.
	ByKey Sort = "by_key"
)

// CurrentHoldings derives the "who currently holds what" view from the live
// assignment rows. Only open assignments (date_in unset) appear. The result
// is recomputed on every call; nothing is materialized. Ordering follows the
// stored identities: groups ascend by username or key name and members ascend
// within each group; display names only label the output, they never reorder it.
func (l *Ledger) CurrentHoldings(by Sort) ([]model.Holding, error) {
	if by != ByUser && by != ByKey {
		return nil, fmt.Errorf("%w: unknown holdings sort %q", ErrValidation, by)
	}

	open, err := l.store.GetOpenAssignments()
	if err != nil {
		return nil, err
	}
	users, err := l.store.GetAllUsers()
	if err != nil {
		return nil, err
	}
	display := make(map[string]string, len(users))
	for _, u := range users {
		display[u.Username] = u.Display()
	}
	// A username with no surviving user row still shows as-is; closed-over
	// history may reference deleted users, open rows normally cannot.
	resolve := func(username string) string {
		if d, ok := display[username]; ok {
			return d
		}
		return username
	}

	groups := make(map[string][]string)
	for _, a := range open {
		switch by {
		case ByUser:
			groups[a.Username] = append(groups[a.Username], a.KeyName)
		case ByKey:
			groups[a.KeyName] = append(groups[a.KeyName], a.Username)
		}
	}

	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	out := make([]model.Holding, 0, len(names))
	for _, g := range names {
		members := groups[g]
		sort.Strings(members)
		group := g
		if by == ByUser {
			group = resolve(g)
		} else {
			for i, m := range members {
				members[i] = resolve(m)
			}
		}
		out = append(out, model.Holding{Group: group, Members: strings.Join(members, ", ")})
	}
	return out, nil
}
