// Package hierarchy turns a flat, arbitrarily-ordered set of accounts
// into a rooted tree with resolved full names.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bookport-dev/bookport/internal/guid"
	"github.com/bookport-dev/bookport/internal/model"
)

// ErrMultipleRoots is returned when a ledger declares more than one ROOT
// account.
var ErrMultipleRoots = errors.New("multiple root accounts")

// CycleError reports a parent chain that loops back on itself.
type CycleError struct {
	AccountUID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("account %s: parent chain forms a cycle", e.AccountUID)
}

// Build ensures the account set has exactly one ROOT and resolves every
// account's full name. Accounts may reference parents that appear later
// in the input (or not at all: such accounts are treated as top-level).
//
// When no ROOT exists one is synthesized and every parentless non-ROOT
// account is reparented under it, which models real files written
// without an explicit root. The map is mutated in place; the ROOT's UID
// is returned.
func Build(accounts map[string]*model.Account) (string, error) {
	var root *model.Account
	for _, a := range accounts {
		if !a.IsRoot() {
			continue
		}
		if root != nil {
			return "", ErrMultipleRoots
		}
		root = a
	}

	if root == nil {
		root = &model.Account{
			UID:  guid.New(),
			Name: model.RootAccountName,
			Type: model.AccountTypeRoot,
		}
		for _, a := range accounts {
			if a.ParentUID == "" {
				a.ParentUID = root.UID
			}
		}
		accounts[root.UID] = root
	}
	root.ParentUID = ""
	root.FullName = ""

	if err := resolveFullNames(accounts, root.UID); err != nil {
		return "", err
	}
	return root.UID, nil
}

// resolveFullNames walks each account's parent chain with an explicit
// stack rather than recursion: chains may be long, and cyclic input must
// be rejected instead of overflowing the stack. Results are memoized so
// each account is resolved once.
func resolveFullNames(accounts map[string]*model.Account, rootUID string) error {
	resolved := map[string]bool{rootUID: true}

	// Stable iteration keeps error attribution deterministic.
	uids := make([]string, 0, len(accounts))
	for uid := range accounts {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	for _, uid := range uids {
		if resolved[uid] {
			continue
		}

		// Climb to the nearest resolved ancestor, remembering the path.
		var stack []string
		onPath := make(map[string]bool)
		cur := uid
		for {
			if onPath[cur] {
				return &CycleError{AccountUID: cur}
			}
			onPath[cur] = true
			stack = append(stack, cur)

			parent := accounts[cur].ParentUID
			if parent == "" || resolved[parent] {
				break
			}
			if _, known := accounts[parent]; !known {
				// Dangling parent reference: treat as top-level.
				break
			}
			cur = parent
		}

		// Unwind, assigning full names top-down.
		for i := len(stack) - 1; i >= 0; i-- {
			a := accounts[stack[i]]
			parent, known := accounts[a.ParentUID]
			if !known || parent.FullName == "" {
				a.FullName = a.Name
			} else {
				a.FullName = parent.FullName + model.FullNameSeparator + a.Name
			}
			resolved[a.UID] = true
		}
	}
	return nil
}
