package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookport-dev/bookport/internal/model"
)

func acct(uid, name, parent string) *model.Account {
	return &model.Account{UID: uid, Name: name, Type: model.AccountTypeAsset, ParentUID: parent}
}

func TestBuildSynthesizesRoot(t *testing.T) {
	accounts := map[string]*model.Account{
		"a": acct("a", "A", ""),
		"b": acct("b", "B", "a"),
		"c": acct("c", "C", "b"),
	}

	rootUID, err := Build(accounts)
	require.NoError(t, err)
	require.Len(t, accounts, 4)

	root := accounts[rootUID]
	require.NotNil(t, root)
	assert.Equal(t, model.AccountTypeRoot, root.Type)
	assert.Empty(t, root.ParentUID)

	assert.Equal(t, rootUID, accounts["a"].ParentUID)
	assert.Equal(t, "A", accounts["a"].FullName)
	assert.Equal(t, "A:B", accounts["b"].FullName)
	assert.Equal(t, "A:B:C", accounts["c"].FullName)
}

func TestBuildForwardReferences(t *testing.T) {
	// Children listed before their parents, as real files do.
	accounts := map[string]*model.Account{
		"c":    acct("c", "C", "b"),
		"b":    acct("b", "B", "a"),
		"a":    acct("a", "A", "root"),
		"root": {UID: "root", Name: model.RootAccountName, Type: model.AccountTypeRoot},
	}

	rootUID, err := Build(accounts)
	require.NoError(t, err)
	assert.Equal(t, "root", rootUID)
	assert.Equal(t, "A:B:C", accounts["c"].FullName)
	assert.Equal(t, "", accounts["root"].FullName)
}

func TestBuildMultipleRoots(t *testing.T) {
	accounts := map[string]*model.Account{
		"r1": {UID: "r1", Name: "Root", Type: model.AccountTypeRoot},
		"r2": {UID: "r2", Name: "Root", Type: model.AccountTypeRoot},
	}
	_, err := Build(accounts)
	assert.ErrorIs(t, err, ErrMultipleRoots)
}

func TestBuildRejectsCycle(t *testing.T) {
	accounts := map[string]*model.Account{
		"a": acct("a", "A", "b"),
		"b": acct("b", "B", "a"),
	}
	_, err := Build(accounts)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
}

func TestBuildDanglingParent(t *testing.T) {
	accounts := map[string]*model.Account{
		"root": {UID: "root", Name: model.RootAccountName, Type: model.AccountTypeRoot},
		"a":    acct("a", "A", "missing"),
	}
	_, err := Build(accounts)
	require.NoError(t, err)
	assert.Equal(t, "A", accounts["a"].FullName)
}
