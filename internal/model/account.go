package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

// Account types recognized by the GnuCash dialect.
const (
	AccountTypeRoot       AccountType = "ROOT"
	AccountTypeAsset      AccountType = "ASSET"
	AccountTypeBank       AccountType = "BANK"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeCredit     AccountType = "CREDIT"
	AccountTypeLiability  AccountType = "LIABILITY"
	AccountTypeIncome     AccountType = "INCOME"
	AccountTypeExpense    AccountType = "EXPENSE"
	AccountTypeEquity     AccountType = "EQUITY"
	AccountTypeStock      AccountType = "STOCK"
	AccountTypeMutual     AccountType = "MUTUAL"
	AccountTypeCurrency   AccountType = "CURRENCY"
	AccountTypeTrading    AccountType = "TRADING"
	AccountTypePayable    AccountType = "PAYABLE"
	AccountTypeReceivable AccountType = "RECEIVABLE"
)

var accountTypes = map[AccountType]bool{
	AccountTypeRoot: true, AccountTypeAsset: true, AccountTypeBank: true,
	AccountTypeCash: true, AccountTypeCredit: true, AccountTypeLiability: true,
	AccountTypeIncome: true, AccountTypeExpense: true, AccountTypeEquity: true,
	AccountTypeStock: true, AccountTypeMutual: true, AccountTypeCurrency: true,
	AccountTypeTrading: true, AccountTypePayable: true, AccountTypeReceivable: true,
}

// ValidAccountType reports whether s names a known account type.
func ValidAccountType(s string) bool {
	return accountTypes[AccountType(s)]
}

// FullNameSeparator joins ancestor account names into a full name.
const FullNameSeparator = ":"

// RootAccountName is the display name given to a synthesized ROOT account.
const RootAccountName = "Root Account"

// Account is one node in the account hierarchy, identified by GUID.
// ParentUID is empty only for the ROOT account; FullName is derived from
// the ancestor chain, not stored in the wire format.
type Account struct {
	UID                string
	Name               string
	FullName           string
	Type               AccountType
	CommodityUID       string
	CommodityNamespace string
	CommodityCode      string
	Description        string
	Color              string
	Notes              string
	ParentUID          string
	DefaultTransferUID string
	Placeholder        bool
	Hidden             bool
	Favorite           bool
	Template           bool // template accounts back scheduled actions and are never ordinary chart entries
}

// IsRoot reports whether the account is the hierarchy root.
func (a Account) IsRoot() bool {
	return a.Type == AccountTypeRoot
}
