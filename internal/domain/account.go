package domain

import (
	"sort"

	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

type AccountType string

const (
	AccountCash   AccountType = "CASH"
	AccountMargin AccountType = "MARGIN"
)

// AccountBalance is the per-currency balance triple of spec.md §3.
type AccountBalance struct {
	Total  fixed.Money
	Free   fixed.Money
	Locked fixed.Money
}

// AccountStateEvent is one entry of the append-only sequence an Account
// applies; the account's current balances/margins are the fold over
// this sequence (spec.md §3 "derived state").
type AccountStateEvent struct {
	TsEvent  int64
	Balances map[string]AccountBalance // currency code -> balance
}

// Account is the per-venue trading account.
type Account struct {
	ID        ids.AccountId
	Type      AccountType
	BaseCcy   *fixed.Currency
	Balances  map[string]AccountBalance // currency code -> latest balance
	InitMargins  map[ids.InstrumentId]fixed.Money
	MaintMargins map[ids.InstrumentId]fixed.Money
	events    []AccountStateEvent
}

func NewAccount(id ids.AccountId, typ AccountType, baseCcy *fixed.Currency) *Account {
	return &Account{
		ID:           id,
		Type:         typ,
		BaseCcy:      baseCcy,
		Balances:     make(map[string]AccountBalance),
		InitMargins:  make(map[ids.InstrumentId]fixed.Money),
		MaintMargins: make(map[ids.InstrumentId]fixed.Money),
	}
}

// ApplyState appends an AccountState event and folds it into the
// account's current balances, mirroring spec.md §3's "apply an
// append-only sequence of AccountState events; the latest state is
// derived state".
func (a *Account) ApplyState(evt AccountStateEvent) {
	a.events = append(a.events, evt)
	for ccy, bal := range evt.Balances {
		a.Balances[ccy] = bal
	}
}

// Events returns the account's full event history in application order.
func (a *Account) Events() []AccountStateEvent { return a.events }

// SetInitMargin / SetMaintMargin record per-instrument margin
// requirements, recomputed by the Accounts Manager (spec.md §4.7) on
// every open-order-set or position change.
func (a *Account) SetInitMargin(instrument ids.InstrumentId, m fixed.Money) {
	if m.IsZero() {
		delete(a.InitMargins, instrument)
		return
	}
	a.InitMargins[instrument] = m
}

func (a *Account) SetMaintMargin(instrument ids.InstrumentId, m fixed.Money) {
	if m.IsZero() {
		delete(a.MaintMargins, instrument)
		return
	}
	a.MaintMargins[instrument] = m
}

// TotalInitMargin / TotalMaintMargin sum margins across instruments for
// a given currency, iterating instruments in sorted order for
// deterministic output (spec.md §9 "Deterministic iteration").
func (a *Account) TotalInitMargin(ccy fixed.Currency) fixed.Money {
	return sumMargins(a.InitMargins, ccy)
}

func (a *Account) TotalMaintMargin(ccy fixed.Currency) fixed.Money {
	return sumMargins(a.MaintMargins, ccy)
}

func sumMargins(margins map[ids.InstrumentId]fixed.Money, ccy fixed.Currency) fixed.Money {
	keys := make([]string, 0, len(margins))
	for k := range margins {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	total := fixed.MoneyFromRaw(0, ccy)
	for _, k := range keys {
		m := margins[ids.InstrumentId(k)]
		if m.Currency.Code == ccy.Code {
			total = total.Add(m)
		}
	}
	return total
}
