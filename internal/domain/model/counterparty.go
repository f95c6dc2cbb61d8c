package model

// CounterpartyKind selects which side a settlement is computed against.
type CounterpartyKind string

const (
	CounterpartyChannel  CounterpartyKind = "channel"
	CounterpartySupplier CounterpartyKind = "supplier"
)

// Valid reports whether the kind is one of the known sides.
func (k CounterpartyKind) Valid() bool {
	return k == CounterpartyChannel || k == CounterpartySupplier
}

// CounterpartyRef identifies a sales channel or a supplier.
type CounterpartyRef struct {
	Kind CounterpartyKind
	Key  string
}
