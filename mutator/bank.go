package mutator

// Bank holds one mutator of every kind, built once, plus a selector.
// Switching the selector keeps the parameters of the other mutators.
type Bank struct {
	mutators [NumKinds]*Mutator
	selected Kind
}

// NewBank creates a bank with the Null mutator selected
func NewBank() *Bank {
	b := &Bank{}
	for _, k := range Kinds() {
		b.mutators[k] = New(k)
	}
	return b
}

// Select clamps index to a known kind, makes it active and returns it
func (b *Bank) Select(index int) int {
	b.selected = Kind(clamp(index, 0, int(NumKinds)-1))
	return int(b.selected)
}

// Selected returns the selector index
func (b *Bank) Selected() int {
	return int(b.selected)
}

// Active returns the selected mutator
func (b *Bank) Active() *Mutator {
	return b.mutators[b.selected]
}

// Get returns the bank's mutator of the given kind (nil if unknown)
func (b *Bank) Get(kind Kind) *Mutator {
	if kind >= NumKinds {
		return nil
	}
	return b.mutators[kind]
}
