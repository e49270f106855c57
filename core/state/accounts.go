package state

// Balance returns the spendable balance of addr in base units.
func (m *Manager) Balance(addr [20]byte) (uint64, error) {
	var balance uint64
	if _, err := m.KVGet(withAddress(balancePrefix, addr), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// SetBalance overwrites the balance of addr.
func (m *Manager) SetBalance(addr [20]byte, amount uint64) error {
	return m.KVPut(withAddress(balancePrefix, addr), amount)
}
