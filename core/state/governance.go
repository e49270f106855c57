package state

import (
	"bytes"
	"sort"
	"strings"
)

// Authority returns the administrative account.
func (m *Manager) Authority() ([20]byte, bool, error) {
	var authority [20]byte
	ok, err := m.KVGet(governanceAuthorityKey, &authority)
	return authority, ok, err
}

// SetAuthority replaces the administrative account.
func (m *Manager) SetAuthority(addr [20]byte) error {
	return m.KVPut(governanceAuthorityKey, addr)
}

// IsAuthority reports whether addr is the administrative account.
func (m *Manager) IsAuthority(addr [20]byte) (bool, error) {
	authority, ok, err := m.Authority()
	if err != nil || !ok {
		return false, err
	}
	return authority == addr, nil
}

// ActivityReporters lists the accounts allowed to report activity.
func (m *Manager) ActivityReporters() ([][20]byte, error) {
	var list [][]byte
	if err := m.KVGetList(governanceReporterKey, &list); err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(list))
	for _, raw := range list {
		var addr [20]byte
		copy(addr[:], raw)
		out = append(out, addr)
	}
	return out, nil
}

// SetActivityReporter adds or removes a reporter.
func (m *Manager) SetActivityReporter(addr [20]byte, allowed bool) error {
	var list [][]byte
	if err := m.KVGetList(governanceReporterKey, &list); err != nil {
		return err
	}
	next := make([][]byte, 0, len(list)+1)
	for _, raw := range list {
		if !bytes.Equal(raw, addr[:]) {
			next = append(next, raw)
		}
	}
	if allowed {
		next = append(next, append([]byte(nil), addr[:]...))
	}
	sort.Slice(next, func(i, j int) bool { return bytes.Compare(next[i], next[j]) < 0 })
	return m.KVPut(governanceReporterKey, next)
}

// IsActivityReporter reports whether addr may submit activity. The
// authority is always allowed.
func (m *Manager) IsActivityReporter(addr [20]byte) (bool, error) {
	if ok, err := m.IsAuthority(addr); err != nil || ok {
		return ok, err
	}
	reporters, err := m.ActivityReporters()
	if err != nil {
		return false, err
	}
	for _, reporter := range reporters {
		if reporter == addr {
			return true, nil
		}
	}
	return false, nil
}

// SetPaused toggles the pause flag of a module.
func (m *Manager) SetPaused(module string, paused bool) error {
	if !paused {
		return m.KVDelete(PauseKey(module))
	}
	return m.KVPut(PauseKey(module), true)
}

// IsPaused implements common.PauseView. Unreadable flags count as paused.
func (m *Manager) IsPaused(module string) bool {
	module = strings.TrimSpace(module)
	if module == "" {
		return false
	}
	var paused bool
	ok, err := m.KVGet(PauseKey(module), &paused)
	if err != nil {
		return true
	}
	return ok && paused
}
