package model

// HistoryCapacity is the number of transactions kept per account.
const HistoryCapacity = 10

// History is the bounded, insertion-ordered transaction log of one account.
// Once full, each append evicts the oldest entry.
type History struct {
	entries [HistoryCapacity]Transaction
	count   int
}

// Append adds tx as the newest entry, dropping the oldest when full.
func (h *History) Append(tx Transaction) {
	if h.count >= HistoryCapacity {
		copy(h.entries[:], h.entries[1:])
		h.entries[HistoryCapacity-1] = Transaction{}
		h.count = HistoryCapacity - 1
	}
	h.entries[h.count] = tx
	h.count++
}

// Len returns the number of stored entries.
func (h History) Len() int {
	return h.count
}

// Entries returns a copy of the stored entries, oldest first.
func (h History) Entries() []Transaction {
	out := make([]Transaction, h.count)
	copy(out, h.entries[:h.count])
	return out
}

// At returns entry i (0 = oldest). It panics if i is out of range.
func (h History) At(i int) Transaction {
	if i < 0 || i >= h.count {
		panic("history index out of range")
	}
	return h.entries[i]
}

// Last returns the newest entry and false if the history is empty.
func (h History) Last() (Transaction, bool) {
	if h.count == 0 {
		return Transaction{}, false
	}
	return h.entries[h.count-1], true
}

// HistoryFrom builds a History from entries, oldest first. Entries beyond
// HistoryCapacity are appended through the normal eviction path.
func HistoryFrom(entries []Transaction) History {
	var h History
	for _, tx := range entries {
		h.Append(tx)
	}
	return h
}
