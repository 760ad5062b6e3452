package transaction

import (
	"sort"
	"time"
)

// FindDuplicates groups transactions that share name and amount and whose dates are
// chained within tolerance of each other. Only groups with two or more members are
// returned, ordered by the date, name and amount of their first member.
func FindDuplicates(txs []*Transaction, tolerance time.Duration) [][]*Transaction {
	type key struct {
		Name   string
		Amount int64
	}

	buckets := make(map[key][]*Transaction)
	for _, tx := range txs {
		k := key{Name: tx.Name, Amount: tx.Amount}
		buckets[k] = append(buckets[k], tx)
	}

	var groups [][]*Transaction

	for _, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}

		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Date.Before(bucket[j].Date)
		})

		current := []*Transaction{bucket[0]}

		for _, tx := range bucket[1:] {
			prev := current[len(current)-1]
			if tx.Date.Sub(prev.Date) <= tolerance {
				current = append(current, tx)
				continue
			}

			if len(current) > 1 {
				groups = append(groups, current)
			}

			current = []*Transaction{tx}
		}

		if len(current) > 1 {
			groups = append(groups, current)
		}
	}

	// Groups of one bucket never share a first date, so date, name and amount order
	// them totally.
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i][0], groups[j][0]

		switch {
		case !a.Date.Equal(b.Date):
			return a.Date.Before(b.Date)
		case a.Name != b.Name:
			return a.Name < b.Name
		}

		return a.Amount < b.Amount
	})

	return groups
}
