package leave

import (
	"slices"
	"strings"
)

type StatusFilter string

const FilterAll StatusFilter = "ALL"

func ParseStatusFilter(v string) (StatusFilter, bool) {
	switch f := StatusFilter(strings.ToUpper(strings.TrimSpace(v))); f {
	case FilterAll, StatusFilter(StatusPending), StatusFilter(StatusApproved), StatusFilter(StatusRejected):
		return f, true
	default:
		return "", false
	}
}

// Matches reports whether a record with effective status st passes the filter.
// The empty filter behaves like ALL.
func (f StatusFilter) Matches(st Status) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return Status(f) == st
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(v string) (SortOrder, bool) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(v))); o {
	case SortAsc, SortDesc:
		return o, true
	default:
		return "", false
	}
}

func (o SortOrder) Toggle() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

type Query struct {
	Status   StatusFilter
	Sort     SortOrder
	Page     int
	PageSize int
}

// EffectiveStatus is the local decision for r when one exists, else r.Status.
func EffectiveStatus(r LeaveRequest, overrides map[string]Status) Status {
	if st, ok := overrides[r.ID]; ok {
		return st
	}
	return r.Status
}

// Project filters requests by effective status, stable-sorts them by createdAt
// and cuts out one page. The second result is the number of records that
// matched the filter, before pagination. Items carry their effective status.
// Project does not modify requests.
func Project(requests []LeaveRequest, overrides map[string]Status, q Query) ([]LeaveRequest, int) {
	filtered := make([]LeaveRequest, 0, len(requests))
	for _, r := range requests {
		st := EffectiveStatus(r, overrides)
		if !q.Status.Matches(st) {
			continue
		}
		r.Status = st
		filtered = append(filtered, r)
	}

	sortByCreatedAt(filtered, q.Sort)

	return Paginate(filtered, q.Page, q.PageSize), len(filtered)
}

// sortByCreatedAt orders newest first unless order is asc. Equal timestamps
// keep their relative order.
func sortByCreatedAt(items []LeaveRequest, order SortOrder) {
	slices.SortStableFunc(items, func(a, b LeaveRequest) int {
		c := a.CreatedAt.Time.Compare(b.CreatedAt.Time)
		if order == SortAsc {
			return c
		}
		return -c
	})
}

// Paginate returns items[(page-1)*size : page*size] clipped to len(items).
// Out of range pages yield an empty slice.
func Paginate(items []LeaveRequest, page, size int) []LeaveRequest {
	if page < 1 || size < 1 {
		return []LeaveRequest{}
	}
	if page-1 > len(items)/size {
		return []LeaveRequest{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []LeaveRequest{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// sortForForwarding puts decided requests first, newest first within each group.
func sortForForwarding(items []LeaveRequest) {
	rank := func(s Status) int {
		if s.IsTerminal() {
			return 0
		}
		return 1
	}
	slices.SortStableFunc(items, func(a, b LeaveRequest) int {
		if ra, rb := rank(a.Status), rank(b.Status); ra != rb {
			return ra - rb
		}
		return b.CreatedAt.Time.Compare(a.CreatedAt.Time)
	})
}
